package chi

import (
	"fmt"
	"net/http"

	chiv5 "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// SearchParams defines parameters for GET /search.
type SearchParams struct {
	Q               string
	TopK            *int
	PreferItems     *bool
	Type            *string
	WithAttributes  *bool
	EmbeddingWeight *float64
}

// AttributesParams defines parameters for GET /codes/{code}/attributes.
type AttributesParams struct {
	Limit *int
}

func bindSearchParams(r *http.Request) (SearchParams, error) {
	var params SearchParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, true, "q", query, &params.Q); err != nil {
		return params, fmt.Errorf("invalid format for parameter q: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "top_k", query, &params.TopK); err != nil {
		return params, fmt.Errorf("invalid format for parameter top_k: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "prefer_items", query, &params.PreferItems); err != nil {
		return params, fmt.Errorf("invalid format for parameter prefer_items: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "type", query, &params.Type); err != nil {
		return params, fmt.Errorf("invalid format for parameter type: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "with_attributes", query, &params.WithAttributes); err != nil {
		return params, fmt.Errorf("invalid format for parameter with_attributes: %w", err)
	}
	if err := runtime.BindQueryParameter(
		"form", true, false, "embedding_weight", query, &params.EmbeddingWeight,
	); err != nil {
		return params, fmt.Errorf("invalid format for parameter embedding_weight: %w", err)
	}
	return params, nil
}

func bindAttributesParams(r *http.Request) (AttributesParams, error) {
	var params AttributesParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		return params, fmt.Errorf("invalid format for parameter limit: %w", err)
	}
	return params, nil
}

func bindCodeParam(r *http.Request) (string, error) {
	var code string
	err := runtime.BindStyledParameterWithOptions("simple", "code", chiv5.URLParam(r, "code"), &code,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("invalid format for parameter code: %w", err)
	}
	return code, nil
}
