package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckEmpty indicates a reachable but empty corpus.
	CheckEmpty CheckResult = "empty"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Documents int
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	corpus    CorpusCounter
}

// New creates a Service. db and embedding can be nil (in-memory backend,
// provider without a health endpoint).
func New(db DBPinger, embedding EmbeddingChecker, corpus CorpusCounter) *Service {
	return &Service{db: db, embedding: embedding, corpus: corpus}
}

// Check runs health checks against all components.
// An empty corpus degrades the service: searches would return nothing.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var docs int

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = CheckError
		} else {
			checks["database"] = CheckOK
		}
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.corpus != nil {
		n, err := s.corpus.Count(ctx)
		switch {
		case err != nil:
			checks["corpus"] = CheckError
		case n == 0:
			checks["corpus"] = CheckEmpty
		default:
			checks["corpus"] = CheckOK
			docs = n
		}
	}

	status := Healthy
	failed := 0
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
		}
		if v == CheckError {
			failed++
		}
	}
	if failed > 0 && failed == len(checks) {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks, Documents: docs}
}
