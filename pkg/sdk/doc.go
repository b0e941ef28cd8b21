// Package tariffdex embeds the tariffdex hybrid search engine in a Go
// program: the same indexing, dense/lexical blending, hierarchy re-ranking
// and weight tuning the HTTP service runs, backed by Redis (RediSearch or
// valkey-search) or by an in-process store.
//
// # Quick start
//
//	client, _ := tariffdex.New(ctx,
//	    tariffdex.WithMemory(),
//	    tariffdex.WithEmbedder(myEmbedder),
//	)
//	_, _ = client.Index(ctx, []tariffdex.Document{
//	    {ID: "09012110", Type: tariffdex.TypeCode, Code: "0901.21.10", Text: "Café torrado, não descafeinado, em grão"},
//	})
//	hits, _ := client.Search(ctx, "café em grão", tariffdex.WithTopK(5), tariffdex.WithPreferItems())
//
// # Tuning
//
//	report, _ := client.Tune(ctx, []tariffdex.TuneCase{
//	    {Query: "café em grão", Expected: "0901.21.10"},
//	}, nil)
//	// report.Applied reports whether the live blend changed.
package tariffdex
