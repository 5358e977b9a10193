// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package testinfra provides container helpers for integration tests.
//
// It uses testcontainers-go to start a real Ollama server so the HTTP
// encoder is exercised against a live OpenAI-compatible embeddings endpoint
// instead of an httptest fake.
//
// # Ollama Container
//
//	func TestEmbedCorpus(t *testing.T) {
//	    ctx := context.Background()
//	    ollama, err := testinfra.NewOllamaContainer(ctx,
//	        testinfra.WithEmbeddingModel("nomic-embed-text"),
//	    )
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, ollama.Container)
//
//	    enc, err := embedding.NewHTTPEncoder(ctx, embedding.Config{
//	        BaseURL: ollama.BaseURL,
//	        Model:   ollama.Model,
//	    })
//	    // ...
//	}
//
// # Running
//
// Files in this package carry the integration build tag:
//
//	go test -tags integration ./internal/testinfra/...
//
// The first run downloads the Ollama image and the model. Tests skip when
// Docker is unavailable or -short is set.
package testinfra
