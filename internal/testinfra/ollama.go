// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultOllamaImage serves an OpenAI-compatible /v1/embeddings endpoint.
	DefaultOllamaImage = "ollama/ollama:latest"

	// DefaultOllamaPort is the Ollama API port.
	DefaultOllamaPort = "11434"

	// DefaultEmbeddingModel is small enough to pull in CI (about 45MB, 384 dimensions).
	DefaultEmbeddingModel = "all-minilm"
)

// OllamaContainer is a running Ollama server with an embedding model pulled.
type OllamaContainer struct {
	testcontainers.Container

	// BaseURL is the OpenAI-compatible API root, ending in /v1.
	BaseURL string

	// Model is the pulled embedding model.
	Model string
}

// OllamaOption configures the Ollama container.
type OllamaOption func(*ollamaConfig)

type ollamaConfig struct {
	image        string
	model        string
	startTimeout time.Duration
	pullTimeout  time.Duration
}

// WithOllamaImage sets a custom Ollama image.
func WithOllamaImage(image string) OllamaOption {
	return func(c *ollamaConfig) {
		c.image = image
	}
}

// WithEmbeddingModel selects the model pulled after startup.
func WithEmbeddingModel(model string) OllamaOption {
	return func(c *ollamaConfig) {
		c.model = model
	}
}

// WithStartTimeout bounds the wait for the API port.
func WithStartTimeout(timeout time.Duration) OllamaOption {
	return func(c *ollamaConfig) {
		c.startTimeout = timeout
	}
}

// WithPullTimeout bounds the model download.
func WithPullTimeout(timeout time.Duration) OllamaOption {
	return func(c *ollamaConfig) {
		c.pullTimeout = timeout
	}
}

// NewOllamaContainer starts Ollama and pulls the embedding model.
//
//	ollama, err := testinfra.NewOllamaContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, ollama.Container)
//
//	enc, err := embedding.NewHTTPEncoder(ctx, embedding.Config{
//	    BaseURL: ollama.BaseURL,
//	    Model:   ollama.Model,
//	})
func NewOllamaContainer(ctx context.Context, opts ...OllamaOption) (*OllamaContainer, error) {
	cfg := &ollamaConfig{
		image:        DefaultOllamaImage,
		model:        DefaultEmbeddingModel,
		startTimeout: 60 * time.Second,
		pullTimeout:  5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	port := DefaultOllamaPort + "/tcp"
	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{port},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(nat.Port(port)),
			wait.ForHTTP("/").WithPort(nat.Port(port)),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create ollama container: %w", err)
	}

	pullCtx, cancel := context.WithTimeout(ctx, cfg.pullTimeout)
	defer cancel()
	if _, err := execChecked(pullCtx, container, []string{"ollama", "pull", cfg.model}); err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("pull model %s: %w", cfg.model, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	mapped, err := container.MappedPort(ctx, DefaultOllamaPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	return &OllamaContainer{
		Container: container,
		BaseURL:   fmt.Sprintf("http://%s:%s/v1", host, mapped.Port()),
		Model:     cfg.model,
	}, nil
}
