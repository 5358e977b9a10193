// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// SkipIfNoDocker skips the test when no Docker daemon is reachable.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if !IsDockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
}

// IsDockerAvailable reports whether `docker info` succeeds within 5s.
func IsDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// CleanupContainer terminates container, logging instead of failing on error.
func CleanupContainer(t *testing.T, ctx context.Context, container testcontainers.Container) {
	t.Helper()

	if container != nil {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	}
}

// execChecked runs cmd inside container and returns its combined output,
// failing on a non-zero exit code.
func execChecked(ctx context.Context, container testcontainers.Container, cmd []string) (string, error) {
	code, reader, err := container.Exec(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("exec %v: %w", cmd, err)
	}

	var out []byte
	if reader != nil {
		out, _ = io.ReadAll(reader)
	}
	if code != 0 {
		return string(out), fmt.Errorf("exec %v: exit code %d: %s", cmd, code, out)
	}
	return string(out), nil
}
