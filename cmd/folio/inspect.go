// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"fmt"
	"path"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/folio/internal/artifact"
)

// inspection is the header summary of the artifacts in a store.
type inspection struct {
	Root string `json:"root"`

	VectorChunks int `json:"vector_chunks"`
	IDChunks     int `json:"id_chunks"`

	Embeddings *matrixHeader `json:"embeddings,omitempty"`
	IDs        *idsHeader    `json:"ids,omitempty"`
	Index      *indexHeader  `json:"index,omitempty"`

	// Consistent is true when all three artifacts exist and share one fingerprint.
	Consistent bool     `json:"consistent"`
	Problems   []string `json:"problems,omitempty"`
}

type matrixHeader struct {
	Model       string `json:"model"`
	Dimension   int    `json:"dimension"`
	Rows        int    `json:"rows"`
	Fingerprint string `json:"fingerprint"`
}

type idsHeader struct {
	Count       int      `json:"count"`
	Sample      []string `json:"sample"`
	Fingerprint string   `json:"fingerprint"`
}

type indexHeader struct {
	Kind        string `json:"kind"`
	Bytes       int    `json:"bytes"`
	Fingerprint string `json:"fingerprint"`
}

func newInspectCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print artifact headers and check that they belong together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			in, err := inspectStore(store)
			if err != nil {
				return err
			}
			in.Root = a.cfg.Artifacts.Path

			if asJSON {
				data, err := json.MarshalIndent(in, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal inspection: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}
			printInspection(cmd, in)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func inspectStore(s artifact.Store) (*inspection, error) {
	in := &inspection{}

	vecChunks, err := s.List(path.Join(artifact.ChunkDir, artifact.VectorChunkPrefix))
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	idChunks, err := s.List(path.Join(artifact.ChunkDir, artifact.IDChunkPrefix))
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	in.VectorChunks, in.IDChunks = len(vecChunks), len(idChunks)

	fingerprints := make(map[string]bool)

	if data, ok, err := readIfExists(s, artifact.EmbeddingsName); err != nil {
		return nil, err
	} else if ok {
		m, err := artifact.DecodeMatrix(data)
		if err != nil {
			in.Problems = append(in.Problems, fmt.Sprintf("%s: %v", artifact.EmbeddingsName, err))
		} else {
			in.Embeddings = &matrixHeader{
				Model:       m.Model,
				Dimension:   m.Dimension,
				Rows:        len(m.Rows),
				Fingerprint: hex64(m.Fingerprint),
			}
			fingerprints[in.Embeddings.Fingerprint] = true
		}
	}

	if data, ok, err := readIfExists(s, artifact.IDsName); err != nil {
		return nil, err
	} else if ok {
		l, err := artifact.DecodeIDs(data)
		if err != nil {
			in.Problems = append(in.Problems, fmt.Sprintf("%s: %v", artifact.IDsName, err))
		} else {
			sample := l.IDs
			if len(sample) > 5 {
				sample = sample[:5]
			}
			in.IDs = &idsHeader{Count: len(l.IDs), Sample: sample, Fingerprint: hex64(l.Fingerprint)}
			fingerprints[in.IDs.Fingerprint] = true
		}
	}

	if data, ok, err := readIfExists(s, artifact.IndexName); err != nil {
		return nil, err
	} else if ok {
		b, err := artifact.DecodeIndex(data)
		if err != nil {
			in.Problems = append(in.Problems, fmt.Sprintf("%s: %v", artifact.IndexName, err))
		} else {
			in.Index = &indexHeader{Kind: b.Kind, Bytes: len(b.Payload), Fingerprint: hex64(b.Fingerprint)}
			fingerprints[in.Index.Fingerprint] = true
		}
	}

	if in.VectorChunks != in.IDChunks {
		in.Problems = append(in.Problems,
			fmt.Sprintf("%d vector chunks but %d identifier chunks", in.VectorChunks, in.IDChunks))
	}
	if in.Embeddings != nil && in.IDs != nil && in.Embeddings.Rows != in.IDs.Count {
		in.Problems = append(in.Problems,
			fmt.Sprintf("%d vectors but %d identifiers", in.Embeddings.Rows, in.IDs.Count))
	}
	if len(fingerprints) > 1 {
		in.Problems = append(in.Problems, "artifacts carry different fingerprints")
	}
	in.Consistent = in.Embeddings != nil && in.IDs != nil && in.Index != nil && len(in.Problems) == 0
	return in, nil
}

func readIfExists(s artifact.Store, name string) ([]byte, bool, error) {
	ok, err := s.Exists(name)
	if err != nil || !ok {
		return nil, false, err
	}
	data, err := s.Read(name)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func hex64(v uint64) string {
	return fmt.Sprintf("%016x", v)
}

func printInspection(cmd *cobra.Command, in *inspection) {
	cmd.Printf("artifacts: %s\n", in.Root)
	cmd.Printf("  chunks:          %d vector, %d identifier\n", in.VectorChunks, in.IDChunks)

	if e := in.Embeddings; e != nil {
		cmd.Printf("  %-16s %d x %d, model %s, fingerprint %s\n", artifact.EmbeddingsName, e.Rows, e.Dimension, e.Model, e.Fingerprint)
	} else {
		cmd.Printf("  %-16s missing\n", artifact.EmbeddingsName)
	}
	if l := in.IDs; l != nil {
		cmd.Printf("  %-16s %d identifiers, fingerprint %s\n", artifact.IDsName, l.Count, l.Fingerprint)
	} else {
		cmd.Printf("  %-16s missing\n", artifact.IDsName)
	}
	if x := in.Index; x != nil {
		cmd.Printf("  %-16s %s, %d bytes, fingerprint %s\n", artifact.IndexName, x.Kind, x.Bytes, x.Fingerprint)
	} else {
		cmd.Printf("  %-16s missing\n", artifact.IndexName)
	}

	for _, p := range in.Problems {
		cmd.Printf("  problem: %s\n", p)
	}
	if in.Consistent {
		cmd.Println("  status: consistent")
	} else {
		cmd.Println("  status: incomplete or inconsistent")
	}
}
