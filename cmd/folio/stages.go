// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/folio/internal/artifact"
	"github.com/tomtom215/folio/internal/corpus"
	"github.com/tomtom215/folio/internal/embedding"
	"github.com/tomtom215/folio/internal/pipeline"
)

func newCorpusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Build the embedding corpus from book metadata and reviews",
		Long: `Reads CORPUS_METADATA_PATH and CORPUS_REVIEWS_PATH with DuckDB, keeps one
row per normalized title, samples CORPUS_SUBSET_SIZE titles with CORPUS_SEED,
attaches the CORPUS_MAX_REVIEWS most helpful reviews, and writes the result to
CORPUS_OUTPUT_PATH.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.buildCorpus(cmd)
			return err
		},
	}
	cmd.Flags().StringVarP(&a.corpusOut, "output", "o", "", "corpus output file (overrides CORPUS_OUTPUT_PATH)")
	return cmd
}

func newEmbedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Encode the corpus into chunk artifacts",
		Long: `Encodes the corpus in batches of BATCH_SIZE records. Each batch is written as
chunks/embeddings_chunk_<offset>.bin and chunks/titles_chunk_<offset>.bin.
Batches whose chunks already exist are skipped, so an interrupted run can be
repeated and only the missing batches are encoded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := corpus.ReadFile(a.corpusInput())
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			return a.embed(cmd, store, records)
		},
	}
	cmd.Flags().StringVarP(&a.corpusIn, "input", "i", "", "corpus file (default CORPUS_OUTPUT_PATH)")
	return cmd
}

func newMergeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Merge chunk artifacts into embeddings.bin and ids.bin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			return a.merge(cmd, store)
		},
	}
}

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build index.bin from embeddings.bin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			return a.index(cmd, store)
		},
	}
}

func newBuildCmd(a *app) *cobra.Command {
	var fromCorpus string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run corpus, embed, merge and index in order",
		Long: `Runs every stage. With --from-corpus the corpus stage is skipped and the
given corpus file is embedded instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var records []corpus.Record
			var err error
			if fromCorpus != "" {
				records, err = corpus.ReadFile(fromCorpus)
			} else {
				records, err = a.buildCorpus(cmd)
			}
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := a.embed(cmd, store, records); err != nil {
				return err
			}
			if err := a.merge(cmd, store); err != nil {
				return err
			}
			return a.index(cmd, store)
		},
	}
	cmd.Flags().StringVar(&fromCorpus, "from-corpus", "", "existing corpus file; skips the corpus stage")
	return cmd
}

func (a *app) corpusInput() string {
	if a.corpusIn != "" {
		return a.corpusIn
	}
	return a.cfg.Corpus.OutputPath
}

func (a *app) buildCorpus(cmd *cobra.Command) ([]corpus.Record, error) {
	out := a.cfg.Corpus.OutputPath
	if a.corpusOut != "" {
		out = a.corpusOut
	}

	b := corpus.NewBuilder(a.cfg.Corpus.Builder())
	records, err := b.Build(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("build corpus: %w", err)
	}
	if err := corpus.WriteFile(out, records); err != nil {
		return nil, err
	}

	st := b.Stats()
	cmd.Printf("corpus: %d records (%d metadata rows, %d duplicates, %d with reviews) -> %s\n",
		st.Records, st.MetadataRows, st.Duplicates, st.WithReviews, out)
	return records, nil
}

func (a *app) embed(cmd *cobra.Command, store artifact.Store, records []corpus.Record) error {
	loader := embedding.NewLoader(a.cfg.Encoder.Embedding())
	report, err := pipeline.NewBatcher(a.cfg.Pipeline.Batcher(), store, loader).Run(cmd.Context(), records)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	cmd.Printf("embed: %d records in %d batches (%d encoded, %d already on disk) in %s\n",
		report.Records, report.Batches, report.Encoded, report.Skipped, report.Duration.Round(time.Millisecond))
	return nil
}

func (a *app) merge(cmd *cobra.Command, store artifact.Store) error {
	es, err := pipeline.NewMerger(store).Merge(cmd.Context())
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	cmd.Printf("merge: %d vectors of dimension %d, model %s, fingerprint %016x\n",
		es.Len(), es.Dimension, es.Model, es.Fingerprint)
	return nil
}

func (a *app) index(cmd *cobra.Command, store artifact.Store) error {
	idx, err := pipeline.NewIndexBuilder(store).Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	cmd.Printf("index: flat L2 index with %d vectors of dimension %d\n", idx.Len(), idx.Dimension())
	return nil
}
