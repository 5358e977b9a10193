// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/folio/internal/catalog"
	"github.com/tomtom215/folio/internal/embedding"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/recommend"
)

func newRecommendCmd(a *app) *cobra.Command {
	var (
		k       int
		similar string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "recommend [preference...]",
		Short: "Run one recommendation query against local artifacts",
		Long: `Loads the artifacts and the catalog, then prints the books closest to the
given preferences. Terms shorter than three characters are ignored. With
--similar, the books closest to an indexed title are printed instead.`,
		Example: `  folio recommend "space opera" "political intrigue" -k 5
  folio recommend --similar "dune"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if similar == "" && len(args) == 0 {
				return errors.New("give at least one preference or --similar")
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			svc, err := recommend.NewService(
				a.cfg.Recommend.Service(),
				embedding.NewLoader(a.cfg.Encoder.Embedding()),
				store,
				catalog.FileSource{Path: a.cfg.Catalog.Path},
				logging.WithComponent("cli"),
			)
			if err != nil {
				return err
			}

			var resp *recommend.Response
			if similar != "" {
				resp, err = svc.SimilarTo(cmd.Context(), similar, k)
			} else {
				resp, err = svc.Recommend(cmd.Context(), recommend.Request{Preferences: args, K: k})
			}
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(resp, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal response: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}
			printRecommendations(cmd, resp)
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 0, "number of books (default from RECOMMEND_DEFAULT_K)")
	cmd.Flags().StringVar(&similar, "similar", "", "recommend books similar to this indexed title")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printRecommendations(cmd *cobra.Command, resp *recommend.Response) {
	if len(resp.Books) == 0 {
		cmd.Println("No recommendations found.")
		return
	}

	cmd.Printf("Query: %s\n\n", resp.Metadata.Query)
	for _, rb := range resp.Books {
		cmd.Printf("  [%d] %s (%.4f)\n", rb.Rank, rb.Book.Title, rb.Distance)
		if rb.Book.Authors != "" {
			cmd.Printf("      by %s\n", rb.Book.Authors)
		}
	}
	if resp.Metadata.Dropped > 0 {
		cmd.Printf("\n%d result(s) had no catalog entry and were skipped.\n", resp.Metadata.Dropped)
	}
}
