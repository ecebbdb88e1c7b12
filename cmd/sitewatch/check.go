package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sitewatch/sitewatch/internal/config"
	"github.com/sitewatch/sitewatch/internal/domain"
	"github.com/sitewatch/sitewatch/internal/probe"
)

func checkCmd() *cobra.Command {
	var targetsFile string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check all configured targets once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			seeds, err := config.LoadSeedTargets(targetsFile)
			if err != nil {
				return err
			}
			return runChecks(cmd.Context(), cmd.OutOrStdout(), seeds)
		},
	}
	cmd.Flags().StringVar(&targetsFile, "targets", "targets.yaml", "targets file path")
	return cmd
}

func runChecks(ctx context.Context, out io.Writer, seeds []config.SeedTarget) error {
	checker := probe.NewHTTPChecker(probe.DefaultTimeout)
	outcomes := make([]domain.Outcome, len(seeds))

	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			outcomes[i] = checker.Check(ctx, url)
		}(i, seed.URL)
	}
	wg.Wait()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tURL\tSTATUS\tLATENCY")
	allUp := true
	for i, seed := range seeds {
		latency := "—"
		if outcomes[i].Up() {
			latency = fmt.Sprintf("%.0fms", outcomes[i].LatencyMS)
		} else {
			allUp = false
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", seed.Name, seed.URL, outcomes[i].Status, latency)
	}
	w.Flush()

	if !allUp {
		return fmt.Errorf("one or more targets are down")
	}
	return nil
}
