package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tagrds/internal/rds"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <query-json-file>",
	Short: "Resolve a disjunction fixture into a fingerprint",
	Long: `Reads a JSON file describing a Disjunction (an array of conjunctions,
each a list of atom nodes with optional related/negated siblings), calls
prepare, and prints the resulting fingerprint.

Example:
  tagrds prepare query.json --rebuild-expired`,
	Args: cobra.ExactArgs(1),
	RunE: runPrepare,
}

func runPrepare(cmd *cobra.Command, args []string) error {
	allPath, _ := cmd.Flags().GetBool("all")
	rebuildExpired := cfg.RebuildExpired
	if cmd.Flags().Changed("rebuild-expired") {
		rebuildExpired, _ = cmd.Flags().GetBool("rebuild-expired")
	}

	var disjunction rds.Disjunction
	if !allPath {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		disjunction, err = rds.ParseDisjunction(data)
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fp, err := coordinator.Prepare(ctx, disjunction, allPath, rebuildExpired)
	if err != nil {
		return fmt.Errorf("prepare failed: %w", err)
	}

	logger.Info("prepared fingerprint", zap.String("fingerprint", fp.String()), zap.Int("conjunctions", len(disjunction)))
	if fp == nil {
		fmt.Println("(no fingerprint - all path)")
		return nil
	}
	fmt.Println(fp.String())
	return nil
}
