package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tagrds/internal/rds"
)

var loadCmd = &cobra.Command{
	Use:   "load <fingerprint>",
	Short: "Print the objectname -> [inode...] map answering a fingerprint",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	fp, err := rds.ParseFingerprint(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results, err := reader.Load(ctx, fp)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	logger.Info("loaded fingerprint", zap.String("fingerprint", fp.String()), zap.Int("objects", len(results)))

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%s:\n", name)
		for _, fh := range results[name] {
			fmt.Printf("  inode=%d\n", fh.Inode)
		}
	}
	return nil
}
