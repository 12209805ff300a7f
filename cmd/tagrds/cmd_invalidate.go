package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tagrds/internal/rds"
)

var invalidateCmd = &cobra.Command{
	Use:   "invalidate <fingerprint>",
	Short: "Mark every rds_id in a fingerprint expired",
	Long: `Flags the listed catalog entries as expired. They are physically
purged and rebuilt the next time prepare is called with --rebuild-expired
for a matching subquery.`,
	Args: cobra.ExactArgs(1),
	RunE: runInvalidate,
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	fp, err := rds.ParseFingerprint(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := invalidator.Invalidate(ctx, fp); err != nil {
		return fmt.Errorf("invalidate failed: %w", err)
	}

	logger.Info("invalidated fingerprint", zap.String("fingerprint", fp.String()))
	fmt.Printf("invalidated %d rds_id(s)\n", len(fp))
	return nil
}
