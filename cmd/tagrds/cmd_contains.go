package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tagrds/internal/rds"
)

var containsCmd = &cobra.Command{
	Use:   "contains <objectname> <fingerprint>",
	Short: "Test whether objectname resolves within a fingerprint",
	Long: `Prints the matching inode, or "not found" when no row matches.
Pass --inode to constrain the match to a known inode.`,
	Args: cobra.ExactArgs(2),
	RunE: runContains,
}

func runContains(cmd *cobra.Command, args []string) error {
	objectname := args[0]
	fp, err := rds.ParseFingerprint(args[1])
	if err != nil {
		return err
	}

	var inode *int64
	if v, _ := cmd.Flags().GetInt64("inode"); v != 0 {
		inode = &v
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got, ok, err := reader.Contains(ctx, fp, objectname, inode)
	if err != nil {
		return fmt.Errorf("contains failed: %w", err)
	}

	logger.Info("contains check", zap.String("objectname", objectname), zap.String("fingerprint", fp.String()), zap.Bool("found", ok))

	if !ok {
		fmt.Println("not found")
		return nil
	}
	fmt.Printf("inode=%d\n", got)
	return nil
}
