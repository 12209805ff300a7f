// Package main implements tagrds, the operator CLI for the RDS subsystem.
//
// It is not part of the tag-query dispatcher; it is a debugging and
// operations aid for inspecting and driving a real sqlite-backed catalog
// directly, sitting alongside the library packages it drives.
//
// # File Index
//
//   - main.go             - entry point, rootCmd, global flags, db wiring
//   - cmd_prepare.go      - prepareCmd, runPrepare()
//   - cmd_load.go         - loadCmd, runLoad()
//   - cmd_contains.go     - containsCmd, runContains()
//   - cmd_invalidate.go   - invalidateCmd, runInvalidate()
//   - cmd_watch.go        - watchCmd, runWatch()
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tagrds/internal/rds"
	"tagrds/internal/rdsconfig"
	"tagrds/internal/rdslog"
)

var (
	verbose    bool
	configPath string

	logger *zap.Logger
	cfg    *rdsconfig.Config
	db     *sql.DB

	catalog     *rds.CatalogStore
	builder     *rds.RdsBuilder
	coordinator *rds.Coordinator
	reader      *rds.Reader
	invalidator *rds.Invalidator
)

var rootCmd = &cobra.Command{
	Use:   "tagrds",
	Short: "tagrds - operator CLI for the Resilient Data Set subsystem",
	Long: `tagrds drives a sqlite-backed RDS catalog directly: prepare a
disjunction, load or probe a fingerprint's rows, invalidate stale entries,
or run the optional marker-file watcher in the foreground.

Configuration is read from the path in --config or TAGRDS_CONFIG; a missing
file falls back to sane defaults.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		path := configPath
		if path == "" {
			path = os.Getenv("TAGRDS_CONFIG")
		}
		cfg, err = rdsconfig.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := rdslog.Configure(cfg.LogDir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to configure rds logging: %v\n", err)
		}

		db, err = sql.Open(sqlDriverName, cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("failed to open catalog %s: %w", cfg.CatalogPath, err)
		}

		catalog, err = rds.NewCatalogStore(db)
		if err != nil {
			return fmt.Errorf("failed to open rds schema: %w", err)
		}
		builder = rds.NewRdsBuilder(db, catalog)
		coordinator = rds.NewCoordinator(catalog, builder)
		reader = rds.NewReader(db)
		invalidator = rds.NewInvalidator(catalog)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		if db != nil {
			_ = db.Close()
		}
		rdslog.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (or set TAGRDS_CONFIG)")

	prepareCmd.Flags().Bool("rebuild-expired", false, "Purge and rebuild each subquery's catalog entry, expired or not, before fetching (default from config rebuild_expired)")
	prepareCmd.Flags().Bool("all", false, "Treat this as the no-filter path: prints no fingerprint")

	containsCmd.Flags().Int64("inode", 0, "Constrain the match to this inode (0 means unconstrained)")

	rootCmd.AddCommand(prepareCmd, loadCmd, containsCmd, invalidateCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
