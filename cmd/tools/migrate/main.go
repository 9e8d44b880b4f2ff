package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"urlindex.local/internal/platform/config"
	"urlindex.local/internal/platform/db"
	"urlindex.local/internal/platform/migrate"
)

// 手动执行 / 查看数据库迁移，和 api 的 AUTO_MIGRATE 共用一套逻辑。
func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	var dir string
	var timeout time.Duration

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply or inspect SQL migrations (DB_DSN from env / .env)",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", cfg.MigrationsDir, "migrations directory")
	root.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout")

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			pool, err := db.New(ctx, cfg.DBDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			res, err := migrate.Up(ctx, pool, migrate.Options{Dir: dir})
			if res != nil {
				for _, f := range res.AppliedFiles {
					fmt.Fprintf(cmd.OutOrStdout(), "applied  %s\n", f)
				}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d applied, %d already up to date (%s)\n", len(res.AppliedFiles), len(res.SkippedFiles), res.Dir)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			pool, err := db.New(ctx, cfg.DBDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			st, err := migrate.Check(ctx, pool, migrate.Options{Dir: dir})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range st.Done {
				fmt.Fprintf(out, "done     %s\n", f)
			}
			for _, f := range st.Pending {
				fmt.Fprintf(out, "pending  %s\n", f)
			}
			return nil
		},
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
