package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/healthid/healthid/internal/domain/healthid"
	"github.com/healthid/healthid/internal/platform/db"
	"github.com/healthid/healthid/migrations"
	hid "github.com/healthid/healthid/pkg/healthid"
)

func migrationFiles(dir string) fs.FS {
	if dir == "" {
		return migrations.Files
	}
	return os.DirFS(dir)
}

func newMigrator(ctx context.Context, dir string) (*db.Migrator, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, errors.New("DATABASE_URL is required for migrations")
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, migrationFiles(dir)), pool.Close, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			m, closeFn, err := newMigrator(cmd.Context(), dir)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := m.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			m, closeFn, err := newMigrator(cmd.Context(), dir)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := m.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printMigrationStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Read migrations from this directory instead of the embedded set")
	cmd.AddCommand(statusCmd)

	return cmd
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// withService runs fn against a service built from configuration, with
// backing services opened and closed around it. Logs go to stderr so that
// stdout carries only command output.
func withService(ctx context.Context, fn func(svc *healthid.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)
	d, err := openDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(newService(cfg, d, nil, logger))
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate Health IDs without storing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, _ := cmd.Flags().GetString("state")
			count, _ := cmd.Flags().GetInt("count")
			skipRemote, _ := cmd.Flags().GetBool("skip-remote")
			checkUnique, _ := cmd.Flags().GetBool("check-unique")
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}

			return withService(cmd.Context(), func(svc *healthid.Service) error {
				var ids []string
				var err error
				if count == 1 {
					var id string
					id, err = svc.Generate(cmd.Context(), state, healthid.Options{SkipRemoteCheck: skipRemote})
					ids = []string{id}
				} else {
					ids, err = svc.GenerateBatch(cmd.Context(), count, state, !skipRemote)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
				if checkUnique {
					return checkIDs(out, ids)
				}
				return nil
			})
		},
	}
	cmd.Flags().String("state", hid.DefaultStateCode, "Two-digit state code")
	cmd.Flags().Int("count", 1, "Number of ids to generate")
	cmd.Flags().Bool("skip-remote", false, "Do not consult the registry for uniqueness")
	cmd.Flags().Bool("check-unique", false, "Fail unless every id is well formed and distinct")
	return cmd
}

// checkIDs is the generator self check: every id must be valid and distinct.
func checkIDs(w io.Writer, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	invalid := 0
	for _, id := range ids {
		if !hid.IsValid(id) {
			invalid++
		}
		seen[id] = struct{}{}
	}
	dups := len(ids) - len(seen)
	fmt.Fprintf(w, "checked %d ids: %d unique, %d duplicate, %d invalid\n", len(ids), len(seen), dups, invalid)
	if dups > 0 || invalid > 0 {
		return fmt.Errorf("self check failed: %d duplicate, %d invalid", dups, invalid)
	}
	return nil
}

func provisionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Pre-provision unassigned Health IDs into the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, _ := cmd.Flags().GetString("state")
			count, _ := cmd.Flags().GetInt("count")
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			return withService(cmd.Context(), func(svc *healthid.Service) error {
				n, err := svc.Provision(cmd.Context(), count, state)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Provisioned %d of %d health id(s).\n", n, count)
				return nil
			})
		},
	}
	cmd.Flags().String("state", hid.DefaultStateCode, "Two-digit state code")
	cmd.Flags().Int("count", healthid.DefaultBatchSize, "Number of ids to provision")
	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <health-id>",
		Short: "Check the format of a Health ID and look it up in the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(svc *healthid.Service) error {
				res := svc.Verify(cmd.Context(), args[0])
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
				if !res.Valid {
					return errors.New(res.Error)
				}
				return nil
			})
		},
	}
}
