// Command inkctl is the operator CLI: it applies SQL migrations and seeds the
// permission graph. The server never mutates either on its own.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"inkwell/internal/iam/graph"
	"inkwell/internal/platform/config"
	"inkwell/internal/platform/postgres"
	"inkwell/internal/platform/redis"
)

func main() {
	cfg := config.FromEnv()

	root := &cobra.Command{
		Use:   "inkctl",
		Short: "Operational tooling for the inkwell backend",
	}

	var migrationsDir string
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations in lexical order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(cmd.Context(), cfg, migrationsDir)
		},
	}
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory containing *.sql migration files")

	var seedFile string
	seedGraphCmd := &cobra.Command{
		Use:   "seed-graph",
		Short: "Load groups, scopes, and allow edges into the permission graph",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return seedGraph(cmd.Context(), cfg, seedFile)
		},
	}
	seedGraphCmd.Flags().StringVar(&seedFile, "file", "seed/iam_graph.yaml", "YAML file describing the static graph")

	root.AddCommand(migrateCmd)
	root.AddCommand(seedGraphCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// migrate applies every *.sql file under dir that is not yet recorded in
// schema_migrations. Each file runs in its own transaction.
func migrate(ctx context.Context, cfg config.Config, dir string) error {
	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		version := strings.TrimSuffix(filepath.Base(file), ".sql")

		var applied bool
		if err := pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`,
			version).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if applied {
			continue
		}

		sql, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", version, err)
		}
		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", version, err)
		}
		fmt.Printf("applied %s\n", version)
	}
	return nil
}

// graphSeed mirrors the seed YAML layout.
type graphSeed struct {
	Groups []string `yaml:"groups"`
	Scopes []string `yaml:"scopes"`
	Allows []struct {
		Group  string `yaml:"group"`
		Scope  string `yaml:"scope"`
		Access string `yaml:"access"`
	} `yaml:"allows"`
}

// seedGraph merges the seed file into the permission graph. Every statement
// is an upsert, so reseeding is safe.
func seedGraph(ctx context.Context, cfg config.Config, file string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed graphSeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	g := graph.NewRedisGraph(rdb.Client, cfg.Redis.GraphName)
	for _, name := range seed.Groups {
		if err := g.EnsureGroup(ctx, name); err != nil {
			return fmt.Errorf("ensure group %q: %w", name, err)
		}
	}
	for _, name := range seed.Scopes {
		if err := g.EnsureScope(ctx, name); err != nil {
			return fmt.Errorf("ensure scope %q: %w", name, err)
		}
	}
	for _, allow := range seed.Allows {
		if err := g.EnsureAllow(ctx, allow.Group, allow.Scope, allow.Access); err != nil {
			return fmt.Errorf("ensure allow %s-%s:%s: %w", allow.Group, allow.Scope, allow.Access, err)
		}
	}
	fmt.Printf("seeded %d groups, %d scopes, %d allows\n", len(seed.Groups), len(seed.Scopes), len(seed.Allows))
	return nil
}
