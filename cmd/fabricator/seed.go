package main

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/fabricator/internal/config"
	"github.com/Harshitk-cp/fabricator/internal/rulefile"
	"github.com/Harshitk-cp/fabricator/internal/service"
	"github.com/Harshitk-cp/fabricator/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a YAML rule pack into a new belief system",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "path to the rule pack (required)")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command) error {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		return err
	}
	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	pack, err := rulefile.Load(seedFile)
	if err != nil {
		return err
	}
	strategy, err := pack.ParsedStrategy()
	if err != nil {
		return err
	}
	rules, err := pack.CompileRules()
	if err != nil {
		return err
	}
	statements, err := pack.CompileStatements()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	svc := service.NewFabricator(store.NewPostgres(pool), logger, config.TensionHopLimit())

	id, err := svc.CreateBeliefSystem(ctx, pack.Name, strategy)
	if err != nil {
		return err
	}
	if err := svc.AddRules(ctx, id, rules); err != nil {
		return err
	}

	if len(statements) > 0 {
		res, err := svc.Simulate(ctx, id, statements)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %s: %d rules, %d statements, %d derived\n",
			id, len(rules), len(statements), len(res.DerivedFacts))
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %s: %d rules\n", id, len(rules))
	return nil
}
