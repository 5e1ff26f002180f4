// Package main runs the legacy-organization to workspace migration. It is a
// dry run unless -execute is passed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/reflectus-app/backend/config"
	"github.com/reflectus-app/backend/internal/backfill"
	"github.com/reflectus-app/backend/pkg/database"
)

func main() {
	execute := flag.Bool("execute", false, "apply changes (default is a dry run)")
	flag.Parse()

	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	runner := backfill.NewRunner(backfill.NewPGStore(pool), *execute, logger)
	report, err := runner.Run(ctx)
	if err != nil {
		printReport(report)
		logger.Fatal("backfill aborted", zap.Error(err))
	}

	printReport(report)
	if !*execute {
		fmt.Println("\ndry run: no changes were written; re-run with -execute to apply")
	}
}

func printReport(r *backfill.Report) {
	if r == nil {
		return
	}
	mode := "execute"
	if r.DryRun {
		mode = "dry-run"
	}
	fmt.Printf("backfill report (%s)\n", mode)
	printStep("workspaces", r.Workspaces)
	printStep("memberships", r.Memberships)
	printStep("groups", r.Groups)
	printStep("activities", r.Activities)
	printStep("responses", r.Responses)
	printStep("exports", r.Exports)
}

func printStep(name string, s backfill.StepResult) {
	fmt.Printf("  %-12s scanned=%d written=%d skipped=%d errors=%d\n",
		name, s.Scanned, s.Written, s.Skipped, len(s.Errors))
	for _, n := range s.Notes {
		fmt.Fprintf(os.Stderr, "    note: %s\n", n)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(os.Stderr, "    error: %s\n", e)
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
