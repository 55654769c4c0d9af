package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fablecraft/backend/internal/application/export"
	"github.com/fablecraft/backend/internal/infrastructure/config"
	"github.com/fablecraft/backend/internal/infrastructure/logger"
	"github.com/fablecraft/backend/internal/infrastructure/persistence"
	"github.com/fablecraft/backend/internal/infrastructure/render"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	gormlogger "gorm.io/gorm/logger"
)

var exportFlags struct {
	owner   string
	project string
	format  string
	out     string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a project with all of its entries",
	Example: `  fablectl export --owner 6f1c... --project 9a2e... --format markdown
  fablectl export --owner 6f1c... --project 9a2e... --format pdf --out ./exports`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.owner, "owner", "", "Owner user ID (required)")
	f.StringVar(&exportFlags.project, "project", "", "Project ID (required)")
	f.StringVar(&exportFlags.format, "format", "json", "json, yaml, markdown or pdf")
	f.StringVar(&exportFlags.out, "out", "", "Output file or directory; '-' writes to stdout (default: file named after the project)")

	_ = exportCmd.MarkFlagRequired("owner")
	_ = exportCmd.MarkFlagRequired("project")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ownerID, err := uuid.Parse(exportFlags.owner)
	if err != nil {
		return fmt.Errorf("invalid --owner: %w", err)
	}
	projectID, err := uuid.Parse(exportFlags.project)
	if err != nil {
		return fmt.Errorf("invalid --project: %w", err)
	}
	format, err := export.ParseFormat(exportFlags.format)
	if err != nil {
		return err
	}

	cfg, err := config.LoadFrom(rootFlags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(&logger.Config{
		Level:      "warn",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync(log) }()

	db, err := persistence.NewDatabase(&cfg.Database, log, gormlogger.Warn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	projects := persistence.NewGormProjectRepository(db.DB)
	registry := persistence.NewWorldBibleRegistry(db.DB, projects, nil, nil, log)

	var renderer export.Renderer
	if format == export.FormatPDF {
		chrome := render.NewChromeRenderer(cfg.Render, log)
		defer func() { _ = chrome.Close() }()
		renderer = chrome
	}

	result, err := export.NewService(projects, registry, renderer, log).Export(cmd.Context(), ownerID, projectID, format)
	if err != nil {
		return err
	}
	return writeExport(cmd, result, exportFlags.out)
}

// writeExport puts the body on stdout, into a directory or at a path
func writeExport(cmd *cobra.Command, result *export.Result, out string) error {
	if out == "-" {
		_, err := cmd.OutOrStdout().Write(result.Body)
		return err
	}

	path := result.Filename
	if out != "" {
		path = out
		if info, err := os.Stat(out); err == nil && info.IsDir() {
			path = filepath.Join(out, result.Filename)
		}
	}
	if err := os.WriteFile(path, result.Body, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(result.Body))
	return nil
}
