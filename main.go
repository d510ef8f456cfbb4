// Package main provides the spot-analyser command: it loads a project and
// an analysis configuration, runs the pipeline over every saved region and
// writes the results database and report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"spot-analyser/internal/analysis"
	"spot-analyser/internal/config"
	"spot-analyser/internal/logger"
	"spot-analyser/internal/project"
	"spot-analyser/internal/report"
	"spot-analyser/internal/store"
	"spot-analyser/internal/version"
)

const appName = "spot-analyser"

func main() {
	projectPath := flag.String("project", "", "Path to project file ("+project.Extension+")")
	configPath := flag.String("config", "", "Analysis configuration (.json); overrides the project's")
	dbPath := flag.String("db", "", "Results database; defaults to <project>_results.db")
	reportDir := flag.String("report", "", "Report directory; defaults to <project>_report")
	noReport := flag.Bool("no-report", false, "Skip CSV tables and charts")
	workers := flag.Int("workers", -1, "Worker count; overrides the configuration when >= 0")
	seed := flag.Int64("seed", 0, "Base seed; overrides the configuration when non-zero")
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "info"), "Log level: debug, info, warn or error")
	logJSON := flag.Bool("log-json", false, "Write JSON log lines instead of console output")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String(appName))
		return
	}
	if *projectPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -project <file%s> [-config cfg.json] [-db results.db] [-report dir]\n", appName, project.Extension)
		os.Exit(2)
	}

	var log *logger.ZerologAdapter
	if *logJSON {
		log = logger.NewZerolog(os.Stderr, logger.ParseLevel(*logLevel))
	} else {
		log = logger.NewConsoleLogger(logger.ParseLevel(*logLevel))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := runOptions{
		projectPath: *projectPath,
		configPath:  *configPath,
		dbPath:      *dbPath,
		reportDir:   *reportDir,
		noReport:    *noReport,
		workers:     *workers,
		seed:        *seed,
	}
	if err := run(ctx, opts, log); err != nil {
		log.Error("main", err, nil)
		os.Exit(1)
	}
}

type runOptions struct {
	projectPath string
	configPath  string
	dbPath      string
	reportDir   string
	noReport    bool
	workers     int
	seed        int64
}

func run(ctx context.Context, o runOptions, log logger.Logger) error {
	proj, err := project.Load(o.projectPath)
	if err != nil {
		return err
	}
	if err := proj.Validate(); err != nil {
		return err
	}

	cfg, err := loadConfig(proj, o)
	if err != nil {
		return err
	}

	fields, err := proj.LoadFields(o.projectPath)
	if err != nil {
		return fmt.Errorf("failed to load channel images: %w", err)
	}
	regions, err := proj.BuildRegions(len(fields), fields[0].PixelSize)
	if err != nil {
		return err
	}
	log.Info("main", "project loaded", map[string]interface{}{
		"project":    proj.Name,
		"channels":   len(fields),
		"regions":    len(regions),
		"pixel_size": fields[0].PixelSize,
	})

	dbPath := o.dbPath
	if dbPath == "" {
		dbPath = proj.GetDatabasePath(o.projectPath)
	}
	db, err := store.Open(dbPath, log)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.CreateRun(ctx, "", cfg)
	if err != nil {
		return err
	}

	res, err := analysis.Run(ctx, regions, fields, cfg, analysis.Options{
		RunID:  runID,
		Logger: log,
		OnRegion: func(rr analysis.RegionResult) error {
			return db.SaveRegion(ctx, runID, rr.Region)
		},
	})
	if err != nil {
		return err
	}
	log.Info("main", "results stored", map[string]interface{}{"run": runID, "db": dbPath})

	if o.noReport {
		return nil
	}
	dir := o.reportDir
	if dir == "" {
		dir = proj.GetReportDir(o.projectPath)
	}
	return report.Write(dir, res, log)
}

// loadConfig picks the configuration named on the command line, then the
// project's, then the defaults, and applies the flag overrides.
func loadConfig(proj *project.File, o runOptions) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = proj.GetConfigPath(o.projectPath)
	}
	cfg := config.Defaults()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if o.workers >= 0 {
		cfg.Workers = o.workers
	}
	if o.seed != 0 {
		cfg.Seed = o.seed
	}
	if err := cfg.ValidateChannels(len(proj.Channels)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
