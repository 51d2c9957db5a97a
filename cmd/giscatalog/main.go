package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/gis-catalog/internal/catalog"
	"github.com/zombor/gis-catalog/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("gis-catalog")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "gis-catalog.db", "Database file path")
		rulesPath   = fs.StringLong("rules", "", "Path to a JSON file with custom category rules")
		scanDir     = fs.StringLong("scan-dir", "", "Scan a directory, print records as JSON and exit (no server)")
		noRecursive = fs.BoolLong("no-recursive", "Scan only the immediate directory, not subdirectories")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("GIS_CATALOG"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Build the category rule set
	rules := scanning.DefaultRules()
	if *rulesPath != "" {
		custom, err := scanning.LoadRules(*rulesPath)
		if err != nil {
			slog.Error("Failed to load custom rules", "path", *rulesPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Loaded custom category rules", "path", *rulesPath, "count", len(custom))
		rules = append(rules, custom...)
	}
	ruleSet, err := scanning.NewRuleSet(rules)
	if err != nil {
		slog.Error("Invalid category rules", "error", err)
		os.Exit(1)
	}

	scanner := scanning.NewDefaultScanner()

	// Initialize database
	slog.Info("Initializing database...", "path", *dbPath)
	db, err := catalog.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	service := catalog.NewService(db, scanner, ruleSet)

	// One-shot CLI scan mode
	if *scanDir != "" {
		run, records, err := service.RunScan(*scanDir, !*noRecursive)
		if err != nil {
			slog.Error("Scan failed", "root", *scanDir, "error", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"run": run, "records": records}); err != nil {
			slog.Error("Failed to encode records", "error", err)
			os.Exit(1)
		}
		return
	}

	// Initialize server
	basicAuth := catalog.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := catalog.NewServer(service, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
