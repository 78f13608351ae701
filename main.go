// Package main provides the entry point for the Printboard application.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"printboard/internal/app"
	"printboard/internal/config"
	"printboard/internal/project"
	"printboard/internal/version"
	"printboard/ui/mainwindow"
	"printboard/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "org.printboard.editor"

func main() {
	appPrefs := prefs.Load()

	configPath := flag.String("config", filepath.Join(appPrefs.Dir(), "config.yaml"), "Path to the YAML config file")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: printboard [-config file] [project%s]\n", project.Extension)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("printboard %s (%s, %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := config.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(log)
	log.Info("starting", "version", version.Version, "config", *configPath)

	editor, err := app.New(cfg, app.WithLogger(log))
	if err != nil {
		log.Error("create editor", "err", err)
		os.Exit(1)
	}

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.Theme{})

	win := mainwindow.New(fyneApp, editor, appPrefs, log)

	// Handle command line arguments
	if flag.NArg() > 0 {
		projectPath := flag.Arg(0)
		if err := win.LoadProject(projectPath); err != nil {
			log.Error("failed to load project", "path", projectPath, "err", err)
		}
	}

	watchConfig(*configPath, editor, log)

	win.ShowAndRun()
}

// watchConfig applies edits to the config file while the editor runs.
func watchConfig(path string, editor *app.Editor, log *slog.Logger) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn("config watch disabled", "err", err)
		return
	}
	w, err := config.Watch(path, log)
	if err != nil {
		log.Warn("config watch disabled", "err", err)
		return
	}
	go func() {
		for {
			select {
			case cfg, ok := <-w.Configs:
				if !ok {
					return
				}
				if err := editor.ApplyConfig(cfg); err != nil {
					log.Warn("config not applied", "err", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("config watch", "err", err)
			}
		}
	}()
}
