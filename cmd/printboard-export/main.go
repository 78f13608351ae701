// Command printboard-export renders a saved board, or a board built from
// image files, to PNG or PDF without opening a window.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"printboard/internal/app"
	"printboard/internal/config"
	"printboard/internal/export"
)

func main() {
	projectPath := flag.String("project", "", "Saved board to render")
	outPath := flag.String("o", "board.png", "Output file ("+strings.Join(export.Formats(), ", ")+")")
	configPath := flag.String("config", "", "Path to the YAML config file")
	paper := flag.String("paper", "", "Paper for a board built from images (a4, letter, ...)")
	orientation := flag.String("orientation", config.Portrait, "portrait or landscape")
	scale := flag.Float64("scale", 0, "Output pixels per board unit (default from config)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: printboard-export [-project file] [-o out.png|out.pdf] [image ...]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *projectPath == "" && flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *scale > 0 {
		cfg.Export.Scale = *scale
	}
	log, err := config.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	editor, err := app.New(cfg, app.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create editor: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, editor, *projectPath, *paper, *orientation, flag.Args(), *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, editor *app.Editor, projectPath, paper, orientation string, images []string, outPath string) error {
	if projectPath != "" {
		if err := editor.OpenProject(projectPath); err != nil {
			return fmt.Errorf("open project: %w", err)
		}
	}
	if paper != "" {
		if err := editor.SetPaper(paper, orientation); err != nil {
			return err
		}
	}

	for _, path := range images {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		id, err := editor.Ingest(ctx, data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		o, _ := editor.Object(id)
		fmt.Printf("Placed %s: %.0fx%.0f at (%.0f,%.0f)\n", path, o.Width, o.Height, o.X, o.Y)
	}

	page, err := editor.Render(ctx)
	if err != nil {
		return err
	}
	if err := export.WriteFile(ctx, outPath, page); err != nil {
		return err
	}

	b := page.Image.Bounds()
	fmt.Printf("Wrote %s: %dx%d pixels, %.0fx%.0f mm, %d objects\n",
		outPath, b.Dx(), b.Dy(), page.WidthMM, page.HeightMM, len(editor.Objects()))
	return nil
}
