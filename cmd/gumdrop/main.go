// Command gumdrop is a headless shell for the gumdrop pixel-art engine.
//
// Usage:
//
//	gumdrop [-config file] render [-dir dir] [-store file] script
//	gumdrop [-config file] view [-dir dir] [project.json]
//	gumdrop projects -store file [list | delete name | clear]
//
// render runs a script of drawing and shell commands, one per line.
// view shows a project in the terminal and accepts editing keys.
// projects manages the auto-save store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pinkpixel/gumdrop"
	"github.com/pinkpixel/gumdrop/config"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	flag.Usage = usage
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gumdrop:", err)
		os.Exit(2)
	}
	gumdrop.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	switch args[0] {
	case "render":
		err = renderCmd(ctx, cfg, args[1:])
	case "view":
		err = viewCmd(ctx, cfg, args[1:])
	case "projects":
		err = projectsCmd(ctx, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "gumdrop:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  gumdrop [-config file] render [-dir dir] [-store file] script
  gumdrop [-config file] view [-dir dir] [project.json]
  gumdrop projects -store file [list | delete name | clear]
`)
	flag.PrintDefaults()
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, err
	}
	return config.Parse(data)
}
