// Command clipbook converts text, Markdown, HTML, RTF, URLs, and images into
// EPUB files. The shell integration (clipboard capture, hotkeys, tray) feeds
// this binary either through single-shot commands or through the stateful MCP
// server exposed by `clipbook mcp`.
package main

import (
	"fmt"
	"log/slog"
	"os"
)

var version = "0.3.0"

func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	// Results go to stdout; logs stay on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	app := newCLIApp(logger)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
