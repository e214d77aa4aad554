package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v2"

	"clipbook/clip"
	"clipbook/convert"
	"clipbook/document"
	"clipbook/store"
)

func newCLIApp(logger *slog.Logger) *cli.App {
	return &cli.App{
		Name:    "clipbook",
		Usage:   "Convert clipboard content into EPUB books",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Config file path (YAML)"},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Output directory for books"},
			&cli.StringFlag{Name: "style", Usage: "Style template: default|minimal|modern"},
			&cli.IntFlag{Name: "chapter-words", Value: -1, Usage: "Chapter split threshold (0 = no splitting)"},
		},
		Commands: []*cli.Command{
			convertCmd(logger),
			historyCmd(logger),
			clearCacheCmd(logger),
			mcpCmd(logger),
		},
	}
}

// loadConfig resolves the effective configuration: file, then flag overrides.
func loadConfig(c *cli.Context) (convert.Config, error) {
	path := c.String("config")
	if path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, "clipbook", "config.yaml")
		}
	}
	cfg, err := convert.LoadConfig(path)
	if err != nil {
		return cfg, err
	}

	if v := c.String("output-dir"); v != "" {
		cfg.OutputDir = v
	}
	if v := c.String("style"); v != "" {
		cfg.StyleTemplate = v
	}
	if v := c.Int("chapter-words"); v >= 0 {
		cfg.ChapterWords = v
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildConverter assembles the converter plus its store. A store that fails
// to open degrades to no cache and no history rather than blocking the
// conversion.
func buildConverter(c *cli.Context, logger *slog.Logger) (*convert.Converter, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			dataDir = filepath.Join(dir, "clipbook")
		}
	}

	var st *store.Store
	closer := func() {}
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			logger.Warn("data dir unavailable, continuing without cache", "error", err)
		} else if st, err = store.Open(filepath.Join(dataDir, "clipbook.db")); err != nil {
			logger.Warn("store unavailable, continuing without cache", "error", err)
			st = nil
		} else {
			closer = func() { st.Close() }
		}
	}

	return convert.New(cfg, convert.Deps{Store: st, Logger: logger}), closer, nil
}

// readPayload builds the payload from --file, --text, or stdin, in that
// order of preference.
func readPayload(c *cli.Context) (clip.Payload, error) {
	if path := c.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return clip.Payload{}, fmt.Errorf("read input: %w", err)
		}
		if c.Bool("image") {
			return clip.NewImage(data), nil
		}
		return clip.Payload{Data: data}, nil
	}
	if text := c.String("text"); text != "" {
		return clip.NewText(text), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return clip.Payload{}, fmt.Errorf("read stdin: %w", err)
	}
	if c.Bool("image") {
		return clip.NewImage(data), nil
	}
	return clip.Payload{Data: data}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func convertCmd(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert input (stdin, --text, or --file) into an EPUB",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Inline content to convert"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Read content from a file"},
			&cli.BoolFlag{Name: "image", Usage: "Treat input as image bytes"},
			&cli.StringFlag{Name: "title", Usage: "Title override"},
			&cli.StringFlag{Name: "author", Usage: "Author override"},
			&cli.StringFlag{Name: "language", Usage: "Language override"},
		},
		Action: func(c *cli.Context) error {
			conv, closer, err := buildConverter(c, logger)
			if err != nil {
				return err
			}
			defer closer()

			payload, err := readPayload(c)
			if err != nil {
				return err
			}

			res, err := conv.Convert(c.Context, payload, document.Overrides{
				Title:    c.String("title"),
				Author:   c.String("author"),
				Language: c.String("language"),
			})
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

func historyCmd(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent conversions, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Max entries"},
		},
		Action: func(c *cli.Context) error {
			conv, closer, err := buildConverter(c, logger)
			if err != nil {
				return err
			}
			defer closer()

			entries, err := conv.History(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			return printJSON(entries)
		},
	}
}

func clearCacheCmd(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "clear-cache",
		Usage: "Remove all conversion cache entries",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			dataDir := cfg.DataDir
			if dataDir == "" {
				dir, err := os.UserConfigDir()
				if err != nil {
					return fmt.Errorf("no data dir: %w", err)
				}
				dataDir = filepath.Join(dir, "clipbook")
			}
			st, err := store.Open(filepath.Join(dataDir, "clipbook.db"))
			if err != nil {
				return err
			}
			defer st.Close()
			return st.ClearCache(c.Context)
		},
	}
}

// mcpCmd serves the conversion tools over stdio. Accumulate/combine state
// lives in the server process, so batching spans tool calls within one
// session.
func mcpCmd(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the conversion tools over MCP stdio",
		Action: func(c *cli.Context) error {
			conv, closer, err := buildConverter(c, logger)
			if err != nil {
				return err
			}
			defer closer()

			srv := mcp.NewServer(&mcp.Implementation{
				Name:    "clipbook",
				Version: version,
			}, nil)
			conv.RegisterMCP(srv)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger.Info("mcp server starting", "transport", "stdio")
			return srv.Run(ctx, &mcp.StdioTransport{})
		},
	}
}
