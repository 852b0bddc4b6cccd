package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/langroutes/internal/errors"
	"github.com/hpungsan/langroutes/internal/mcp"
	"github.com/hpungsan/langroutes/internal/ops"
	"github.com/hpungsan/langroutes/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(a *app) *cli.App {
	cliApp := &cli.App{
		Name:    "langroutes",
		Usage:   "Countries by spoken language, from REST Countries",
		Version: Version,
		Commands: []*cli.Command{
			listCmd(a),
			topCmd(a),
			showCmd(a),
			exportCmd(a),
			serveCmd(a),
			mcpCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

func langFlag() cli.Flag {
	return &cli.StringFlag{Name: "lang", Aliases: []string{"l"}, Usage: "Language name or code (or first argument)"}
}

// language returns --lang, or the first positional argument.
func language(c *cli.Context) string {
	if lang := c.String("lang"); lang != "" {
		return lang
	}
	return c.Args().First()
}

// listCmd creates the list command.
func listCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List countries speaking a language, sorted by name",
		ArgsUsage: "[language]",
		Flags:     []cli.Flag{langFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, a.src, ops.ListInput{Language: language(c)})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// topCmd creates the top command.
func topCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "top",
		Usage:     "Rank countries speaking a language by population or area",
		ArgsUsage: "[language]",
		Flags: []cli.Flag{
			langFlag(),
			&cli.StringFlag{Name: "field", Aliases: []string{"f"}, Value: "population", Usage: "Ranking field: population|area"},
			&cli.IntFlag{Name: "n", Usage: "How many countries (default: top_n from config)"},
		},
		Action: func(c *cli.Context) error {
			n := a.cfg.TopN
			if c.IsSet("n") {
				n = c.Int("n")
			}

			output, err := ops.Top(c.Context, a.src, ops.TopInput{
				Language: language(c),
				Field:    c.String("field"),
				N:        &n,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// showCmd creates the show command.
func showCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one country's details",
		ArgsUsage: "[language] [country name]",
		Flags: []cli.Flag{
			langFlag(),
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Exact country name (or second argument)"},
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print the markdown card instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			lang, name := c.String("lang"), c.String("name")
			args := c.Args().Slice()
			if lang == "" && len(args) > 0 {
				lang, args = args[0], args[1:]
			}
			if name == "" && len(args) > 0 {
				name = args[0]
			}

			output, err := ops.Detail(c.Context, a.src, ops.DetailInput{Language: lang, Name: name})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("markdown") {
				_, err := io.WriteString(c.App.Writer, output.Markdown)
				return err
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export countries speaking a language to JSONL or xlsx",
		ArgsUsage: "[language]",
		Flags: []cli.Flag{
			langFlag(),
			&cli.StringFlag{Name: "path", Aliases: []string{"o"}, Required: true, Usage: "Destination .jsonl or .xlsx file in ~/.langroutes/exports or an allowed_paths directory"},
			&cli.StringFlag{Name: "format", Usage: "jsonl|xlsx (must match the file extension)"},
			&cli.IntFlag{Name: "top-n", Usage: "Rows on the xlsx ranking sheet (default: top_n from config)"},
		},
		Action: func(c *cli.Context) error {
			topN := a.cfg.TopN
			if c.IsSet("top-n") {
				topN = c.Int("top-n")
			}

			output, err := ops.Export(c.Context, a.src, a.cfg, ops.ExportInput{
				Language: language(c),
				Path:     c.String("path"),
				Format:   c.String("format"),
				TopN:     &topN,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "Listen address (default: web_bind from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (default: web_port from config)"},
		},
		Action: func(c *cli.Context) error {
			bind, port := a.cfg.WebBind, a.cfg.WebPort
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			if c.IsSet("port") {
				port = c.Int("port")
			}

			srv, err := web.NewServer(a.src, a.store, a.cfg, a.logger, Version, bind, port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()
			go a.purgeLoop(ctx, a.cfg.CacheTTL())

			return web.Run(srv, a.logger)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP tools over stdio",
		Action: func(_ *cli.Context) error {
			return mcp.Run(a.src, a.cfg, a.logger, Version)
		},
	}
}

// Helper functions

// outputJSON writes v to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	appErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
}
