package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/statustracker/internal/chart"
	"github.com/hpungsan/statustracker/internal/config"
	"github.com/hpungsan/statustracker/internal/errors"
	"github.com/hpungsan/statustracker/internal/metrics"
	"github.com/hpungsan/statustracker/internal/ops"
	"github.com/hpungsan/statustracker/internal/store"
	"github.com/hpungsan/statustracker/internal/tracker"
	"github.com/hpungsan/statustracker/internal/web"
)

// runtime carries what commands share. src is built from cfg in the app's
// Before hook unless a test has already set it.
type runtime struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	src     ops.Source
	out     io.Writer
	now     func() time.Time
}

func (rt *runtime) stdout() io.Writer {
	if rt.out != nil {
		return rt.out
	}
	return os.Stdout
}

func (rt *runtime) clock() time.Time {
	if rt.now != nil {
		return rt.now()
	}
	return time.Now()
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(rt *runtime) *cli.App {
	app := &cli.App{
		Name:    "statustracker",
		Usage:   "Occupancy history client for a statustracker server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Aliases: []string{"s"}, Usage: "Server base URL (overrides config and " + config.EnvServer + ")"},
		},
		Before: func(c *cli.Context) error {
			if server := c.String("server"); server != "" {
				rt.cfg.ServerURL = server
				if err := rt.cfg.Validate(); err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				rt.src = nil
			}
			if rt.src == nil {
				rt.src = newClient(rt.cfg, rt.metrics)
			}
			return nil
		},
		Commands: []*cli.Command{
			namesCmd(rt),
			uuidCmd(rt),
			countsCmd(rt),
			rollingCmd(rt),
			sessionsCmd(rt),
			chartCmd(rt),
			summaryCmd(rt),
			serveCmd(rt),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// rangeFlags are shared by every command that takes a time range.
func rangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "from", Aliases: []string{"f"}, Usage: "Range start: RFC3339, YYYY-MM-DD, unix seconds or a lookback like 6h (default: 24h before --to)"},
		&cli.StringFlag{Name: "to", Aliases: []string{"t"}, Usage: "Range end (default: now)"},
	}
}

func categoryFlag() cli.Flag {
	return &cli.StringSliceFlag{Name: "category", Aliases: []string{"c"}, Usage: "Restrict output to a category (repeatable)"}
}

func (rt *runtime) resolveRange(c *cli.Context) (time.Time, time.Time, error) {
	return ops.ResolveRange(c.String("from"), c.String("to"), rt.clock())
}

func (rt *runtime) categories(c *cli.Context) []string {
	if cats := c.StringSlice("category"); len(cats) > 0 {
		return cats
	}
	return rt.cfg.Categories
}

// namesCmd creates the names command.
func namesCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "names",
		Usage: "List tracked entity UUIDs with their name map index",
		Action: func(c *cli.Context) error {
			output, err := ops.ListNames(c.Context, rt.src, ops.NamesInput{})
			if err != nil {
				return outputError(err)
			}
			return rt.outputJSON(output)
		},
	}
}

// uuidCmd creates the uuid command.
func uuidCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "uuid",
		Usage:     "Resolve a player name to its UUID",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			output, err := ops.LookupUUID(c.Context, rt.src, ops.UUIDInput{Name: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return rt.outputJSON(output)
		},
	}
}

// countsCmd creates the counts command.
func countsCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "counts",
		Usage: "Reconstruct per-minute occupancy for a range",
		Flags: append(rangeFlags(),
			categoryFlag(),
			&cli.StringSliceFlag{Name: "smooth", Usage: "Add a client-side smoothing window, e.g. 60 or \"1 day\" (repeatable)"},
		),
		Action: func(c *cli.Context) error {
			from, to, err := rt.resolveRange(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Counts(c.Context, rt.src, ops.CountsInput{
				From:       from,
				To:         to,
				Categories: rt.categories(c),
				Smoothing:  c.StringSlice("smooth"),
				MaxRange:   rt.cfg.MaxRangeMinutes,
			})
			if err != nil {
				return outputError(err)
			}
			return rt.outputJSON(output)
		},
	}
}

// rollingCmd creates the rolling command.
func rollingCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "rolling",
		Usage: "Fetch server-side rolling averages for one or more windows",
		Flags: append(rangeFlags(),
			categoryFlag(),
			&cli.StringSliceFlag{Name: "window", Aliases: []string{"w"}, Usage: "Window in minutes or as a label (repeatable, default from config)"},
		),
		Action: func(c *cli.Context) error {
			from, to, err := rt.resolveRange(c)
			if err != nil {
				return outputError(err)
			}
			windows := c.StringSlice("window")
			if len(windows) == 0 {
				for _, w := range rt.cfg.DefaultWindows {
					windows = append(windows, strconv.FormatUint(w, 10))
				}
			}
			output, err := ops.RollingCounts(c.Context, rt.src, ops.RollingInput{
				From:       from,
				To:         to,
				Windows:    windows,
				Categories: rt.categories(c),
				MaxRange:   rt.cfg.MaxRangeMinutes,
			})
			if err != nil {
				return outputError(err)
			}
			return rt.outputJSON(output)
		},
	}
}

// sessionsCmd creates the sessions command.
func sessionsCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "sessions",
		Usage:     "List the intervals a player was online",
		ArgsUsage: "<name>",
		Flags: append(rangeFlags(),
			&cli.BoolFlag{Name: "server-side", Usage: "Let the server compute the intervals"},
		),
		Action: func(c *cli.Context) error {
			from, to, err := rt.resolveRange(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.PlayerSessions(c.Context, rt.src, ops.SessionsInput{
				Name:       c.Args().First(),
				From:       from,
				To:         to,
				ServerSide: c.Bool("server-side"),
				MaxRange:   rt.cfg.MaxRangeMinutes,
			})
			if err != nil {
				return outputError(err)
			}
			return rt.outputJSON(output)
		},
	}
}

// summaryCmd creates the summary command.
func summaryCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "Summarize occupancy per category over a range",
		Flags: append(rangeFlags(),
			categoryFlag(),
			&cli.BoolFlag{Name: "markdown", Aliases: []string{"m"}, Usage: "Print the markdown table instead of JSON"},
		),
		Action: func(c *cli.Context) error {
			from, to, err := rt.resolveRange(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Summary(c.Context, rt.src, ops.SummaryInput{
				From:       from,
				To:         to,
				Categories: rt.categories(c),
				MaxRange:   rt.cfg.MaxRangeMinutes,
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("markdown") {
				_, err := fmt.Fprintln(rt.stdout(), output.Markdown)
				return err
			}
			return rt.outputJSON(output)
		},
	}
}

// chartCmd creates the chart command.
func chartCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "Render occupancy (or a player's sessions) to a PNG or SVG file",
		Flags: append(rangeFlags(),
			categoryFlag(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "Output file, or - for stdout"},
			&cli.StringFlag{Name: "format", Usage: "png or svg (default: from the output extension, else png)"},
			&cli.StringFlag{Name: "window", Aliases: []string{"w"}, Usage: "Plot a smoothed window instead of the raw series"},
			&cli.StringFlag{Name: "player", Aliases: []string{"p"}, Usage: "Plot this player's sessions instead of counts"},
			&cli.IntFlag{Name: "width", Usage: "Image width in pixels"},
			&cli.IntFlag{Name: "height", Usage: "Image height in pixels"},
			&cli.StringFlag{Name: "title", Usage: "Chart title"},
		),
		Action: func(c *cli.Context) error {
			from, to, err := rt.resolveRange(c)
			if err != nil {
				return outputError(err)
			}
			output := c.String("output")
			format, err := chart.ParseFormat(chartFormat(c.String("format"), output))
			if err != nil {
				return outputError(err)
			}
			opts := chart.Options{Width: c.Int("width"), Height: c.Int("height"), Title: c.String("title")}

			w, closeFn, err := rt.openOutput(output)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer closeFn()

			if player := c.String("player"); player != "" {
				sessions, err := ops.PlayerSessions(c.Context, rt.src, ops.SessionsInput{
					Name:     player,
					From:     from,
					To:       to,
					MaxRange: rt.cfg.MaxRangeMinutes,
				})
				if err != nil {
					return outputError(err)
				}
				if sessions.Diagnostic != nil {
					return outputError(sessions.Diagnostic)
				}
				return outputError(chart.Sessions(w, player, sessions.Intervals, sessions.Range.From, sessions.Range.To, format, opts))
			}

			input := ops.CountsInput{
				From:       from,
				To:         to,
				Categories: rt.categories(c),
				MaxRange:   rt.cfg.MaxRangeMinutes,
			}
			window := tracker.Raw
			if s := c.String("window"); s != "" {
				if window, err = tracker.ParseRollingAverage(s); err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.Smoothing = []string{s}
			}
			counts, err := ops.Counts(c.Context, rt.src, input)
			if err != nil {
				return outputError(err)
			}
			return outputError(chart.Counts(w, counts.Series, window, format, opts))
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the read-only web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(web.Deps{
				Source:  rt.src,
				Store:   store.New(),
				Config:  rt.cfg,
				Metrics: rt.metrics,
			}, Version, c.String("bind"), c.Int("port"))
			if err := web.Run(srv); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// chartFormat picks the explicit format or falls back to the file extension.
func chartFormat(explicit, output string) string {
	if explicit != "" {
		return explicit
	}
	if ext := strings.TrimPrefix(filepath.Ext(output), "."); strings.EqualFold(ext, "svg") {
		return ext
	}
	return ""
}

// openOutput returns stdout for "-" and a created file otherwise.
func (rt *runtime) openOutput(path string) (io.Writer, func(), error) {
	if path == "-" {
		return rt.stdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// outputJSON writes v as indented JSON to stdout.
func (rt *runtime) outputJSON(v any) error {
	enc := json.NewEncoder(rt.stdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI. A nil error passes through.
func outputError(err error) error {
	if err == nil {
		return nil
	}
	if tErr, ok := err.(*errors.TrackerError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
