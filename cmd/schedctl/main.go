package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dhima/notification-scheduler/internal/schedule"
	"github.com/dhima/notification-scheduler/internal/storage"
	"github.com/dhima/notification-scheduler/pkg/config"
	"github.com/urfave/cli"
)

var nextFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "pattern, p",
		Usage: "compact date pattern, e.g. \"* * * * 9 0 0 second\"",
	},
	cli.StringFlag{
		Name:  "on",
		Usage: "date pattern as JSON, e.g. '{\"hour\":9,\"minute\":0}'",
	},
	cli.StringFlag{
		Name:  "from, f",
		Usage: "RFC 3339 reference time (default: now)",
	},
	cli.IntFlag{
		Name:  "count, n",
		Value: 5,
		Usage: "number of instants to print",
	},
	cli.StringFlag{
		Name:  "tz",
		Value: "UTC",
		Usage: "timezone the pattern is evaluated in",
	},
}

func newApp(out io.Writer, now func() time.Time) *cli.App {
	app := cli.NewApp()
	app.Name = "schedctl"
	app.HelpName = "schedctl"
	app.Usage = "inspect notification schedules"
	app.UsageText = "schedctl <command> [arguments...]"
	app.Version = "1.0.0"
	app.Writer = out
	app.Commands = []cli.Command{
		{
			Name:   "next",
			Usage:  "prints the upcoming instants of a date pattern",
			Flags:  nextFlags,
			Action: func(c *cli.Context) error { return next(c, now) },
		},
		{
			Name:      "validate",
			Usage:     "parses a schedule document and prints its canonical form",
			ArgsUsage: "<schedule-json>",
			Action:    validate,
		},
		{
			Name:   "pending",
			Usage:  "lists pending schedules from the configured store",
			Action: pending,
		},
	}
	return app
}

func next(c *cli.Context, now func() time.Time) error {
	pattern, err := patternFromFlags(c.String("pattern"), c.String("on"))
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(c.String("tz"))
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.String("tz"), err)
	}

	from := now()
	if raw := c.String("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
	}

	w := c.App.Writer
	fmt.Fprintf(w, "pattern: %s\n", pattern)
	upcoming := pattern.Upcoming(from, loc, c.Int("count"))
	if len(upcoming) == 0 {
		fmt.Fprintln(w, "no future matches")
		return nil
	}
	for _, t := range upcoming {
		fmt.Fprintln(w, t.In(loc).Format(time.RFC3339))
	}
	return nil
}

func patternFromFlags(compact, on string) (schedule.DateMatch, error) {
	switch {
	case compact != "" && on != "":
		return schedule.DateMatch{}, errors.New("use either --pattern or --on")
	case compact != "":
		return schedule.ParseDateMatch(compact)
	case on != "":
		var m schedule.DateMatch
		if err := json.Unmarshal([]byte(on), &m); err != nil {
			return schedule.DateMatch{}, fmt.Errorf("invalid --on: %w", err)
		}
		return m, m.Validate()
	}
	return schedule.DateMatch{}, errors.New("--pattern or --on is required")
}

func validate(c *cli.Context) error {
	raw := strings.TrimSpace(strings.Join(c.Args(), " "))
	if raw == "" {
		return cli.ShowCommandHelp(c, c.Command.Name)
	}
	spec, err := schedule.Parse([]byte(raw))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "ok: %s (repeating=%t)\n", spec, spec.Repeating())
	return nil
}

func pending(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := storage.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	schedules, err := db.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCHEDULE\tNEXT FIRE\tFIRED")
	for _, s := range schedules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.ID, s.Spec, s.NextFireAt.Format(time.RFC3339), s.FireCount)
	}
	return tw.Flush()
}

func main() {
	if err := newApp(os.Stdout, time.Now).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "schedctl: %v\n", err)
		os.Exit(1)
	}
}
