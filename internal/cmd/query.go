package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/moffa90/go-fastboot/fastboot"
	"github.com/moffa90/go-fastboot/internal/log"
	"github.com/moffa90/go-fastboot/journal"
)

// GetVar prints one bootloader variable.
type GetVar struct {
	Name string `arg:"" help:"Variable name, e.g. product or current-slot"`
}

// Run is called by kong when getvar is executed.
func (c *GetVar) Run(g *Globals, logger *slog.Logger, raw log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return g.getVar(ctx, logger, raw, c.Name)
}

func (g *Globals) getVar(ctx context.Context, logger *slog.Logger, raw log.RawLogger, name string) error {
	conn, err := g.connect(ctx, logger, raw)
	if err != nil {
		return err
	}
	defer conn.Close()

	value, err := fastboot.New(conn.binding, fastboot.WithLogger(logger)).GetVar(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "%s: %s\n", name, value)
	return nil
}

// Devices lists the serial numbers of connected fastboot devices.
type Devices struct{}

// Run is called by kong when devices is executed.
func (c *Devices) Run(g *Globals, logger *slog.Logger) error {
	return g.listDevices(context.Background(), logger)
}

func (g *Globals) listDevices(ctx context.Context, logger *slog.Logger) error {
	host, closeHost := g.host(logger)
	defer closeHost()

	devices, err := host.Devices(ctx)
	if err != nil {
		return err
	}

	out := g.stdout()
	for _, d := range devices {
		serial, err := d.Serial()
		if err != nil {
			serial = "?"
			logger.Debug("read serial failed", "error", err)
		}
		fmt.Fprintf(out, "%s\tfastboot\n", serial)
		_ = d.Close()
	}
	return nil
}

// History prints journaled runs, or the sessions of one run.
type History struct {
	Limit int    `help:"Number of runs to show, 0 for all" default:"10"`
	Run   string `help:"Show the sessions of this run id"`
}

// Run is called by kong when history is executed.
func (c *History) Run(g *Globals, logger *slog.Logger) error {
	return g.history(context.Background(), logger, c.Limit, c.Run)
}

func (g *Globals) history(ctx context.Context, logger *slog.Logger, limit int, runID string) error {
	path := g.journalPath()
	if path == "" {
		return fmt.Errorf("journaling is disabled")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	j, err := journal.Open(path, journal.WithLogger(logger))
	if err != nil {
		return err
	}
	defer j.Close()

	w := tabwriter.NewWriter(g.stdout(), 0, 4, 2, ' ', 0)
	defer w.Flush()

	if runID != "" {
		sessions, err := j.Sessions(ctx, runID)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "SEQ\tCOMMAND\tSTATUS\tDURATION\tMESSAGE")
		for _, s := range sessions {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				s.Seq, s.Command, s.Status, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond), s.Message)
		}
		return nil
	}

	runs, err := j.Runs(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "ID\tSTARTED\tSERIAL\tSTATUS\tSOURCE\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Serial, r.Status, r.Source, r.Error)
	}
	return nil
}
