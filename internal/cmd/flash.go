package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moffa90/go-fastboot/archive"
	"github.com/moffa90/go-fastboot/fastboot"
	"github.com/moffa90/go-fastboot/flasher"
	"github.com/moffa90/go-fastboot/internal/configpaths"
	"github.com/moffa90/go-fastboot/internal/log"
	"github.com/moffa90/go-fastboot/journal"
	"github.com/moffa90/go-fastboot/manifest"
	"github.com/moffa90/go-fastboot/storage"
)

var errAborted = errors.New("aborted")

// FlashAll flashes a factory image through the flash-all.sh it contains.
type FlashAll struct {
	Image string `arg:"" help:"Factory image zip, a local path or s3://bucket/key"`
	Yes   bool   `short:"y" help:"Do not ask for confirmation"`
}

// Run is called by kong when flash-all is executed.
func (c *FlashAll) Run(g *Globals, logger *slog.Logger, raw log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return g.flash(ctx, logger, raw, flashJob{image: c.Image, yes: c.Yes})
}

// RunScript runs a script written in the flash-all.sh dialect.
type RunScript struct {
	Script string `arg:"" type:"existingfile" help:"Script to run"`
	Image  string `required:"" help:"Archive holding the files the script names, a local path or s3://bucket/key"`
	Yes    bool   `short:"y" help:"Do not ask for confirmation"`
}

// Run is called by kong when run is executed.
func (c *RunScript) Run(g *Globals, logger *slog.Logger, raw log.RawLogger) error {
	text, err := os.ReadFile(c.Script)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return g.flash(ctx, logger, raw, flashJob{image: c.Image, script: string(text), yes: c.Yes})
}

type flashJob struct {
	image string

	// script replaces the archive's flash-all.sh when set
	script string

	yes bool
}

func (g *Globals) flash(ctx context.Context, logger *slog.Logger, raw log.RawLogger, job flashJob) (err error) {
	resolver := storage.New(storage.WithRegion(g.S3.Region), storage.WithLogger(logger))
	obj, err := resolver.Resolve(ctx, job.image, g.WorkDir)
	if err != nil {
		return err
	}
	logger.Info("image resolved", "path", obj.Path, "size", obj.Size, "sha256", obj.SHA256)

	a, err := archive.OpenFile(obj.Path)
	if err != nil {
		return err
	}
	defer a.Close()

	conn, err := g.connect(ctx, logger, raw)
	if err != nil {
		return err
	}
	defer conn.Close()

	serial := conn.binding.Serial()
	if !job.yes {
		if !g.interactive() {
			return errors.New("standard input is not a terminal, pass --yes to flash without confirmation")
		}
		ok, err := confirm(g.stdin(), g.stdout(), fmt.Sprintf("Flash %s to %s?", job.image, serial))
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	clientOpts := []fastboot.Option{
		fastboot.WithLogger(logger),
		fastboot.WithProgressCallback(progressPrinter(g.stdout())),
	}

	if path := g.journalPath(); path != "" {
		j, runID, startErr := startRun(ctx, path, job.image, serial, logger)
		if startErr != nil {
			return startErr
		}
		defer j.Close()
		defer func() {
			if finishErr := j.FinishRun(context.WithoutCancel(ctx), runID, err); finishErr != nil {
				logger.Error("journal finish failed", "run_id", runID, "error", finishErr)
			}
		}()
		clientOpts = append(clientOpts, fastboot.WithSessionHook(j.Hook(context.WithoutCancel(ctx), runID)))
	}

	client := fastboot.New(conn.binding, clientOpts...)

	flasherOpts := []flasher.Option{
		flasher.WithLogger(logger),
		flasher.WithUpdateInstaller(manifest.New(client, logger)),
		flasher.WithStepCallback(func(s flasher.Step) {
			logger.Info("step", "index", s.Index, "total", s.Total, "instruction", s.Instruction.String())
		}),
	}
	if g.deps.sleeper != nil {
		flasherOpts = append(flasherOpts, flasher.WithSleeper(g.deps.sleeper))
	}
	f := flasher.New(client, flasherOpts...)

	if job.script != "" {
		err = f.Run(ctx, job.script, a)
	} else {
		err = f.RunFlashAll(ctx, a)
	}
	if err != nil {
		return err
	}

	logger.Info("flash complete", "serial", serial, "image", job.image)
	return nil
}

func startRun(ctx context.Context, path, source, serial string, logger *slog.Logger) (*journal.Journal, string, error) {
	if err := configpaths.EnsureDir(path); err != nil {
		return nil, "", fmt.Errorf("create journal directory: %w", err)
	}
	j, err := journal.Open(path, journal.WithLogger(logger))
	if err != nil {
		return nil, "", err
	}
	runID, err := j.StartRun(ctx, source, serial)
	if err != nil {
		j.Close()
		return nil, "", err
	}
	return j, runID, nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// progressPrinter renders download progress on one updating line.
func progressPrinter(out io.Writer) fastboot.ProgressCallback {
	return func(p fastboot.Progress) {
		name := p.Partition
		if name == "" {
			name = "data"
		}
		switch p.Phase {
		case fastboot.PhaseComplete:
			fmt.Fprintf(out, "\r%-24s done (%d bytes in %s)\n", name, p.TotalBytes, p.ElapsedTime.Round(time.Millisecond))
		default:
			fmt.Fprintf(out, "\r%-24s %-11s %5.1f%%", name, p.Phase, p.Percentage)
		}
	}
}
