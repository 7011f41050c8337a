package manifest

import (
	"context"
	"fmt"

	"github.com/moffa90/go-fastboot/archive"
)

// Partitions erased by a wipe.
var wipePartitions = []string{"userdata", "metadata"}

// Engine is the set of device operations a manifest can reach.
// *fastboot.Client implements it.
type Engine interface {
	Flash(ctx context.Context, partition string, data []byte, slot string, applyVbmeta bool) error
	Erase(ctx context.Context, partition string) error
	Reboot(ctx context.Context, target string) error
	RebootBootloader(ctx context.Context) error
	RebootFastboot(ctx context.Context) error
	UpdateSuper(ctx context.Context, partition string, metadata []byte, wipe bool) error
}

// Logger is an optional logging interface. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Installer runs manifests against an Engine. It implements
// flasher.UpdateInstaller.
type Installer struct {
	engine Engine
	logger Logger
}

// New creates an Installer. logger may be nil.
func New(engine Engine, logger Logger) *Installer {
	if engine == nil {
		panic("engine cannot be nil")
	}
	return &Installer{engine: engine, logger: logger}
}

// Install parses text and runs its directives with images taken from update.
//
// With wipe set, if-wipe directives run, update-super discards existing
// logical partitions, and userdata and metadata are erased unless the manifest
// erased them already. Those erases happen before a plain reboot so the device
// is still in fastboot mode.
func (i *Installer) Install(ctx context.Context, update *archive.Archive, text string, wipe bool) error {
	m, err := Parse(text)
	if err != nil {
		return err
	}

	erased := make(map[string]bool)
	wipeDone := !wipe

	finishWipe := func() error {
		if wipeDone {
			return nil
		}
		wipeDone = true
		for _, p := range wipePartitions {
			if erased[p] {
				continue
			}
			i.logInfo("wiping", "partition", p)
			if err := i.engine.Erase(ctx, p); err != nil {
				return fmt.Errorf("wipe %s: %w", p, err)
			}
		}
		return nil
	}

	for n, d := range m.Directives {
		if d.IfWipe && !wipe {
			continue
		}

		i.logDebug("manifest step", "step", n+1, "op", d.Op, "partition", d.Partition)

		switch d.Op {
		case OpFlash:
			data, err := readImage(update, d.Image)
			if err != nil {
				return err
			}
			slot := "current"
			if d.SlotOther {
				slot = "other"
			}
			if err := i.engine.Flash(ctx, d.Partition, data, slot, d.ApplyVbmeta); err != nil {
				return err
			}

		case OpErase:
			if err := i.engine.Erase(ctx, d.Partition); err != nil {
				return err
			}
			erased[d.Partition] = true

		case OpUpdateSuper:
			data, err := readImage(update, d.Image)
			if err != nil {
				return err
			}
			if err := i.engine.UpdateSuper(ctx, d.Partition, data, wipe); err != nil {
				return err
			}

		case OpReboot:
			if err := i.reboot(ctx, d.Partition, finishWipe); err != nil {
				return err
			}
		}
	}

	return finishWipe()
}

func (i *Installer) reboot(ctx context.Context, target string, beforeExit func() error) error {
	switch target {
	case "bootloader":
		return i.engine.RebootBootloader(ctx)
	case "fastboot":
		return i.engine.RebootFastboot(ctx)
	case "":
		if err := beforeExit(); err != nil {
			return err
		}
		return i.engine.Reboot(ctx, "")
	default:
		return i.engine.Reboot(ctx, target)
	}
}

func readImage(update *archive.Archive, name string) ([]byte, error) {
	entry, err := update.Find(name)
	if err != nil {
		return nil, err
	}
	return entry.Bytes()
}

func (i *Installer) logDebug(msg string, kv ...interface{}) {
	if i.logger != nil {
		i.logger.Debug(msg, kv...)
	}
}

func (i *Installer) logInfo(msg string, kv ...interface{}) {
	if i.logger != nil {
		i.logger.Info(msg, kv...)
	}
}
