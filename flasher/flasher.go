package flasher

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/moffa90/go-fastboot/archive"
	"github.com/moffa90/go-fastboot/script"
)

// Names looked up inside factory and update archives.
const (
	FlashAllScript = "flash-all.sh"
	UpdateManifest = "fastboot-info.txt"
)

// Engine is the set of device operations a script can reach.
// *fastboot.Client implements it.
type Engine interface {
	Flash(ctx context.Context, partition string, data []byte, slot string, applyVbmeta bool) error
	Erase(ctx context.Context, partition string) error
	GetVar(ctx context.Context, name string) (string, error)
	SetActive(ctx context.Context, slot string) error
	SetActiveOther(ctx context.Context) error
	RebootBootloader(ctx context.Context) error
	Reboot(ctx context.Context, target string) error
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// Flasher executes parsed scripts against an Engine.
type Flasher struct {
	engine Engine
	config Config
}

// New creates a Flasher driving engine.
func New(engine Engine, opts ...Option) *Flasher {
	if engine == nil {
		panic("engine cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Flasher{
		engine: engine,
		config: cfg,
	}
}

// RunFlashAll runs the flash-all.sh script found in a factory image.
func (f *Flasher) RunFlashAll(ctx context.Context, a *archive.Archive) error {
	entry, err := a.Find(FlashAllScript)
	if err != nil {
		return err
	}

	text, err := entry.Text()
	if err != nil {
		return fmt.Errorf("read %s: %w", entry.Name, err)
	}

	f.logDebug("loaded flash-all script", "entry", entry.Name)
	return f.Run(ctx, script.FilterFlashAll(text), a)
}

// Run parses text and executes every instruction in order, resolving image
// names against a. A parse error stops the run before anything is sent.
func (f *Flasher) Run(ctx context.Context, text string, a *archive.Archive) error {
	files := indexFiles(a)

	instructions, err := script.ParseInstructions(text)
	if err != nil {
		return fmt.Errorf("parse script: %w", err)
	}

	f.logInfo("running script", "instructions", len(instructions), "files", len(files))
	startTime := time.Now()

	for i, in := range instructions {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		if len(in.Ignored) > 0 {
			f.logInfo("ignoring unknown options", "instruction", in.String(), "options", strings.Join(in.Ignored, " "))
		}
		f.logInfo("dispatch", "step", i+1, "total", len(instructions), "instruction", in.String())
		if f.config.StepCallback != nil {
			f.config.StepCallback(Step{Index: i + 1, Total: len(instructions), Instruction: in})
		}

		if err := f.dispatch(ctx, in, files); err != nil {
			f.logError("instruction failed", "step", i+1, "instruction", in.String(), "error", err)
			return fmt.Errorf("step %d (%s): %w", i+1, in, err)
		}
	}

	f.logInfo("script complete",
		"instructions", len(instructions),
		"elapsed", time.Since(startTime).String(),
	)
	return nil
}

// indexFiles maps basenames to file entries. The first entry with a given
// basename wins.
func indexFiles(a *archive.Archive) map[string]*archive.Entry {
	files := make(map[string]*archive.Entry)
	for _, e := range a.Entries() {
		if e.Dir {
			continue
		}
		if _, ok := files[e.Base()]; !ok {
			files[e.Base()] = e
		}
	}
	return files
}

func (f *Flasher) dispatch(ctx context.Context, in script.Instruction, files map[string]*archive.Entry) error {
	switch in.Command {
	case script.CmdFlash:
		return f.flash(ctx, in, files)
	case script.CmdRebootBootloader:
		return f.rebootBootloader(ctx, in)
	case script.CmdUpdate:
		return f.update(ctx, in, files)
	case script.CmdFlashing:
		return f.flashing(ctx, in)
	case script.CmdGetVar:
		return f.getVar(ctx, in)
	case script.CmdErase:
		if len(in.Args) < 1 {
			return &ArgError{Command: in.Command, Reason: "partition is required"}
		}
		return f.engine.Erase(ctx, in.Args[0])
	case script.CmdSetActive:
		return f.setActive(ctx, in)
	case script.CmdReboot:
		if in.Arg(0) == "bootloader" {
			return f.engine.RebootBootloader(ctx)
		}
		return f.engine.Reboot(ctx, in.Arg(0))
	case script.CmdSleep:
		return f.sleep(ctx, in)
	case script.CmdOem:
		return f.oem(ctx, in)
	default:
		return &UnsupportedCommandError{Command: in.String()}
	}
}

func (f *Flasher) flash(ctx context.Context, in script.Instruction, files map[string]*archive.Entry) error {
	if len(in.Args) < 2 {
		return &ArgError{Command: in.Command, Reason: "partition and image file are required"}
	}
	partition, filename := in.Args[0], in.Args[1]

	slot := in.Options.Slot
	if slot == "" {
		slot = script.SlotCurrent
	}

	entry, ok := files[archive.Base(filename)]
	if !ok {
		return &archive.NotFoundError{Name: filename}
	}
	data, err := entry.Bytes()
	if err != nil {
		return err
	}

	return f.engine.Flash(ctx, partition, data, slot, in.Options.ApplyVbmeta)
}

func (f *Flasher) rebootBootloader(ctx context.Context, in script.Instruction) error {
	switch in.Options.SetActive {
	case "":
	case script.SlotOther:
		if err := f.engine.SetActiveOther(ctx); err != nil {
			return err
		}
	default:
		if err := f.engine.SetActive(ctx, in.Options.SetActive); err != nil {
			return err
		}
	}
	return f.engine.RebootBootloader(ctx)
}

func (f *Flasher) update(ctx context.Context, in script.Instruction, files map[string]*archive.Entry) error {
	if len(in.Args) < 1 {
		return &ArgError{Command: in.Command, Reason: "update archive is required"}
	}

	entry, ok := files[archive.Base(in.Args[0])]
	if !ok {
		return &archive.NotFoundError{Name: in.Args[0]}
	}
	nested, err := entry.Archive()
	if err != nil {
		return err
	}
	defer func() { _ = nested.Close() }()

	manifest, err := nested.Find(UpdateManifest)
	if err != nil {
		return &ArgError{Command: in.Command, Reason: fmt.Sprintf("%s has no %s", in.Args[0], UpdateManifest)}
	}
	text, err := manifest.Text()
	if err != nil {
		return err
	}

	if f.config.UpdateInstaller == nil {
		return &UnsupportedCommandError{Command: in.String()}
	}

	f.logInfo("installing update", "archive", in.Args[0], "wipe", in.Options.Wipe)
	return f.config.UpdateInstaller.Install(ctx, nested, text, in.Options.Wipe)
}

func (f *Flasher) flashing(ctx context.Context, in script.Instruction) error {
	switch in.Arg(0) {
	case "lock":
		return f.engine.Lock(ctx)
	case "unlock":
		return f.engine.Unlock(ctx)
	default:
		return &script.ParseError{Text: in.String(), Reason: "flashing expects lock or unlock"}
	}
}

func (f *Flasher) getVar(ctx context.Context, in script.Instruction) error {
	if len(in.Args) < 1 {
		return &ArgError{Command: in.Command, Reason: "variable name is required"}
	}

	value, err := f.engine.GetVar(ctx, in.Args[0])
	if err != nil {
		return err
	}
	f.logInfo("getvar", "name", in.Args[0], "value", value)
	return nil
}

func (f *Flasher) setActive(ctx context.Context, in script.Instruction) error {
	switch slot := in.Arg(0); slot {
	case script.SlotOther:
		return f.engine.SetActiveOther(ctx)
	case script.SlotA, script.SlotB:
		return f.engine.SetActive(ctx, slot)
	default:
		return &ArgError{Command: in.Command, Reason: fmt.Sprintf("invalid slot %q", slot)}
	}
}

func (f *Flasher) sleep(ctx context.Context, in script.Instruction) error {
	d := f.config.DefaultSleep
	if len(in.Args) > 0 {
		seconds, err := strconv.ParseFloat(in.Args[0], 64)
		if err != nil || seconds < 0 {
			return &ArgError{Command: in.Command, Reason: fmt.Sprintf("invalid duration %q", in.Args[0])}
		}
		d = time.Duration(seconds * float64(time.Second))
	}

	f.logDebug("sleeping", "duration", d.String())
	return f.config.Sleeper(ctx, d)
}

func (f *Flasher) oem(ctx context.Context, in script.Instruction) error {
	switch in.Arg(0) {
	case "fb_mode_set", "fb_mode_clear":
		return f.config.Sleeper(ctx, f.config.OemPause)
	default:
		return &UnsupportedCommandError{Command: in.String()}
	}
}

func (f *Flasher) logDebug(msg string, kv ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Debug(msg, kv...)
	}
}

func (f *Flasher) logInfo(msg string, kv ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Info(msg, kv...)
	}
}

func (f *Flasher) logError(msg string, kv ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Error(msg, kv...)
	}
}
