// Package cmd implements the fastboot-flash commands.
package cmd

import (
	"io"
	"os"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/term"

	"github.com/moffa90/go-fastboot/flasher"
	"github.com/moffa90/go-fastboot/internal/configpaths"
	"github.com/moffa90/go-fastboot/transport"
)

// CLI is the kong grammar of fastboot-flash.
type CLI struct {
	Globals `embed:""`

	FlashAll  FlashAll      `cmd:"" name:"flash-all" help:"Flash a factory image through its flash-all.sh"`
	Run       RunScript     `cmd:"" name:"run" help:"Run a flash script against an image archive"`
	GetVar    GetVar        `cmd:"" name:"getvar" help:"Read a bootloader variable"`
	Devices   Devices       `cmd:"" help:"List connected fastboot devices"`
	History   History       `cmd:"" help:"Show journaled flash runs"`
	ConfigCmd ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
}

// Globals are the flags shared by every command.
type Globals struct {
	Config    string    `help:"Configuration file (json, yaml or toml)" type:"path" env:"FASTBOOT_CONFIG"`
	Serial    string    `help:"Serial number of the target device" env:"FASTBOOT_SERIAL"`
	Journal   string    `help:"SQLite journal of runs and sessions" type:"path" env:"FASTBOOT_JOURNAL"`
	NoJournal bool      `help:"Do not record runs" env:"FASTBOOT_NO_JOURNAL"`
	WorkDir   string    `help:"Directory for downloaded images" type:"path" env:"FASTBOOT_WORK_DIR"`
	Log       LogConfig `embed:"" prefix:"log."`
	S3        S3Config  `embed:"" prefix:"s3."`

	deps deps
}

// LogConfig selects the log outputs.
type LogConfig struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"FASTBOOT_LOG_LEVEL"`
	File    string `help:"Write logs to this file" env:"FASTBOOT_LOG_FILE"`
	RawFile string `help:"Write raw USB transfers to this file" env:"FASTBOOT_LOG_RAW_FILE"`
}

// S3Config configures s3:// image locations.
type S3Config struct {
	Region string `help:"AWS region of s3:// images" default:"us-east-1" env:"FASTBOOT_S3_REGION"`
}

// deps are the process resources commands use, replaced in tests.
type deps struct {
	host       transport.Host
	timer      backoff.Timer
	sleeper    flasher.Sleeper
	stdin      io.Reader
	stdout     io.Writer
	isTerminal func() bool
}

func (g *Globals) stdin() io.Reader {
	if g.deps.stdin != nil {
		return g.deps.stdin
	}
	return os.Stdin
}

func (g *Globals) stdout() io.Writer {
	if g.deps.stdout != nil {
		return g.deps.stdout
	}
	return os.Stdout
}

func (g *Globals) interactive() bool {
	if g.deps.isTerminal != nil {
		return g.deps.isTerminal()
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// journalPath returns the journal database path, or "" when journaling is off.
func (g *Globals) journalPath() string {
	if g.NoJournal {
		return ""
	}
	if g.Journal != "" {
		return g.Journal
	}
	return configpaths.DefaultJournalPath()
}
