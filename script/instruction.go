package script

import "strings"

// Command is a recognized fastboot command name.
type Command string

// Recognized commands.
const (
	CmdFlash            Command = "flash"
	CmdErase            Command = "erase"
	CmdFormat           Command = "format"
	CmdGetVar           Command = "getvar"
	CmdReboot           Command = "reboot"
	CmdRebootBootloader Command = "reboot-bootloader"
	CmdUpdate           Command = "update"
	CmdFlashing         Command = "flashing"
	CmdOem              Command = "oem"
	CmdSleep            Command = "sleep"
	CmdSetActive        Command = "set_active"
	CmdBoot             Command = "boot"
	CmdContinue         Command = "continue"
)

var commands = map[Command]bool{
	CmdFlash:            true,
	CmdErase:            true,
	CmdFormat:           true,
	CmdGetVar:           true,
	CmdReboot:           true,
	CmdRebootBootloader: true,
	CmdUpdate:           true,
	CmdFlashing:         true,
	CmdOem:              true,
	CmdSleep:            true,
	CmdSetActive:        true,
	CmdBoot:             true,
	CmdContinue:         true,
}

// IsCommand reports whether name is a recognized command.
func IsCommand(name string) bool {
	return commands[Command(name)]
}

// Slot values accepted by --slot and --set-active.
const (
	SlotCurrent = "current"
	SlotOther   = "other"
	SlotA       = "a"
	SlotB       = "b"
)

// Options holds the recognized flags of one invocation.
// The zero value means no flag was given.
type Options struct {
	// Wipe is set by -w or --wipe
	Wipe bool

	// SetActive is the --set-active slot: "other", "a" or "b"
	SetActive string

	// Slot is the --slot slot: "current", "other", "a" or "b"
	Slot string

	// SkipReboot is set by --skip-reboot
	SkipReboot bool

	// ApplyVbmeta is set by --apply-vbmeta
	ApplyVbmeta bool
}

// Instruction is one parsed invocation.
type Instruction struct {
	Command Command
	Args    []string
	Options Options

	// Ignored lists unrecognized options, in order of appearance
	Ignored []string
}

// Arg returns the i-th positional argument, or "" if absent.
func (in Instruction) Arg(i int) string {
	if i < 0 || i >= len(in.Args) {
		return ""
	}
	return in.Args[i]
}

// String formats the instruction the way it would appear in a script.
func (in Instruction) String() string {
	parts := []string{string(in.Command)}
	parts = append(parts, in.Args...)

	o := in.Options
	if o.Wipe {
		parts = append(parts, "-w")
	}
	if o.SetActive != "" {
		parts = append(parts, "--set-active="+o.SetActive)
	}
	if o.Slot != "" {
		parts = append(parts, "--slot="+o.Slot)
	}
	if o.SkipReboot {
		parts = append(parts, "--skip-reboot")
	}
	if o.ApplyVbmeta {
		parts = append(parts, "--apply-vbmeta")
	}
	return strings.Join(parts, " ")
}
