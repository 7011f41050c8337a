// Package manifest installs update packages described by fastboot-info.txt.
//
// The manifest lists the steps of a combined image install, one per line:
//
//	version 1
//	flash boot
//	flash --apply-vbmeta vbmeta
//	flash --slot-other system system_other.img
//	reboot fastboot
//	update-super
//	if-wipe erase userdata
//
// flash takes the partition and an optional image name defaulting to
// <partition>.img. update-super writes super_empty.img to the super partition.
// if-wipe runs the rest of the line only when a wipe was requested.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxVersion is the newest manifest version understood.
const MaxVersion = 1

// Operations.
const (
	OpFlash       = "flash"
	OpErase       = "erase"
	OpReboot      = "reboot"
	OpUpdateSuper = "update-super"
)

// ParseError indicates a malformed manifest line.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("fastboot-info.txt line %d: %s", e.Line, e.Reason)
}

// Directive is one manifest step.
type Directive struct {
	Op string

	// Partition is the flash, erase or update-super target, or the reboot target
	Partition string

	// Image is the file name inside the update archive
	Image string

	ApplyVbmeta bool
	SlotOther   bool

	// IfWipe directives only run when a wipe was requested
	IfWipe bool
}

// Manifest is a parsed fastboot-info.txt.
type Manifest struct {
	Version    int
	Directives []Directive
}

// Parse parses manifest text.
func Parse(text string) (*Manifest, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))

	var m *Manifest
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		if m == nil {
			v, err := parseVersion(line)
			if err != nil {
				return nil, &ParseError{Line: lineNum, Reason: err.Error()}
			}
			m = &Manifest{Version: v}
			continue
		}

		d, err := parseDirective(strings.Fields(line))
		if err != nil {
			return nil, &ParseError{Line: lineNum, Reason: err.Error()}
		}
		m.Directives = append(m.Directives, d)
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{Line: lineNum + 1, Reason: "line too long"}
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if m == nil {
		return nil, &ParseError{Line: lineNum, Reason: "missing version line"}
	}
	return m, nil
}

func parseVersion(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "version" {
		return 0, fmt.Errorf("expected \"version N\", got %q", line)
	}
	v, err := strconv.Atoi(fields[1])
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid version %q", fields[1])
	}
	if v > MaxVersion {
		return 0, fmt.Errorf("version %d is newer than supported version %d", v, MaxVersion)
	}
	return v, nil
}

func parseDirective(fields []string) (Directive, error) {
	var d Directive
	if fields[0] == "if-wipe" {
		if len(fields) == 1 {
			return d, fmt.Errorf("if-wipe requires a command")
		}
		d.IfWipe = true
		fields = fields[1:]
	}

	d.Op = fields[0]
	args := fields[1:]

	switch d.Op {
	case OpFlash:
		var positional []string
		for _, a := range args {
			switch a {
			case "--apply-vbmeta":
				d.ApplyVbmeta = true
			case "--slot-other":
				d.SlotOther = true
			default:
				if strings.HasPrefix(a, "-") {
					return d, fmt.Errorf("unknown flash option %q", a)
				}
				positional = append(positional, a)
			}
		}
		switch len(positional) {
		case 1:
			d.Partition, d.Image = positional[0], positional[0]+".img"
		case 2:
			d.Partition, d.Image = positional[0], positional[1]
		default:
			return d, fmt.Errorf("flash expects a partition and an optional image")
		}

	case OpErase:
		if len(args) != 1 {
			return d, fmt.Errorf("erase expects one partition")
		}
		d.Partition = args[0]

	case OpReboot:
		if len(args) > 1 {
			return d, fmt.Errorf("reboot expects at most one target")
		}
		if len(args) == 1 {
			d.Partition = args[0]
		}

	case OpUpdateSuper:
		if len(args) > 1 {
			return d, fmt.Errorf("update-super expects at most one partition")
		}
		d.Partition = "super"
		if len(args) == 1 {
			d.Partition = args[0]
		}
		d.Image = "super_empty.img"

	default:
		return d, fmt.Errorf("unknown command %q", d.Op)
	}

	return d, nil
}
