package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseInstruction parses one script line.
//
// Example:
//
//	in, err := script.ParseInstruction("fastboot flash boot boot.img --slot=other")
//	// in.Command == script.CmdFlash
//	// in.Args == []string{"boot", "boot.img"}
//	// in.Options.Slot == "other"
func ParseInstruction(line string) (Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) > 0 && fields[0] == "fastboot" {
		fields = fields[1:]
	}

	var (
		in       Instruction
		haveName bool
	)

	for _, tok := range fields {
		if strings.HasPrefix(tok, "-") {
			if err := in.applyOption(tok); err != nil {
				return Instruction{}, &ParseError{Text: line, Reason: err.Error()}
			}
			continue
		}

		if !haveName {
			if !IsCommand(tok) {
				return Instruction{}, &ParseError{Text: line, Reason: fmt.Sprintf("unknown command %q", tok)}
			}
			in.Command = Command(tok)
			haveName = true
			continue
		}
		in.Args = append(in.Args, tok)
	}

	if !haveName {
		return Instruction{}, &ParseError{Text: line, Reason: "missing command"}
	}
	return in, nil
}

// applyOption records one option token. Unknown options are kept in Ignored.
func (in *Instruction) applyOption(tok string) error {
	name, value, hasValue := strings.Cut(tok, "=")

	switch name {
	case "-w", "--wipe":
		in.Options.Wipe = true
	case "--skip-reboot":
		in.Options.SkipReboot = true
	case "--apply-vbmeta":
		in.Options.ApplyVbmeta = true
	case "--slot-other":
		in.Options.Slot = SlotOther
	case "--slot":
		switch {
		case !hasValue || value == "":
			return fmt.Errorf("--slot requires a value")
		case value == SlotCurrent || value == SlotOther || value == SlotA || value == SlotB:
			in.Options.Slot = value
		default:
			return fmt.Errorf("invalid slot %q", value)
		}
	case "--set-active":
		switch {
		case !hasValue || value == "":
			return fmt.Errorf("--set-active requires a value")
		case value == SlotOther || value == SlotA || value == SlotB:
			in.Options.SetActive = value
		default:
			return fmt.Errorf("invalid slot %q", value)
		}
	default:
		in.Ignored = append(in.Ignored, tok)
	}
	return nil
}

// ParseInstructions parses a whole script. Blank lines and '#' comments are
// dropped. The first malformed line fails the parse and no instructions are
// returned.
//
// Example:
//
//	instructions, err := script.ParseInstructions(text)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, in := range instructions {
//	    fmt.Println(in)
//	}
func ParseInstructions(text string) ([]Instruction, error) {
	return ParseReader(strings.NewReader(text))
}

// ParseReader parses a script from any io.Reader.
func ParseReader(r io.Reader) ([]Instruction, error) {
	scanner := bufio.NewScanner(r)

	var instructions []Instruction
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip blank lines and comments
		if line == "" || line[0] == '#' {
			continue
		}

		in, err := ParseInstruction(line)
		if err != nil {
			if perr, ok := err.(*ParseError); ok {
				perr.Line = lineNum
			}
			return nil, err
		}
		instructions = append(instructions, in)
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, &ParseError{Line: lineNum + 1, Reason: "line too long"}
		}
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	return instructions, nil
}

// FilterFlashAll keeps the lines of a flash-all.sh script that start with
// "fastboot " or "sleep", trimmed, and drops all other shell syntax.
func FilterFlashAll(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "fastboot ") || strings.HasPrefix(line, "sleep") {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
