// Package script parses the fastboot invocations of a vendor flashing script.
//
// # Dialect
//
// A script is a list of lines. Blank lines and lines starting with '#' are
// dropped. Every other line is one invocation:
//
//	fastboot [options] <command> [args...] [options]
//	sleep [seconds]
//
// The leading "fastboot" word is optional. Options may appear anywhere on the
// line:
//
//	-w, --wipe              wipe user data (update)
//	--set-active=<slot>     switch slot before rebooting (other, a, b)
//	--slot=<slot>           target slot (current, other, a, b)
//	--slot-other            same as --slot=other
//	--skip-reboot           do not reboot after the operation
//	--apply-vbmeta          pad the image to the partition with its AVB footer last
//
// Unknown options are reported in Instruction.Ignored and otherwise have no
// effect. Unknown commands and invalid slot values are errors.
//
// # Usage
//
//	instructions, err := script.ParseInstructions(text)
//	if err != nil {
//	    var perr *script.ParseError
//	    if errors.As(err, &perr) {
//	        fmt.Printf("line %d: %s\n", perr.Line, perr.Reason)
//	    }
//	}
//
// flash-all.sh contains shell syntax around the fastboot calls. FilterFlashAll
// keeps only the fastboot and sleep lines:
//
//	instructions, err := script.ParseInstructions(script.FilterFlashAll(raw))
package script
