package protocol

import (
	"fmt"
	"strings"
)

// buildCmd joins a command name and its arguments with ':' and validates the length.
func buildCmd(name string, args ...string) ([]byte, error) {
	text := name
	if len(args) > 0 {
		text = name + ":" + strings.Join(args, ":")
	}

	if len(text) > MaxCommandLength {
		return nil, &ProtocolError{
			Operation: "build " + name,
			Reason:    fmt.Sprintf("command too long: got %d bytes, maximum is %d", len(text), MaxCommandLength),
		}
	}

	return []byte(text), nil
}

// RawCmd validates an already formatted command, e.g. "flashing unlock".
func RawCmd(text string) ([]byte, error) {
	if text == "" {
		return nil, &ProtocolError{Operation: "build command", Reason: "empty command"}
	}
	return buildCmd(text)
}

// GetVarCmd constructs a getvar command.
//
// Frame structure:
//
//	getvar:<name>
func GetVarCmd(name string) ([]byte, error) {
	if name == "" {
		return nil, &ProtocolError{Operation: "build getvar", Reason: "variable name is required"}
	}
	return buildCmd(CmdGetVar, name)
}

// DownloadCmd constructs a download command announcing size bytes.
// The size is encoded as exactly 8 lowercase hex digits; larger sizes fail
// with a DeviceError before anything is sent.
//
// Frame structure:
//
//	download:<%08x>
func DownloadCmd(size int64) ([]byte, error) {
	if size < 0 {
		return nil, &DeviceError{Status: StatusFail, Message: fmt.Sprintf("negative download size %d", size)}
	}
	if size > MaxDownloadSize {
		return nil, &DeviceError{
			Status:  StatusFail,
			Message: fmt.Sprintf("payload of %d bytes exceeds the %d digit length field", size, DataLengthSize),
		}
	}
	return buildCmd(CmdDownload, fmt.Sprintf("%08x", size))
}

// FlashCmd constructs a flash command for a fully resolved partition name.
func FlashCmd(partition string) ([]byte, error) {
	if partition == "" {
		return nil, &ProtocolError{Operation: "build flash", Reason: "partition is required"}
	}
	return buildCmd(CmdFlash, partition)
}

// EraseCmd constructs an erase command for a fully resolved partition name.
func EraseCmd(partition string) ([]byte, error) {
	if partition == "" {
		return nil, &ProtocolError{Operation: "build erase", Reason: "partition is required"}
	}
	return buildCmd(CmdErase, partition)
}

// SetActiveCmd constructs a set_active command. Slot must be "a" or "b".
func SetActiveCmd(slot string) ([]byte, error) {
	if slot != "a" && slot != "b" {
		return nil, &ProtocolError{Operation: "build set_active", Reason: fmt.Sprintf("invalid slot %q", slot)}
	}
	return buildCmd(CmdSetActive, slot)
}

// RebootCmd constructs "reboot" or "reboot-<target>".
func RebootCmd(target string) ([]byte, error) {
	if target == "" {
		return buildCmd(CmdReboot)
	}
	return buildCmd(CmdReboot + "-" + target)
}

// FlashingCmd constructs "flashing lock" or "flashing unlock".
func FlashingCmd(action string) ([]byte, error) {
	switch action {
	case "lock", "unlock", "lock_critical", "unlock_critical":
		return buildCmd(CmdFlashing + " " + action)
	default:
		return nil, &ProtocolError{Operation: "build flashing", Reason: fmt.Sprintf("unknown action %q", action)}
	}
}

// UpdateSuperCmd constructs update-super:<partition>[:wipe].
func UpdateSuperCmd(partition string, wipe bool) ([]byte, error) {
	if partition == "" {
		return nil, &ProtocolError{Operation: "build update-super", Reason: "partition is required"}
	}
	if wipe {
		return buildCmd(CmdUpdateSuper, partition, "wipe")
	}
	return buildCmd(CmdUpdateSuper, partition)
}

// ResizeLogicalPartitionCmd constructs resize-logical-partition:<partition>:<size>.
func ResizeLogicalPartitionCmd(partition string, size int64) ([]byte, error) {
	if partition == "" {
		return nil, &ProtocolError{Operation: "build resize-logical-partition", Reason: "partition is required"}
	}
	return buildCmd(CmdResizeLogicalPartition, partition, fmt.Sprintf("%d", size))
}
