// Package protocol implements the Android fastboot wire format.
//
// This package builds command frames and decodes response frames exactly as the
// bootloader exchanges them over a USB bulk endpoint pair.
//
// # Protocol Overview
//
// Fastboot is a strictly half-duplex request/response protocol:
//
//	Command:  [ASCII command text]                 (no length prefix, no terminator)
//	Response: [STATUS(4)][MESSAGE...]              (OKAY, FAIL, INFO, TEXT)
//	          [DATA][LENGTH(8 hex digits)]         (download acknowledgement)
//
// Where:
//   - OKAY and FAIL are terminal: the command is finished
//   - INFO and TEXT are informational lines; more packets follow
//   - DATA announces that the bootloader is ready to receive LENGTH bytes
//
// Download payloads are streamed in ChunkSize pieces with no framing between chunks.
//
// # Command Builders
//
// Use the *Cmd functions to create command frames:
//
//	frame, err := protocol.GetVarCmd("max-download-size")
//	frame, err := protocol.DownloadCmd(len(image))
//	frame, err := protocol.FlashCmd("boot_a")
//
// # Response Decoding
//
// Use DecodeResponse on every IN transfer:
//
//	resp, err := protocol.DecodeResponse(buf)
//	if resp.Status == protocol.StatusFail {
//	    return &protocol.DeviceError{Status: resp.Status, Message: resp.Message}
//	}
//
// Packets form a closed set: a Packet is either a Command (host to device) or a
// Response (device to host). Switch on the concrete type to handle both.
//
// # Error Handling
//
//   - DeviceError: the bootloader answered FAIL, or a transfer expectation was violated
//   - ProtocolError: bytes on the wire could not be decoded
//
// # Reference
//
// system/core/fastboot/README.md in the Android Open Source Project.
package protocol
