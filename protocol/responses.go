package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeResponse decodes one IN transfer into a Response.
//
// Frame structure:
//
//	[STATUS(4)][MESSAGE...]         OKAY, FAIL, INFO, TEXT
//	[STATUS(4)][LENGTH(8 hex)]      DATA
//
// Bootloaders may pad the transfer with NUL bytes; they are trimmed from the message.
func DecodeResponse(frame []byte) (Response, error) {
	if len(frame) < StatusSize {
		return Response{}, &ProtocolError{
			Operation: "decode response",
			Reason:    fmt.Sprintf("frame too short: got %d bytes, minimum is %d", len(frame), StatusSize),
		}
	}

	status, err := ParseStatus(string(frame[:StatusSize]))
	if err != nil {
		return Response{}, err
	}

	rest := frame[StatusSize:]
	if status == StatusData {
		length, err := parseDataLength(rest)
		if err != nil {
			return Response{}, err
		}
		return Response{
			Status:     status,
			DataLength: length,
			Message:    fmt.Sprintf("ready to transfer %d bytes", length),
		}, nil
	}

	return Response{
		Status:  status,
		Message: trimMessage(rest),
	}, nil
}

// parseDataLength reads the 8 hex digits following a DATA status.
func parseDataLength(b []byte) (uint32, error) {
	if len(b) < DataLengthSize {
		return 0, &ProtocolError{
			Operation: "decode DATA response",
			Reason:    fmt.Sprintf("length field too short: got %d bytes, expected %d", len(b), DataLengthSize),
		}
	}

	n, err := strconv.ParseUint(string(b[:DataLengthSize]), 16, 32)
	if err != nil {
		return 0, &ProtocolError{
			Operation: "decode DATA response",
			Reason:    fmt.Sprintf("invalid hex length %q", b[:DataLengthSize]),
		}
	}

	return uint32(n), nil
}

func trimMessage(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}

// ParseSize parses a size variable such as max-download-size or partition-size.
// Bootloaders report these either as 0x-prefixed hex or as decimal.
func ParseSize(value string) (int64, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, fmt.Errorf("empty size value")
	}

	var (
		n   uint64
		err error
	)
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		n, err = strconv.ParseUint(v[2:], 16, 63)
	} else {
		n, err = strconv.ParseUint(v, 10, 63)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	return int64(n), nil
}
