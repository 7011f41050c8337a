package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to build a NUL padded response transfer
func buildTestResponse(s string) []byte {
	frame := make([]byte, 64)
	copy(frame, s)
	return frame
}

func TestDecodeResponse(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		want    Response
		wantErr bool
		errMsg  string
	}{
		{
			name:  "okay with padded message",
			frame: buildTestResponse("OKAYdone"),
			want:  Response{Status: StatusOkay, Message: "done"},
		},
		{
			name:  "okay without message",
			frame: []byte("OKAY"),
			want:  Response{Status: StatusOkay},
		},
		{
			name:  "fail with message",
			frame: []byte("FAILpartition does not exist"),
			want:  Response{Status: StatusFail, Message: "partition does not exist"},
		},
		{
			name:  "info line is trimmed",
			frame: []byte("INFO  erasing userdata \n"),
			want:  Response{Status: StatusInfo, Message: "erasing userdata"},
		},
		{
			name:  "text line",
			frame: []byte("TEXTwriting"),
			want:  Response{Status: StatusText, Message: "writing"},
		},
		{
			name:  "data with length",
			frame: buildTestResponse("DATA00004000"),
			want: Response{
				Status:     StatusData,
				DataLength: 0x4000,
				Message:    "ready to transfer 16384 bytes",
			},
		},
		{
			name:    "unknown status",
			frame:   []byte("WHAT is this"),
			wantErr: true,
			errMsg:  "unknown status",
		},
		{
			name:    "frame too short",
			frame:   []byte("OK"),
			wantErr: true,
			errMsg:  "frame too short",
		},
		{
			name:    "data length too short",
			frame:   []byte("DATA0040"),
			wantErr: true,
			errMsg:  "length field too short",
		},
		{
			name:    "data length not hex",
			frame:   []byte("DATAzz004000"),
			wantErr: true,
			errMsg:  "invalid hex length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeResponse(tt.frame)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsProtocolError(err), "want ProtocolError, got %T", err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusClassification(t *testing.T) {
	assert.True(t, StatusOkay.Terminal())
	assert.True(t, StatusFail.Terminal())
	assert.False(t, StatusData.Terminal())
	assert.False(t, StatusInfo.Terminal())

	assert.True(t, StatusInfo.Informational())
	assert.True(t, StatusText.Informational())
	assert.False(t, StatusData.Informational())
	assert.False(t, StatusOkay.Informational())
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "0x10000000", want: 0x10000000},
		{in: "0X20", want: 0x20},
		{in: "536870912", want: 536870912},
		{in: " 0x800 ", want: 0x800},
		{in: "", wantErr: true},
		{in: "0xnope", wantErr: true},
		{in: "-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPacketString(t *testing.T) {
	assert.Equal(t, "> getvar:product", Command{Text: "getvar:product"}.String())
	assert.Equal(t, "< OKAY", Response{Status: StatusOkay}.String())
	assert.Equal(t, "< FAIL locked", Response{Status: StatusFail, Message: "locked"}.String())
	assert.Equal(t, "< DATA 00001000", Response{Status: StatusData, DataLength: 0x1000}.String())
}
