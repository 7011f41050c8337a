package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadCmd(t *testing.T) {
	tests := []struct {
		name       string
		size       int64
		want       string
		wantDevErr bool
	}{
		{name: "zero", size: 0, want: "download:00000000"},
		{name: "one chunk", size: ChunkSize, want: "download:00004000"},
		{name: "lowercase hex", size: 0xABCDEF, want: "download:00abcdef"},
		{name: "largest", size: MaxDownloadSize, want: "download:ffffffff"},
		{name: "needs nine digits", size: MaxDownloadSize + 1, wantDevErr: true},
		{name: "negative", size: -1, wantDevErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := DownloadCmd(tt.size)

			if tt.wantDevErr {
				require.Error(t, err)
				assert.True(t, IsDeviceError(err), "want DeviceError, got %T", err)
				assert.Nil(t, frame)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, string(frame))
		})
	}
}

func TestCommandBuilders(t *testing.T) {
	tests := []struct {
		name  string
		build func() ([]byte, error)
		want  string
	}{
		{"getvar", func() ([]byte, error) { return GetVarCmd("product") }, "getvar:product"},
		{"getvar has-slot", func() ([]byte, error) { return GetVarCmd(VarHasSlot + ":boot") }, "getvar:has-slot:boot"},
		{"flash", func() ([]byte, error) { return FlashCmd("boot_a") }, "flash:boot_a"},
		{"erase", func() ([]byte, error) { return EraseCmd("userdata") }, "erase:userdata"},
		{"set_active", func() ([]byte, error) { return SetActiveCmd("b") }, "set_active:b"},
		{"reboot", func() ([]byte, error) { return RebootCmd("") }, "reboot"},
		{"reboot bootloader", func() ([]byte, error) { return RebootCmd("bootloader") }, "reboot-bootloader"},
		{"flashing unlock", func() ([]byte, error) { return FlashingCmd("unlock") }, "flashing unlock"},
		{"update-super", func() ([]byte, error) { return UpdateSuperCmd("super", false) }, "update-super:super"},
		{"update-super wipe", func() ([]byte, error) { return UpdateSuperCmd("super", true) }, "update-super:super:wipe"},
		{"resize", func() ([]byte, error) { return ResizeLogicalPartitionCmd("system_a", 4096) }, "resize-logical-partition:system_a:4096"},
		{"raw", func() ([]byte, error) { return RawCmd("oem device-info") }, "oem device-info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(frame))
		})
	}
}

func TestCommandBuildersReject(t *testing.T) {
	tests := []struct {
		name   string
		build  func() ([]byte, error)
		errMsg string
	}{
		{"empty getvar", func() ([]byte, error) { return GetVarCmd("") }, "variable name is required"},
		{"empty flash", func() ([]byte, error) { return FlashCmd("") }, "partition is required"},
		{"bad slot", func() ([]byte, error) { return SetActiveCmd("c") }, "invalid slot"},
		{"bad flashing action", func() ([]byte, error) { return FlashingCmd("open") }, "unknown action"},
		{"too long", func() ([]byte, error) { return FlashCmd(strings.Repeat("p", MaxCommandLength)) }, "command too long"},
		{"empty raw", func() ([]byte, error) { return RawCmd("") }, "empty command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			require.Error(t, err)
			assert.True(t, IsProtocolError(err))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDeviceErrorMessage(t *testing.T) {
	err := &DeviceError{Status: StatusFail, Message: "Device is locked"}
	assert.Equal(t, "bootloader returned FAIL: Device is locked", err.Error())

	bare := &DeviceError{Status: StatusFail}
	assert.Equal(t, "bootloader returned FAIL", bare.Error())
}
