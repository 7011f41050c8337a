package fastboottest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openHandle(t *testing.T, h *Handle) *Handle {
	t.Helper()
	require.NoError(t, h.Open())
	require.NoError(t, h.SetConfiguration(1))
	require.NoError(t, h.ClaimInterface(0))
	return h
}

func exchange(t *testing.T, h *Handle, cmd string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.BulkOut(ctx, EndpointOut, []byte(cmd)))
	frame, err := h.BulkIn(ctx, EndpointIn, 256)
	require.NoError(t, err)
	return string(frame)
}

func TestBootloaderDownloadAndFlash(t *testing.T) {
	bl := New("SIM0001")
	h := openHandle(t, bl.Handle())
	ctx := context.Background()

	assert.Equal(t, "OKAYsimulator", exchange(t, h, "getvar:product"))
	assert.Equal(t, "FAILGetVar Variable Not found", exchange(t, h, "getvar:nope"))

	assert.Equal(t, "DATA00000006", exchange(t, h, "download:00000006"))
	require.NoError(t, h.BulkOut(ctx, EndpointOut, []byte("abc")))
	require.NoError(t, h.BulkOut(ctx, EndpointOut, []byte("def")))
	frame, err := h.BulkIn(ctx, EndpointIn, 256)
	require.NoError(t, err)
	assert.Equal(t, "OKAY", string(frame))

	assert.Equal(t, "OKAY", exchange(t, h, "flash:boot_a"))
	img, ok := bl.Partition("boot_a")
	require.True(t, ok)
	assert.Equal(t, []byte("abcdef"), img)
	assert.Equal(t, []Flash{{Partition: "boot_a", Size: 6}}, bl.Flashes())

	assert.Equal(t, "FAILNo data downloaded", exchange(t, h, "flash:boot_b"))
	assert.Equal(t, "FAILunknown command", exchange(t, h, "oem explode"))
}

func TestBootloaderRejectsOversizedDownload(t *testing.T) {
	bl := New("SIM0001")
	bl.SetVar("max-download-size", "0x10")
	h := openHandle(t, bl.Handle())

	assert.Equal(t, "FAILdata too large", exchange(t, h, "download:00000011"))
}

func TestBootloaderResetInvalidatesHandles(t *testing.T) {
	bl := New("SIM0001")
	bl.AbsentAfterReset(1)
	host := NewHost(bl)
	old := openHandle(t, bl.Handle())
	ctx := context.Background()

	assert.Equal(t, "OKAY", exchange(t, old, "reboot-bootloader"))
	assert.Equal(t, 1, bl.Resets())

	_, err := old.BulkIn(ctx, EndpointIn, 256)
	assert.ErrorIs(t, err, errDisconnected)

	devices, err := host.Devices(ctx)
	require.NoError(t, err)
	assert.Empty(t, devices, "absent for one enumeration")

	devices, err = host.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)

	fresh := openHandle(t, devices[0].(*Handle))
	assert.Equal(t, "OKAYsimulator", exchange(t, fresh, "getvar:product"))
}

func TestBootloaderLingersAfterReset(t *testing.T) {
	bl := New("SIM0001")
	bl.LingerAfterReset(1)
	host := NewHost(bl)
	old := openHandle(t, bl.Handle())
	ctx := context.Background()

	assert.Equal(t, "OKAY", exchange(t, old, "reboot-bootloader"))

	devices, err := host.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	lingering := devices[0].(*Handle)
	assert.Equal(t, old.Location(), lingering.Location())
	assert.ErrorIs(t, lingering.Open(), errDisconnected)

	devices, err = host.Devices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	fresh := devices[0].(*Handle)
	assert.NotEqual(t, old.Location(), fresh.Location())
	openHandle(t, fresh)
	assert.Equal(t, "OKAYsimulator", exchange(t, fresh, "getvar:product"))
}

func TestBootloaderRebootLeavesBus(t *testing.T) {
	bl := New("SIM0001")
	host := NewHost(bl)
	h := openHandle(t, bl.Handle())

	assert.Equal(t, "OKAY", exchange(t, h, "reboot"))
	assert.True(t, bl.Booted())

	devices, err := host.Devices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestHandleRequiresClaim(t *testing.T) {
	h := New("SIM0001").Handle()
	err := h.BulkOut(context.Background(), EndpointOut, []byte("getvar:product"))
	assert.ErrorIs(t, err, errNotOpen)
}
