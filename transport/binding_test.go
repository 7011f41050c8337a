package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	tests := []struct {
		name    string
		device  func() *fakeDevice
		wantIn  uint8
		wantOut uint8
		errMsg  string
	}{
		{
			name:    "in first",
			device:  func() *fakeDevice { return newFakeDevice("SER1", 0x81, 0x01) },
			wantIn:  0x81,
			wantOut: 0x01,
		},
		{
			name:    "out first",
			device:  func() *fakeDevice { return newFakeDevice("SER1", 0x02, 0x82) },
			wantIn:  0x82,
			wantOut: 0x02,
		},
		{
			name:   "both in",
			device: func() *fakeDevice { return newFakeDevice("SER1", 0x81, 0x82) },
			errMsg: "ambiguous endpoint directions",
		},
		{
			name:   "both out",
			device: func() *fakeDevice { return newFakeDevice("SER1", 0x01, 0x02) },
			errMsg: "ambiguous endpoint directions",
		},
		{
			name: "three endpoints",
			device: func() *fakeDevice {
				d := newFakeDevice("SER1", 0x81, 0x01)
				d.configs[0].Interfaces[0].Endpoints = append(d.configs[0].Interfaces[0].Endpoints, EndpointDesc{Address: 0x83})
				return d
			},
			errMsg: "expected 2 endpoints, got 3",
		},
		{
			name: "no configuration",
			device: func() *fakeDevice {
				d := newFakeDevice("SER1", 0x81, 0x01)
				d.configs = nil
				return d
			},
			errMsg: "no configuration",
		},
		{
			name: "no interface",
			device: func() *fakeDevice {
				d := newFakeDevice("SER1", 0x81, 0x01)
				d.configs[0].Interfaces = nil
				return d
			},
			errMsg: "no interface",
		},
		{
			name:   "empty serial",
			device: func() *fakeDevice { return newFakeDevice("", 0x81, 0x01) },
			errMsg: "serial number",
		},
		{
			name: "serial unreadable",
			device: func() *fakeDevice {
				d := newFakeDevice("SER1", 0x81, 0x01)
				d.serialErr = errors.New("access denied")
				return d
			},
			errMsg: "access denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(&fakeHost{})
			err := b.Bind(tt.device())

			if tt.errMsg != "" {
				require.Error(t, err)
				assert.True(t, IsSetupError(err), "want SetupError, got %T", err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Empty(t, b.Serial())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "SER1", b.Serial())
			assert.Equal(t, tt.wantIn, b.in)
			assert.Equal(t, tt.wantOut, b.out)
		})
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dev := newFakeDevice("SER1", 0x81, 0x01)
	b := New(&fakeHost{})
	require.NoError(t, b.Bind(dev))

	require.NoError(t, b.Connect(ctx))
	require.NoError(t, b.Connect(ctx))

	assert.Equal(t, 1, dev.opens)
	assert.Equal(t, 1, dev.claims)
	assert.Equal(t, 1, dev.config)
	assert.Equal(t, 0, dev.claimed)
}

func TestConnectWithoutBind(t *testing.T) {
	b := New(&fakeHost{})
	err := b.Connect(context.Background())
	assert.True(t, IsSetupError(err))
}

func TestReconnectNoMatchLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	dev := newFakeDevice("SER1", 0x81, 0x01)
	other := newFakeDevice("SER2", 0x82, 0x02)
	host := &fakeHost{rounds: [][]Device{{other}}}

	b := New(host)
	require.NoError(t, b.Bind(dev))
	require.NoError(t, b.Connect(ctx))

	err := b.Reconnect(ctx)
	require.Error(t, err)

	var connErr *UsbConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "SER1", connErr.Serial)
	assert.Equal(t, 1, connErr.Visible)

	assert.Same(t, dev, b.device.(*fakeDevice))
	assert.Equal(t, uint8(0x81), b.in)
	assert.Equal(t, uint8(0x01), b.out)
	assert.True(t, b.claimed)
	assert.False(t, dev.closed)
}

func TestReconnectRebindsBySerial(t *testing.T) {
	ctx := context.Background()
	dev := newFakeDevice("SER1", 0x81, 0x01)
	stranger := newFakeDevice("SER9", 0x81, 0x01)
	again := newFakeDevice("SER1", 0x83, 0x03)
	host := &fakeHost{rounds: [][]Device{{stranger, again}}}

	b := New(host)
	require.NoError(t, b.Bind(dev))
	require.NoError(t, b.Connect(ctx))
	require.NoError(t, b.Reconnect(ctx))

	assert.True(t, dev.closed, "stale handle should be released")
	assert.True(t, stranger.closed, "unmatched handle should be released")
	assert.True(t, again.open)
	assert.Equal(t, 1, again.claims)

	require.NoError(t, b.TransferOut(ctx, []byte("getvar:product")))
	assert.Equal(t, []uint8{0x03}, again.writtenTo)
	assert.Empty(t, dev.written)
}

func TestTransfersAreTraced(t *testing.T) {
	ctx := context.Background()
	dev := newFakeDevice("SER1", 0x81, 0x01)
	dev.inQueue = [][]byte{[]byte("OKAY")}
	raw := &fakeRaw{}

	b := New(&fakeHost{}, WithRawLogger(raw))
	require.NoError(t, b.Bind(dev))

	require.NoError(t, b.TransferOut(ctx, []byte("getvar:product")))
	data, err := b.TransferIn(ctx, 256)
	require.NoError(t, err)
	assert.Equal(t, "OKAY", string(data))
	assert.Equal(t, []uint8{0x81}, dev.readFrom)

	assert.Equal(t, []rawRecord{
		{in: false, data: "getvar:product"},
		{in: true, data: "OKAY"},
	}, raw.records)
}

func TestEndpointDirection(t *testing.T) {
	assert.True(t, EndpointDesc{Address: 0x81}.IsIn())
	assert.False(t, EndpointDesc{Address: 0x01}.IsIn())
	assert.Equal(t, uint8(1), EndpointDesc{Address: 0x81}.Number())

	iface := InterfaceDesc{Class: 0xFF, SubClass: 0x42, Protocol: 0x03}
	assert.True(t, iface.IsFastboot())
	iface.Protocol = 0x01
	assert.False(t, iface.IsFastboot())
}
