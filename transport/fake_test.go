package transport

import (
	"context"
	"errors"
	"time"
)

// fakeDevice records every call made through the Device interface.
type fakeDevice struct {
	serial    string
	serialErr error
	configs   []ConfigDesc
	location  string

	open      bool
	opens     int
	config    int
	claimed   int
	claims    int
	closed    bool
	inQueue   [][]byte
	written   [][]byte
	writtenTo []uint8
	readFrom  []uint8
}

func newFakeDevice(serial string, in, out uint8) *fakeDevice {
	return &fakeDevice{
		serial: serial,
		config: -1,
		configs: []ConfigDesc{{
			Number: 1,
			Interfaces: []InterfaceDesc{{
				Class:     FastbootClass,
				SubClass:  FastbootSubClass,
				Protocol:  FastbootProtocol,
				Endpoints: []EndpointDesc{{Address: in}, {Address: out}},
			}},
		}},
	}
}

func (d *fakeDevice) Serial() (string, error) { return d.serial, d.serialErr }
func (d *fakeDevice) Configs() ([]ConfigDesc, error) { return d.configs, nil }
func (d *fakeDevice) IsOpen() bool { return d.open }
func (d *fakeDevice) Location() string { return d.location }

func (d *fakeDevice) Open() error {
	d.open = true
	d.opens++
	return nil
}

func (d *fakeDevice) SetConfiguration(config int) error {
	d.config = config
	return nil
}

func (d *fakeDevice) ClaimInterface(iface int) error {
	d.claimed = iface
	d.claims++
	return nil
}

func (d *fakeDevice) BulkIn(ctx context.Context, endpoint uint8, maxLen int) ([]byte, error) {
	d.readFrom = append(d.readFrom, endpoint)
	if len(d.inQueue) == 0 {
		return nil, errors.New("no data")
	}
	data := d.inQueue[0]
	d.inQueue = d.inQueue[1:]
	return data, nil
}

func (d *fakeDevice) BulkOut(ctx context.Context, endpoint uint8, data []byte) error {
	d.writtenTo = append(d.writtenTo, endpoint)
	d.written = append(d.written, append([]byte(nil), data...))
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	d.open = false
	return nil
}

// fakeHost returns one device list per Devices call. After WaitForConnect,
// afterEvent is returned instead.
type fakeHost struct {
	rounds     [][]Device
	afterEvent []Device

	enumerations int
	waits        int
	evented      bool
}

func (h *fakeHost) Devices(ctx context.Context) ([]Device, error) {
	h.enumerations++
	if h.evented {
		return h.afterEvent, nil
	}
	if len(h.rounds) == 0 {
		return nil, nil
	}
	list := h.rounds[0]
	h.rounds = h.rounds[1:]
	return list, nil
}

func (h *fakeHost) WaitForConnect(ctx context.Context) error {
	h.waits++
	if err := ctx.Err(); err != nil {
		return err
	}
	h.evented = true
	return nil
}

// fakeTimer fires immediately and records every requested pause.
type fakeTimer struct {
	pauses []time.Duration
	c      chan time.Time
}

func (t *fakeTimer) Start(d time.Duration) {
	t.pauses = append(t.pauses, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *fakeTimer) Stop() {}

func (t *fakeTimer) C() <-chan time.Time {
	return t.c
}

type rawRecord struct {
	in   bool
	data string
}

type fakeRaw struct {
	records []rawRecord
}

func (r *fakeRaw) Log(in bool, data []byte) {
	r.records = append(r.records, rawRecord{in: in, data: string(data)})
}
