package fastboottest

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/moffa90/go-fastboot/protocol"
)

// Flash records one flash command.
type Flash struct {
	Partition string
	Size      int
}

// Bootloader is an in-memory fastboot device.
type Bootloader struct {
	mu sync.Mutex

	serial     string
	vars       map[string]string
	partitions map[string][]byte
	locked     bool

	failOn map[string]string
	infoOn map[string][]string

	commands []string
	flashes  []Flash
	erased   []string
	resized  map[string]int64
	super    []string

	queue     [][]byte
	expect    int64
	staged    []byte
	override  *uint32
	resetNext bool

	generation  int
	absent      int
	absentReset int
	linger      int
	lingerReset int
	gone        bool
}

// New creates a bootloader with the given serial number, slot a active and
// A/B slots on boot, system, vendor, vbmeta and dtbo.
func New(serial string) *Bootloader {
	b := &Bootloader{
		serial:     serial,
		partitions: make(map[string][]byte),
		failOn:     make(map[string]string),
		infoOn:     make(map[string][]string),
		resized:    make(map[string]int64),
		vars: map[string]string{
			protocol.VarProduct:         "simulator",
			protocol.VarSerialNo:        serial,
			protocol.VarCurrentSlot:     "a",
			protocol.VarMaxDownloadSize: "0x10000000",
		},
	}
	for _, p := range []string{"boot", "system", "vendor", "vbmeta", "dtbo"} {
		b.vars[protocol.VarHasSlot+":"+p] = "yes"
	}
	for _, p := range []string{"userdata", "metadata", "super", "bootloader", "radio"} {
		b.vars[protocol.VarHasSlot+":"+p] = "no"
	}
	return b
}

// Serial returns the serial number.
func (b *Bootloader) Serial() string {
	return b.serial
}

// SetVar sets a variable returned by getvar.
func (b *Bootloader) SetVar(name, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vars[name] = value
}

// Var returns a variable value.
func (b *Bootloader) Var(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.vars[name]
}

// FailOn makes every command starting with prefix fail with message.
func (b *Bootloader) FailOn(prefix, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failOn[prefix] = message
}

// InfoOn makes every command starting with prefix emit INFO lines before its result.
func (b *Bootloader) InfoOn(prefix string, lines ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.infoOn[prefix] = lines
}

// AcceptDownloadLength makes the next download acknowledge n bytes
// regardless of the announced size.
func (b *Bootloader) AcceptDownloadLength(n uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.override = &n
}

// AbsentAfterReset keeps the device off the bus for the next n enumerations
// following every reset.
func (b *Bootloader) AbsentAfterReset(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.absentReset = n
}

// LingerAfterReset keeps the pre-reset enumeration on the bus for the next n
// enumerations following every reset. Its handles fail once opened.
func (b *Bootloader) LingerAfterReset(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lingerReset = n
}

// Locked reports the lock state.
func (b *Bootloader) Locked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.locked
}

// SetLocked sets the lock state without a reset.
func (b *Bootloader) SetLocked(locked bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.locked = locked
}

// Partition returns the last image flashed to name.
func (b *Bootloader) Partition(name string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.partitions[name]
	return data, ok
}

// Commands returns every command received, in order.
func (b *Bootloader) Commands() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.commands...)
}

// Flashes returns every flash command with the size of the image it wrote.
func (b *Bootloader) Flashes() []Flash {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Flash(nil), b.flashes...)
}

// Erased returns the erased partitions in order.
func (b *Bootloader) Erased() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.erased...)
}

// Resized returns the last size requested for each logical partition.
func (b *Bootloader) Resized() map[string]int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]int64, len(b.resized))
	for k, v := range b.resized {
		out[k] = v
	}
	return out
}

// SuperUpdates returns the arguments of every update-super command.
func (b *Bootloader) SuperUpdates() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.super...)
}

// Resets returns how many times the device re-enumerated.
func (b *Bootloader) Resets() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generation
}

// Booted reports whether a plain reboot took the device out of fastboot.
func (b *Bootloader) Booted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gone
}

// Handle returns a fresh handle on the device as it is enumerated now.
func (b *Bootloader) Handle() *Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Handle{bl: b, generation: b.generation}
}

func (b *Bootloader) reply(status protocol.Status, message string) {
	b.queue = append(b.queue, []byte(string(status)+message))
}

// receive handles one OUT transfer. Callers hold b.mu.
func (b *Bootloader) receive(data []byte) {
	if b.expect > 0 {
		b.staged = append(b.staged, data...)
		b.expect -= int64(len(data))
		if b.expect <= 0 {
			b.expect = 0
			b.reply(protocol.StatusOkay, "")
		}
		return
	}

	cmd := string(data)
	b.commands = append(b.commands, cmd)

	for prefix, lines := range b.infoOn {
		if strings.HasPrefix(cmd, prefix) {
			for _, line := range lines {
				b.reply(protocol.StatusInfo, line)
			}
		}
	}
	for prefix, message := range b.failOn {
		if strings.HasPrefix(cmd, prefix) {
			b.reply(protocol.StatusFail, message)
			return
		}
	}

	b.execute(cmd)
}

func (b *Bootloader) execute(cmd string) {
	name, arg, _ := strings.Cut(cmd, ":")

	switch name {
	case protocol.CmdGetVar:
		value, ok := b.vars[arg]
		if !ok {
			b.reply(protocol.StatusFail, "GetVar Variable Not found")
			return
		}
		b.reply(protocol.StatusOkay, value)

	case protocol.CmdDownload:
		b.download(arg)

	case protocol.CmdFlash:
		if b.locked {
			b.reply(protocol.StatusFail, "Flashing is not allowed in Lock State")
			return
		}
		if b.staged == nil {
			b.reply(protocol.StatusFail, "No data downloaded")
			return
		}
		b.partitions[arg] = b.staged
		b.flashes = append(b.flashes, Flash{Partition: arg, Size: len(b.staged)})
		b.staged = nil
		b.reply(protocol.StatusOkay, "")

	case protocol.CmdErase:
		if b.locked {
			b.reply(protocol.StatusFail, "Erase is not allowed in Lock State")
			return
		}
		delete(b.partitions, arg)
		b.erased = append(b.erased, arg)
		b.reply(protocol.StatusOkay, "")

	case protocol.CmdSetActive:
		if arg != "a" && arg != "b" {
			b.reply(protocol.StatusFail, "Invalid slot")
			return
		}
		b.vars[protocol.VarCurrentSlot] = arg
		b.reply(protocol.StatusOkay, "")
		b.resetNext = true

	case protocol.CmdReboot:
		b.reply(protocol.StatusOkay, "")
		b.gone = true
		b.resetNext = true

	case protocol.CmdReboot + "-bootloader", protocol.CmdReboot + "-fastboot":
		b.reply(protocol.StatusOkay, "")
		b.resetNext = true

	case protocol.CmdFlashing + " lock", protocol.CmdFlashing + " unlock":
		b.locked = name == protocol.CmdFlashing+" lock"
		b.reply(protocol.StatusOkay, "")
		b.resetNext = true

	case protocol.CmdUpdateSuper:
		if b.staged == nil {
			b.reply(protocol.StatusFail, "No data downloaded")
			return
		}
		b.super = append(b.super, arg)
		b.staged = nil
		b.reply(protocol.StatusOkay, "")

	case protocol.CmdResizeLogicalPartition:
		partition, size, _ := strings.Cut(arg, ":")
		n, err := strconv.ParseInt(size, 10, 64)
		if err != nil {
			b.reply(protocol.StatusFail, "Invalid size")
			return
		}
		b.resized[partition] = n
		b.reply(protocol.StatusOkay, "")

	default:
		b.reply(protocol.StatusFail, "unknown command")
	}
}

func (b *Bootloader) download(arg string) {
	size, err := strconv.ParseUint(arg, 16, 32)
	if err != nil || len(arg) != protocol.DataLengthSize {
		b.reply(protocol.StatusFail, "Invalid download size")
		return
	}

	if limit, err := protocol.ParseSize(b.vars[protocol.VarMaxDownloadSize]); err == nil && int64(size) > limit {
		b.reply(protocol.StatusFail, "data too large")
		return
	}

	accepted := uint32(size)
	if b.override != nil {
		accepted = *b.override
		b.override = nil
	}

	b.staged = []byte{}
	b.expect = int64(size)
	b.reply(protocol.StatusData, fmt.Sprintf("%08x", accepted))
	if size == 0 {
		b.reply(protocol.StatusOkay, "")
	}
}

// next pops one IN frame. A pending reset happens once its reply is consumed.
// Callers hold b.mu.
func (b *Bootloader) next(maxLen int) ([]byte, bool) {
	if len(b.queue) == 0 {
		return nil, false
	}
	frame := b.queue[0]
	b.queue = b.queue[1:]

	if len(b.queue) == 0 && b.resetNext {
		b.resetNext = false
		b.generation++
		b.absent = b.absentReset
		b.linger = b.lingerReset
	}

	if len(frame) > maxLen {
		frame = frame[:maxLen]
	}
	return frame, true
}
