// Package fastboot implements the fastboot request/response engine and the
// partition operations a factory flash is built from.
//
// # Overview
//
// A Client sends one command at a time over a Transport and drains the
// bootloader's replies:
//   - INFO and TEXT lines are logged and reading continues
//   - OKAY ends the command
//   - FAIL ends the command with *protocol.DeviceError
//   - DATA acknowledges a download and hands control back to the client
//
// Every exchange is recorded as a Session. Sessions are archived into an
// append-only history when the next command starts.
//
// # Basic Usage
//
//	b := transport.New(host)
//	if err := b.Bind(dev); err != nil {
//	    log.Fatal(err)
//	}
//
//	client := fastboot.New(b)
//	product, err := client.GetVar(ctx, "product")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	img, _ := os.ReadFile("boot.img")
//	err = client.Flash(ctx, "boot", img, fastboot.SlotCurrent, false)
//
// # Downloads
//
// TransferData announces the payload with download:%08x, requires a DATA
// reply announcing exactly the same length and streams the payload in
// 16384 byte chunks. Payloads that do not fit eight hex digits fail before
// anything is written.
//
// # Slots
//
// Flash and Erase resolve A/B slots on the device:
//
//	"current"  has-slot:<p> then current-slot
//	"other"    the slot that is not current
//	"a", "b"   used as given
//
// Partitions without slots are addressed by their bare name.
//
// # Reconnects
//
// RebootBootloader, SetActive and Lock/Unlock make the device re-enumerate.
// These operations return only after Transport.WaitForReconnect has found
// the device again.
//
// # Progress Tracking
//
//	client := fastboot.New(b,
//	    fastboot.WithProgressCallback(func(p fastboot.Progress) {
//	        fmt.Printf("[%s] %s %.1f%%\n", p.Phase, p.Partition, p.Percentage)
//	    }),
//	)
//
// # Error Handling
//
//	err := client.Flash(ctx, "boot", img, fastboot.SlotCurrent, false)
//	var devErr *protocol.DeviceError
//	if errors.As(err, &devErr) {
//	    fmt.Println("bootloader refused:", devErr.Message)
//	}
//
// BusyError means a command was issued while another was active and
// indicates a sequencing bug in the caller.
package fastboot
