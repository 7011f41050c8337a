package fastboot

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/moffa90/go-fastboot/protocol"
)

// Slot selectors accepted by Flash.
const (
	SlotCurrent = "current"
	SlotOther   = "other"
	SlotA       = "a"
	SlotB       = "b"
)

// Flash writes data to partition.
//
// The partition is resolved against slot: "current" and "other" are looked up
// on the device, "a" and "b" are used as given, and partitions without slots
// are flashed under their bare name. Images above max-download-size go through
// the configured ImageSplitter. Logical partitions are resized to fit first.
// When applyVbmeta is set the image is padded to the partition size with its
// AVB footer moved to the end.
//
// Example:
//
//	boot, _ := entry.Bytes()
//	err := client.Flash(ctx, "boot", boot, fastboot.SlotCurrent, false)
func (c *Client) Flash(ctx context.Context, partition string, data []byte, slot string, applyVbmeta bool) error {
	target, err := c.resolvePartition(ctx, partition, slot)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", partition, err)
	}

	if applyVbmeta {
		data, err = c.applyVbmeta(ctx, target, data)
		if err != nil {
			return fmt.Errorf("apply vbmeta to %s: %w", target, err)
		}
	}

	maxSize, err := c.maxDownloadSize(ctx)
	if err != nil {
		return err
	}

	if err := c.resizeIfLogical(ctx, target, int64(len(data))); err != nil {
		return err
	}

	pieces := [][]byte{data}
	if int64(len(data)) > maxSize {
		if c.config.ImageSplitter == nil {
			return &ImageTooLargeError{Partition: target, Size: int64(len(data)), Max: maxSize}
		}
		pieces, err = c.config.ImageSplitter.Split(data, maxSize)
		if err != nil {
			return fmt.Errorf("split image for %s: %w", target, err)
		}
	}

	startTime := time.Now()
	for i, piece := range pieces {
		c.logInfo("flashing",
			"partition", target,
			"bytes", len(piece),
			"piece", i+1,
			"pieces", len(pieces),
		)

		if err := c.download(ctx, target, bytes.NewReader(piece), int64(len(piece))); err != nil {
			return fmt.Errorf("download %s: %w", target, err)
		}

		c.reportProgress(Progress{
			Phase:       PhaseFlashing,
			Partition:   target,
			BytesSent:   int64(len(piece)),
			TotalBytes:  int64(len(piece)),
			Percentage:  100,
			ElapsedTime: time.Since(startTime),
		})

		cmd, err := protocol.FlashCmd(target)
		if err != nil {
			return err
		}
		if err := c.exec(ctx, cmd); err != nil {
			return fmt.Errorf("flash %s: %w", target, err)
		}
	}

	c.reportProgress(Progress{
		Phase:       PhaseComplete,
		Partition:   target,
		BytesSent:   int64(len(data)),
		TotalBytes:  int64(len(data)),
		Percentage:  100,
		ElapsedTime: time.Since(startTime),
	})
	return nil
}

// Erase erases partition on the current slot, or bare when it has no slots.
func (c *Client) Erase(ctx context.Context, partition string) error {
	target, err := c.resolvePartition(ctx, partition, SlotCurrent)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", partition, err)
	}

	cmd, err := protocol.EraseCmd(target)
	if err != nil {
		return err
	}
	if err := c.exec(ctx, cmd); err != nil {
		return fmt.Errorf("erase %s: %w", target, err)
	}
	return nil
}

// Reboot reboots the device. An empty target boots normally; other targets
// such as "bootloader", "fastboot" or "recovery" are sent as reboot-<target>.
// It does not wait for the device to come back.
func (c *Client) Reboot(ctx context.Context, target string) error {
	cmd, err := protocol.RebootCmd(target)
	if err != nil {
		return err
	}
	if err := c.exec(ctx, cmd); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}

// RebootBootloader reboots into the bootloader and waits for the device to
// enumerate again.
func (c *Client) RebootBootloader(ctx context.Context) error {
	if err := c.Reboot(ctx, "bootloader"); err != nil {
		return err
	}
	return c.waitForReconnect(ctx, "reboot-bootloader")
}

// RebootFastboot reboots into userspace fastboot and waits for the device to
// enumerate again.
func (c *Client) RebootFastboot(ctx context.Context) error {
	if err := c.Reboot(ctx, "fastboot"); err != nil {
		return err
	}
	return c.waitForReconnect(ctx, "reboot-fastboot")
}

// CurrentSlot returns the active slot, "a" or "b".
func (c *Client) CurrentSlot(ctx context.Context) (string, error) {
	value, err := c.GetVar(ctx, protocol.VarCurrentSlot)
	if err != nil {
		return "", err
	}

	slot := strings.TrimPrefix(strings.TrimSpace(value), "_")
	if slot != SlotA && slot != SlotB {
		return "", &SlotError{Slot: value}
	}
	return slot, nil
}

// OtherSlot returns the inactive slot.
func (c *Client) OtherSlot(ctx context.Context) (string, error) {
	current, err := c.CurrentSlot(ctx)
	if err != nil {
		return "", err
	}
	if current == SlotA {
		return SlotB, nil
	}
	return SlotA, nil
}

// SetActive marks slot ("a" or "b") active and waits for the device to settle.
func (c *Client) SetActive(ctx context.Context, slot string) error {
	cmd, err := protocol.SetActiveCmd(slot)
	if err != nil {
		return err
	}
	if err := c.exec(ctx, cmd); err != nil {
		return fmt.Errorf("set active slot %s: %w", slot, err)
	}
	return c.waitForReconnect(ctx, "set_active")
}

// SetActiveOther switches to the inactive slot.
func (c *Client) SetActiveOther(ctx context.Context) error {
	other, err := c.OtherSlot(ctx)
	if err != nil {
		return err
	}
	return c.SetActive(ctx, other)
}

// Lock locks the bootloader. The device re-enumerates afterwards.
func (c *Client) Lock(ctx context.Context) error {
	return c.flashing(ctx, "lock")
}

// Unlock unlocks the bootloader. The device re-enumerates afterwards.
func (c *Client) Unlock(ctx context.Context) error {
	return c.flashing(ctx, "unlock")
}

func (c *Client) flashing(ctx context.Context, action string) error {
	cmd, err := protocol.FlashingCmd(action)
	if err != nil {
		return err
	}
	if err := c.exec(ctx, cmd); err != nil {
		return fmt.Errorf("flashing %s: %w", action, err)
	}
	return c.waitForReconnect(ctx, "flashing "+action)
}

// UpdateSuper downloads super partition metadata and applies it to partition.
// With wipe set the existing logical partitions are discarded.
func (c *Client) UpdateSuper(ctx context.Context, partition string, metadata []byte, wipe bool) error {
	cmd, err := protocol.UpdateSuperCmd(partition, wipe)
	if err != nil {
		return err
	}
	if err := c.download(ctx, partition, bytes.NewReader(metadata), int64(len(metadata))); err != nil {
		return fmt.Errorf("download super metadata: %w", err)
	}
	if err := c.exec(ctx, cmd); err != nil {
		return fmt.Errorf("update super %s: %w", partition, err)
	}
	return nil
}

// exec runs a prebuilt command, discarding the response.
func (c *Client) exec(ctx context.Context, cmd []byte) error {
	if err := c.begin(ctx, string(cmd)); err != nil {
		return err
	}
	_, err := c.sendCommand(ctx, cmd)
	return err
}

func (c *Client) waitForReconnect(ctx context.Context, after string) error {
	c.logInfo("waiting for device", "after", after)
	if err := c.transport.WaitForReconnect(ctx); err != nil {
		return fmt.Errorf("reconnect after %s: %w", after, err)
	}
	return nil
}

// resolvePartition appends the slot suffix when the partition has slots.
func (c *Client) resolvePartition(ctx context.Context, partition, slot string) (string, error) {
	if slot == "" {
		slot = SlotCurrent
	}
	switch slot {
	case SlotCurrent, SlotOther, SlotA, SlotB:
	default:
		return "", &SlotError{Slot: slot}
	}

	hasSlot, err := c.GetVar(ctx, protocol.VarHasSlot+":"+partition)
	if err != nil {
		if !protocol.IsDeviceError(err) {
			return "", err
		}
		hasSlot = "no"
	}
	if hasSlot != "yes" {
		if slot != SlotCurrent {
			c.logInfo("partition has no slots, ignoring slot", "partition", partition, "slot", slot)
		}
		return partition, nil
	}

	suffix := slot
	switch slot {
	case SlotCurrent:
		suffix, err = c.CurrentSlot(ctx)
	case SlotOther:
		suffix, err = c.OtherSlot(ctx)
	}
	if err != nil {
		return "", err
	}
	return partition + "_" + suffix, nil
}

// maxDownloadSize reads max-download-size. Bootloaders that do not report it
// get the protocol maximum.
func (c *Client) maxDownloadSize(ctx context.Context) (int64, error) {
	value, err := c.GetVar(ctx, protocol.VarMaxDownloadSize)
	if err != nil {
		if protocol.IsDeviceError(err) {
			c.logDebug("max-download-size not reported", "error", err)
			return protocol.MaxDownloadSize, nil
		}
		return 0, err
	}

	size, err := protocol.ParseSize(value)
	if err != nil {
		return 0, fmt.Errorf("max-download-size: %w", err)
	}
	return size, nil
}

// resizeIfLogical resizes a dynamic partition so size bytes fit.
func (c *Client) resizeIfLogical(ctx context.Context, partition string, size int64) error {
	logical, err := c.GetVar(ctx, protocol.VarIsLogical+":"+partition)
	if err != nil {
		if protocol.IsDeviceError(err) {
			return nil
		}
		return err
	}
	if logical != "yes" {
		return nil
	}

	cmd, err := protocol.ResizeLogicalPartitionCmd(partition, size)
	if err != nil {
		return err
	}
	c.logDebug("resizing logical partition", "partition", partition, "size", size)
	if err := c.exec(ctx, cmd); err != nil {
		return fmt.Errorf("resize %s: %w", partition, err)
	}
	return nil
}
