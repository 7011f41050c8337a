package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ReconnectSchedule is the list of pauses between reconnect attempts.
// One attempt is made before the first pause and one after each pause.
type ReconnectSchedule []time.Duration

// DefaultSchedule retries after 3 seconds and again after 30 seconds.
var DefaultSchedule = ReconnectSchedule{3 * time.Second, 30 * time.Second}

// backOff returns the schedule as a backoff.BackOff that stops after the last pause.
func (s ReconnectSchedule) backOff() backoff.BackOff {
	return &scheduleBackOff{delays: s}
}

type scheduleBackOff struct {
	delays []time.Duration
	next   int
}

func (b *scheduleBackOff) NextBackOff() time.Duration {
	if b.next >= len(b.delays) {
		return backoff.Stop
	}
	d := b.delays[b.next]
	b.next++
	return d
}

func (b *scheduleBackOff) Reset() {
	b.next = 0
}

// WaitForReconnect finds the bound device again after it re-enumerated.
//
// Attempts follow the configured schedule. The first attempt runs while the
// old enumeration may still be visible, so it ignores a device found at the
// bound device's old location. When every scheduled attempt misses, it blocks until the host reports a connect event and makes one
// final attempt. Errors other than UsbConnectionError stop the schedule
// and are returned immediately.
func (b *Binding) WaitForReconnect(ctx context.Context) error {
	var stale string
	if b.device != nil {
		stale = location(b.device)
	}

	attempt := 0
	op := func() error {
		attempt++
		b.logDebug("reconnect attempt", "attempt", attempt, "serial", b.serial)

		skip := ""
		if attempt == 1 {
			skip = stale
		}
		err := b.reconnect(ctx, skip)
		if err == nil || IsUsbConnectionError(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	notify := func(err error, next time.Duration) {
		b.logInfo("device not back yet", "serial", b.serial, "retry_in", next.String())
	}

	bo := backoff.WithContext(b.config.Schedule.backOff(), ctx)
	err := backoff.RetryNotifyWithTimer(op, bo, notify, b.config.Timer)
	if err == nil {
		b.logInfo("device reconnected", "serial", b.serial, "attempts", attempt)
		return nil
	}
	if !IsUsbConnectionError(err) {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.logInfo("waiting for device connect event", "serial", b.serial)
	if err := b.host.WaitForConnect(ctx); err != nil {
		return fmt.Errorf("wait for connect event: %w", err)
	}

	if err := b.Reconnect(ctx); err != nil {
		return err
	}
	b.logInfo("device reconnected", "serial", b.serial, "attempts", attempt+1)
	return nil
}
