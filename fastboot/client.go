package fastboot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moffa90/go-fastboot/protocol"
)

const chunkSize = protocol.ChunkSize

// Transport is the device link the client drives. *transport.Binding implements it.
type Transport interface {
	// Connect opens and claims the device if it is not already
	Connect(ctx context.Context) error

	// TransferIn reads one bulk IN transfer of at most maxLen bytes
	TransferIn(ctx context.Context, maxLen int) ([]byte, error)

	// TransferOut writes one bulk OUT transfer
	TransferOut(ctx context.Context, data []byte) error

	// WaitForReconnect blocks until the device is back after re-enumerating
	WaitForReconnect(ctx context.Context) error
}

// Client speaks the fastboot protocol to one device.
//
// Exactly one command is outstanding at a time. A command issued while the
// current session is active fails with BusyError instead of being queued.
// A transfer error or an undecodable response leaves that session active, so
// the Client is unusable afterwards, even once the device reconnects. Create
// a new Client to continue.
// Client is not safe for concurrent use.
type Client struct {
	transport Transport
	config    Config

	session Session
	history []Session
}

// New creates a new Client on the given transport.
//
// Example:
//
//	b := transport.New(host)
//	if err := b.Bind(dev); err != nil {
//	    log.Fatal(err)
//	}
//	client := fastboot.New(b,
//	    fastboot.WithLogger(slog.Default()),
//	    fastboot.WithProgressCallback(progressFunc),
//	)
func New(t Transport, opts ...Option) *Client {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		transport: t,
		config:    cfg,
	}
}

// Exec sends one command and waits for its completion.
// It returns the response that ended the exchange: OKAY, or DATA for a
// download. A FAIL response is returned as *protocol.DeviceError.
//
// Example:
//
//	resp, err := client.Exec(ctx, "getvar:product")
//	fmt.Println(resp.Message)
func (c *Client) Exec(ctx context.Context, text string) (protocol.Response, error) {
	cmd, err := protocol.RawCmd(text)
	if err != nil {
		return protocol.Response{}, err
	}
	if err := c.begin(ctx, text); err != nil {
		return protocol.Response{}, err
	}
	return c.sendCommand(ctx, cmd)
}

// begin rejects the command if a session is active, then connects and
// archives the previous session.
func (c *Client) begin(ctx context.Context, text string) error {
	if c.session.Active() {
		return &BusyError{Command: text, Active: c.session.Command()}
	}

	if err := c.transport.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if len(c.session.Packets) > 0 {
		c.history = append(c.history, c.session.snapshot())
	}
	c.session = Session{}
	return nil
}

// sendCommand writes cmd and drains responses until one that is not INFO or TEXT.
func (c *Client) sendCommand(ctx context.Context, cmd []byte) (protocol.Response, error) {
	c.logDebug("send", "command", string(cmd))
	c.record(protocol.Command{Text: string(cmd)})

	if err := c.transport.TransferOut(ctx, cmd); err != nil {
		return protocol.Response{}, fmt.Errorf("send %q: %w", cmd, err)
	}

	return c.drain(ctx)
}

// drain reads packets until a status other than INFO or TEXT arrives.
func (c *Client) drain(ctx context.Context) (protocol.Response, error) {
	for {
		resp, err := c.GetPacket(ctx)
		if err != nil {
			return protocol.Response{}, err
		}
		c.record(resp)

		switch {
		case resp.Status.Informational():
			c.logInfo("bootloader", "status", string(resp.Status), "message", resp.Message)
			continue
		case resp.Status == protocol.StatusFail:
			c.logError("command failed", "command", c.session.Command(), "message", resp.Message)
			return resp, &protocol.DeviceError{Status: resp.Status, Message: resp.Message}
		default:
			c.logDebug("received", "status", string(resp.Status), "message", resp.Message)
			return resp, nil
		}
	}
}

// GetPacket reads and decodes one response transfer.
func (c *Client) GetPacket(ctx context.Context) (protocol.Response, error) {
	frame, err := c.transport.TransferIn(ctx, protocol.ResponseSize)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("read response: %w", err)
	}
	return protocol.DecodeResponse(frame)
}

// GetVar returns the value of a bootloader variable.
//
// Example:
//
//	product, err := client.GetVar(ctx, "product")
func (c *Client) GetVar(ctx context.Context, name string) (string, error) {
	cmd, err := protocol.GetVarCmd(name)
	if err != nil {
		return "", err
	}
	if err := c.begin(ctx, string(cmd)); err != nil {
		return "", err
	}

	resp, err := c.sendCommand(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("getvar %s: %w", name, err)
	}
	return resp.Message, nil
}

// TransferData downloads data into the bootloader's staging buffer.
func (c *Client) TransferData(ctx context.Context, data []byte) error {
	return c.download(ctx, "", bytes.NewReader(data), int64(len(data)))
}

// TransferReader downloads size bytes read from r.
// Sizes that do not fit the 8 digit length field fail with
// *protocol.DeviceError before anything is sent.
func (c *Client) TransferReader(ctx context.Context, r io.Reader, size int64) error {
	return c.download(ctx, "", r, size)
}

// download announces size bytes, checks the DATA acknowledgement, streams the
// payload in fixed chunks and drains the trailing responses.
func (c *Client) download(ctx context.Context, partition string, r io.Reader, size int64) error {
	cmd, err := protocol.DownloadCmd(size)
	if err != nil {
		return err
	}
	if err := c.begin(ctx, string(cmd)); err != nil {
		return err
	}

	resp, err := c.sendCommand(ctx, cmd)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if resp.Status != protocol.StatusData {
		return &protocol.DeviceError{
			Status:  resp.Status,
			Message: fmt.Sprintf("expected DATA in reply to %s", cmd),
		}
	}
	if int64(resp.DataLength) != size {
		return &protocol.DeviceError{
			Status:  resp.Status,
			Message: fmt.Sprintf("bootloader accepted %d bytes, payload is %d", resp.DataLength, size),
		}
	}

	startTime := time.Now()
	buf := make([]byte, c.config.ChunkSize)
	var sent int64

	for sent < size {
		n := int64(len(buf))
		if remaining := size - sent; remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return fmt.Errorf("read payload at offset %d: %w", sent, err)
		}
		if err := c.transport.TransferOut(ctx, buf[:n]); err != nil {
			return fmt.Errorf("send payload at offset %d: %w", sent, err)
		}
		sent += n

		c.reportProgress(Progress{
			Phase:       PhaseDownloading,
			Partition:   partition,
			BytesSent:   sent,
			TotalBytes:  size,
			Percentage:  float64(sent) / float64(size) * 100,
			ElapsedTime: time.Since(startTime),
		})
	}

	if _, err := c.drain(ctx); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	c.logDebug("download complete",
		"bytes", size,
		"elapsed", time.Since(startTime).String(),
	)
	return nil
}

// Session returns a snapshot of the current session.
func (c *Client) Session() Session {
	return c.session.snapshot()
}

// History returns snapshots of all archived sessions, oldest first.
// The current session is not included.
func (c *Client) History() []Session {
	out := make([]Session, len(c.history))
	for i := range c.history {
		out[i] = c.history[i].snapshot()
	}
	return out
}

// record appends p to the current session and fires the session hook on termination.
func (c *Client) record(p protocol.Packet) {
	if c.session.append(p) && c.config.SessionHook != nil {
		c.config.SessionHook(c.session.snapshot())
	}
}

// reportProgress calls the progress callback if configured.
func (c *Client) reportProgress(progress Progress) {
	if c.config.ProgressCallback != nil {
		c.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (c *Client) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (c *Client) logInfo(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (c *Client) logError(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Error(msg, keysAndValues...)
	}
}
