package fastboot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/moffa90/go-fastboot/protocol"
)

// AVB footer layout: the last 64 bytes of a signed image, starting with "AVBf".
const avbFooterSize = 64

var avbFooterMagic = []byte("AVBf")

// applyVbmeta pads data to the partition size, keeping the AVB footer at the
// very end where the verifier looks for it. Images without a footer, such as
// vbmeta.img itself, and partitions with no reported size are left unchanged.
func (c *Client) applyVbmeta(ctx context.Context, partition string, data []byte) ([]byte, error) {
	if !hasAvbFooter(data) {
		c.logDebug("no AVB footer, flashing image as is", "partition", partition)
		return data, nil
	}

	value, err := c.GetVar(ctx, protocol.VarPartitionSize+":"+partition)
	if err != nil {
		if protocol.IsDeviceError(err) {
			c.logDebug("partition-size not reported, flashing image as is", "partition", partition, "error", err)
			return data, nil
		}
		return nil, err
	}
	size, err := protocol.ParseSize(value)
	if err != nil {
		return nil, fmt.Errorf("partition-size: %w", err)
	}
	return padAvbImage(data, size)
}

func hasAvbFooter(data []byte) bool {
	if len(data) < avbFooterSize {
		return false
	}
	return bytes.HasPrefix(data[len(data)-avbFooterSize:], avbFooterMagic)
}

// padAvbImage moves the footer to the end of a partitionSize buffer. Data
// without a footer is returned as is.
func padAvbImage(data []byte, partitionSize int64) ([]byte, error) {
	if !hasAvbFooter(data) {
		return data, nil
	}
	if int64(len(data)) > partitionSize {
		return nil, fmt.Errorf("image of %d bytes exceeds partition size %d", len(data), partitionSize)
	}
	if int64(len(data)) == partitionSize {
		return data, nil
	}

	footerAt := len(data) - avbFooterSize
	out := make([]byte, partitionSize)
	copy(out, data[:footerAt])
	copy(out[partitionSize-avbFooterSize:], data[footerAt:])
	return out, nil
}
