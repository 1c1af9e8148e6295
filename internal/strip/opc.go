package strip

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	opcDefaultAddress = "localhost:7890"
	opcSetPixels      = 0x00
	opcHeaderSize     = 4
	opcDialTimeout    = 2 * time.Second
	opcWriteTimeout   = time.Second
)

// opc implements Strip as an Open Pixel Control client.
// The connection is opened lazily and re-dialled on the next frame after a failure.
type opc struct {
	address string
	channel uint8
	logger  *slog.Logger
	mu      sync.Mutex
	conn    net.Conn
}

func newOPC(address string, channel uint8, logger *slog.Logger) *opc {
	if address == "" {
		address = opcDefaultAddress
	}
	return &opc{
		address: address,
		channel: channel,
		logger:  logger,
	}
}

// encodeOPC builds a set-pixel-colours message for the given channel.
func encodeOPC(channel uint8, pixels []RGB) []byte {
	data := flatten(pixels)
	msg := make([]byte, opcHeaderSize+len(data))
	msg[0] = channel
	msg[1] = opcSetPixels
	binary.BigEndian.PutUint16(msg[2:4], uint16(len(data)))
	copy(msg[opcHeaderSize:], data)
	return msg
}

// Render sends the frame to the OPC server.
func (o *opc) Render(pixels []RGB) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.conn == nil {
		conn, err := net.DialTimeout("tcp", o.address, opcDialTimeout)
		if err != nil {
			return fmt.Errorf("failed to connect to OPC server %s: %w", o.address, err)
		}
		o.logger.Info("Connected to OPC server", "address", o.address, "channel", o.channel)
		o.conn = conn
	}

	_ = o.conn.SetWriteDeadline(time.Now().Add(opcWriteTimeout))
	if _, err := o.conn.Write(encodeOPC(o.channel, pixels)); err != nil {
		o.conn.Close()
		o.conn = nil
		return fmt.Errorf("failed to write OPC frame: %w", err)
	}
	return nil
}

// Close drops the connection.
func (o *opc) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.conn == nil {
		return nil
	}
	err := o.conn.Close()
	o.conn = nil
	return err
}
