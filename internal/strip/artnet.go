package strip

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
)

const (
	artNetPort       = 6454
	artNetHeaderSize = 18
	artNetOpDmx      = 0x5000
	artNetVersion    = 14
	dmxUniverseSize  = 512

	// artNetUniverseSize keeps whole pixels inside one universe.
	artNetUniverseSize = dmxUniverseSize - dmxUniverseSize%3
)

// artNet implements Strip as an ArtDmx sender. A frame larger than one
// universe continues into the following universes.
type artNet struct {
	conn     *net.UDPConn
	universe int
	logger   *slog.Logger
	mu       sync.Mutex
	sequence uint8
}

func newArtNet(address string, universe int, logger *slog.Logger) (*artNet, error) {
	if address == "" {
		return nil, fmt.Errorf("artnet backend requires an address")
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, strconv.Itoa(artNetPort))
	}

	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Art-Net node %s: %w", address, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open Art-Net socket: %w", err)
	}

	logger.Info("Art-Net output ready", "node", addr.String(), "universe", universe)
	return &artNet{conn: conn, universe: universe, logger: logger}, nil
}

// buildArtDmx frames one universe of DMX data.
func buildArtDmx(universe int, sequence uint8, data []byte) []byte {
	// DMX payloads must be even length.
	length := len(data)
	if length%2 != 0 {
		length++
	}

	packet := make([]byte, artNetHeaderSize+length)
	copy(packet[0:8], "Art-Net\x00")
	binary.LittleEndian.PutUint16(packet[8:10], artNetOpDmx)
	binary.BigEndian.PutUint16(packet[10:12], artNetVersion)
	packet[12] = sequence
	packet[13] = 0
	binary.LittleEndian.PutUint16(packet[14:16], uint16(universe))
	binary.BigEndian.PutUint16(packet[16:18], uint16(length))
	copy(packet[artNetHeaderSize:], data)
	return packet
}

// Render sends the frame, one packet per universe.
func (a *artNet) Render(pixels []RGB) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data := flatten(pixels)
	a.sequence++
	if a.sequence == 0 {
		a.sequence = 1 // 0 disables sequencing on receivers
	}

	for u := 0; len(data) > 0; u++ {
		n := min(len(data), artNetUniverseSize)
		if _, err := a.conn.Write(buildArtDmx(a.universe+u, a.sequence, data[:n])); err != nil {
			return fmt.Errorf("failed to send Art-Net universe %d: %w", a.universe+u, err)
		}
		data = data[n:]
	}
	return nil
}

// Close releases the socket.
func (a *artNet) Close() error {
	return a.conn.Close()
}
