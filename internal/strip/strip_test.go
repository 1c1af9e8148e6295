package strip

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEncodeOPC(t *testing.T) {
	msg := encodeOPC(2, []RGB{{R: 1, G: 2, B: 3}, {R: 4, G: 5, B: 6}})

	want := []byte{2, 0, 0, 6, 1, 2, 3, 4, 5, 6}
	if !bytes.Equal(msg, want) {
		t.Errorf("encodeOPC() = %v, want %v", msg, want)
	}
}

func TestOPC_RenderOverTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, acceptErr := ln.Accept()
		if acceptErr != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 7)
		if _, readErr := io.ReadFull(conn, buf); readErr == nil {
			received <- buf
		}
	}()

	s := newOPC(ln.Addr().String(), 0, newTestLogger())
	defer s.Close()

	if err := s.Render([]RGB{{R: 255, G: 0, B: 0}}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	select {
	case got := <-received:
		want := []byte{0, 0, 0, 3, 255, 0, 0}
		if !bytes.Equal(got, want) {
			t.Errorf("server received %v, want %v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for OPC frame")
	}
}

func TestOPC_RenderUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	s := newOPC(addr, 0, newTestLogger())
	if err := s.Render([]RGB{{}}); err == nil {
		t.Fatal("Render() should fail when the server is down")
	}
}

func TestBuildArtDmx(t *testing.T) {
	packet := buildArtDmx(3, 7, []byte{10, 20, 30})

	if !bytes.Equal(packet[0:8], []byte("Art-Net\x00")) {
		t.Errorf("bad signature %q", packet[0:8])
	}
	if op := binary.LittleEndian.Uint16(packet[8:10]); op != artNetOpDmx {
		t.Errorf("opcode = %#x", op)
	}
	if packet[12] != 7 {
		t.Errorf("sequence = %d", packet[12])
	}
	if u := binary.LittleEndian.Uint16(packet[14:16]); u != 3 {
		t.Errorf("universe = %d", u)
	}
	// Odd payloads are padded to an even length.
	if n := binary.BigEndian.Uint16(packet[16:18]); n != 4 {
		t.Errorf("length = %d, want 4", n)
	}
	if len(packet) != artNetHeaderSize+4 {
		t.Errorf("packet len = %d", len(packet))
	}
}

func TestArtNet_SplitsUniverses(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	s, err := newArtNet(pc.LocalAddr().String(), 0, newTestLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// 200 pixels = 600 bytes = 510 + 90.
	if err := s.Render(make([]RGB, 200)); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	_ = pc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1024)
	var universes []uint16
	for range 2 {
		n, _, readErr := pc.ReadFrom(buf)
		if readErr != nil {
			t.Fatalf("ReadFrom() error = %v", readErr)
		}
		if n < artNetHeaderSize {
			t.Fatalf("short packet %d", n)
		}
		universes = append(universes, binary.LittleEndian.Uint16(buf[14:16]))
	}
	if universes[0] != 0 || universes[1] != 1 {
		t.Errorf("universes = %v, want [0 1]", universes)
	}
}

func TestNew_RejectsWireOverflow(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"opc too many LEDs", Config{Backend: "opc", Address: "localhost:7890", LEDCount: maxOPCPixels + 1}},
		{"opc channel", Config{Backend: "opc", Address: "localhost:7890", LEDCount: 10, Channel: 256}},
		{"opc negative channel", Config{Backend: "opc", Address: "localhost:7890", LEDCount: 10, Channel: -1}},
		{"artnet universe", Config{Backend: "artnet", Address: "127.0.0.1", LEDCount: 10, Channel: maxArtNetUniverse + 1}},
		{"artnet spills past last universe", Config{Backend: "artnet", Address: "127.0.0.1", LEDCount: 171, Channel: maxArtNetUniverse}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s, err := New(tt.cfg, newTestLogger()); err == nil {
				s.Close()
				t.Errorf("New(%+v) accepted", tt.cfg)
			}
		})
	}

	s, err := New(Config{Backend: "opc", Address: "localhost:7890", LEDCount: maxOPCPixels, Channel: 255}, newTestLogger())
	if err != nil {
		t.Fatalf("largest OPC strip rejected: %v", err)
	}
	s.Close()
}

func TestNew_Backends(t *testing.T) {
	if _, err := New(Config{Backend: "log", LEDCount: 0}, newTestLogger()); err == nil {
		t.Error("zero LED count should be rejected")
	}
	if _, err := New(Config{Backend: "neopixel", LEDCount: 10}, newTestLogger()); err == nil {
		t.Error("unknown backend should be rejected")
	}

	s, err := New(Config{Backend: "log", LEDCount: 10}, newTestLogger())
	if err != nil {
		t.Fatalf("New(log) error = %v", err)
	}
	if err := s.Render([]RGB{{R: 1}}); err != nil {
		t.Fatal(err)
	}
	ls, ok := s.(*logStrip)
	if !ok {
		t.Fatalf("New(log) returned %T", s)
	}
	if len(ls.last) != 1 || ls.last[0].R != 1 || ls.frames != 1 {
		t.Errorf("last = %v after %d frames", ls.last, ls.frames)
	}
}
