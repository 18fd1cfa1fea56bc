// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/Thermoquad/irscope/pkg/pulselink"
)

// Connection provides a common interface for reading/writing bytes from serial or WebSocket
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// ErrTimeout is returned when the probe does not answer in time
var ErrTimeout = errors.New("timed out waiting for probe")

// WebSocketConnection wraps a WebSocket connection for byte-level reading
type WebSocketConnection struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return 0, err
		}

		// PulseLink frames travel in binary messages; the bridge may
		// interleave text status lines which are skipped.
		if messageType != websocket.BinaryMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// OpenSerialConnection opens a serial port connection
func OpenSerialConnection(portName string, baudRate int) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return &WebSocketConnection{conn: conn}, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("IRSCOPE_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal, e.g. piped input
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens either a serial or WebSocket connection based on flags
func OpenConnection() (Connection, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		slog.Info("connected", "url", wsURL)
		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		conn, err := OpenSerialConnection(portName, baudRate)
		if err != nil {
			return nil, "", err
		}
		slog.Info("connected", "port", portName, "baud", baudRate)
		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified (or set in the config file)")
}

// linkEvent is one result of decoding the probe byte stream.
type linkEvent struct {
	packet    *pulselink.Packet
	decodeErr error
	// synced is set on the first packet; skipped counts the bytes
	// discarded before it.
	synced  bool
	skipped int
}

// linkReader decodes PulseLink packets on its own goroutine. Decode errors
// before the first valid packet are only counted, since the reader usually
// starts in the middle of a frame.
type linkReader struct {
	conn   Connection
	events chan linkEvent
	err    chan error
	done   chan struct{}
}

func startLinkReader(conn Connection) *linkReader {
	r := &linkReader{
		conn:   conn,
		events: make(chan linkEvent, 64),
		err:    make(chan error, 1),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *linkReader) run() {
	decoder := pulselink.NewDecoder()
	buf := make([]byte, 256)
	synchronized := false
	skipped := 0

	for {
		n, err := r.conn.Read(buf)
		if err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			// A websocket that failed once reports ErrConnectionClosed
			// on the next read. Serial errors are usually transient.
			if errors.Is(err, ErrConnectionClosed) || errors.Is(err, io.EOF) {
				r.err <- err
				return
			}
			slog.Warn("read error", "err", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		for i := 0; i < n; i++ {
			packet, decodeErr := decoder.DecodeByte(buf[i])
			var ev linkEvent
			switch {
			case decodeErr != nil:
				if !synchronized {
					skipped++
					continue
				}
				slog.Debug("decode error", "err", decodeErr)
				ev = linkEvent{decodeErr: decodeErr}
			case packet != nil:
				ev = linkEvent{packet: packet}
				if !synchronized {
					synchronized = true
					ev.synced = true
					ev.skipped = skipped
				}
			default:
				continue
			}

			select {
			case r.events <- ev:
			case <-r.done:
				return
			}
		}
	}
}

// Stop ends delivery. The goroutine exits on its next read.
func (r *linkReader) Stop() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

// await waits for a packet of the given type, skipping everything else. An
// ERROR packet from the probe ends the wait.
func (r *linkReader) await(msgType uint8, timeout time.Duration) (*pulselink.Packet, error) {
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-r.events:
			if ev.packet == nil {
				continue
			}
			if ev.packet.Type() == msgType {
				return ev.packet, nil
			}
			if ev.packet.IsError() {
				return nil, probeError(ev.packet)
			}
		case err := <-r.err:
			return nil, err
		case <-deadline:
			return nil, ErrTimeout
		}
	}
}

func probeError(p *pulselink.Packet) error {
	code, _ := pulselink.GetMapUint(p.Map(), pulselink.KeyErrorCode)
	message, _ := pulselink.GetMapString(p.Map(), pulselink.KeyErrorMessage)
	return fmt.Errorf("probe error 0x%02X: %s", code, message)
}

// sendPacket encodes and writes one packet.
func sendPacket(conn Connection, p *pulselink.Packet) error {
	wire, err := pulselink.Encode(p)
	if err != nil {
		return err
	}
	if _, err := conn.Write(wire); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}
