// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 OpenVelo

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/openvelo/turbostat/pkg/turbohmi"
)

// Transport delivers whole notification buffers from a bridge and carries
// field requests back to the bike.
type Transport interface {
	// ReadNotification blocks until the next notification arrives.
	ReadNotification() ([]byte, error)
	// WriteRequest sends a 2-byte field request.
	WriteRequest(req []byte) error
	Close() error
}

// ErrConnectionClosed is returned when reading from a closed transport
var ErrConnectionClosed = fmt.Errorf("connection closed")

// SerialTransport reads framed notifications from a serial bridge. The
// bridge wraps each BLE notification in a byte-stuffed CRC frame.
type SerialTransport struct {
	port     serial.Port
	deframer *turbohmi.Deframer
	buf      []byte
}

func (s *SerialTransport) ReadNotification() ([]byte, error) {
	for {
		n, err := s.port.Read(s.buf)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			payload, err := s.deframer.DecodeByte(s.buf[i])
			if err != nil {
				// Framing errors resynchronize on the next START;
				// surface them so the caller can count them.
				return nil, err
			}
			if payload != nil {
				return payload, nil
			}
		}
	}
}

func (s *SerialTransport) WriteRequest(req []byte) error {
	frame, err := turbohmi.EncodeFrame(req)
	if err != nil {
		return err
	}
	_, err = s.port.Write(frame)
	return err
}

func (s *SerialTransport) Close() error {
	return s.port.Close()
}

// WebSocketTransport reads notifications from a WebSocket bridge. Each
// binary message is one notification; no extra framing is needed.
type WebSocketTransport struct {
	conn   *websocket.Conn
	closed bool
}

func (w *WebSocketTransport) ReadNotification() ([]byte, error) {
	if w.closed {
		return nil, ErrConnectionClosed
	}
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			return nil, err
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

func (w *WebSocketTransport) WriteRequest(req []byte) error {
	return w.conn.WriteMessage(websocket.BinaryMessage, req)
}

func (w *WebSocketTransport) Close() error {
	return w.conn.Close()
}

// OpenSerialTransport opens a serial bridge connection
func OpenSerialTransport(portName string, baudRate int) (Transport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}

	return &SerialTransport{
		port:     port,
		deframer: turbohmi.NewDeframer(),
		buf:      make([]byte, 128),
	}, nil
}

// OpenWebSocketTransport opens a WebSocket bridge connection with HTTP Basic auth
func OpenWebSocketTransport(wsURL, username, password string, skipSSLVerify bool) (Transport, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
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
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return &WebSocketTransport{conn: conn}, nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("TURBOSTAT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenTransport opens either a serial or WebSocket bridge based on flags
func OpenTransport() (Transport, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := OpenWebSocketTransport(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		conn, err := OpenSerialTransport(portName, baudRate)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}
