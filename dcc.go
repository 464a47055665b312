// Copyright (c) 2024 Jerzy Dąbrowski
// Based on original work by Thomas Jager, 2009. All rights reserved.
//
// This project is a fork of the original go-ircevent library created by Thomas Jager.
// Redistribution and use in source and binary forms, with or without modification, are permitted provided
// that the following conditions are met:
//
//   - Redistributions of source code must retain the above copyright notice, this list of conditions,
//     and the following disclaimer.
//   - Redistributions in binary form must reproduce the above copyright notice, this list of conditions,
//     and the following disclaimer in the documentation and/or other materials provided with the distribution.
//   - Neither the name of the original authors nor the names of its contributors may be used to endorse
//     or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED "AS IS" WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT NOT
// LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE, AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE COPYRIGHT HOLDERS OR CONTRIBUTORS BE LIABLE FOR ANY CLAIM, DAMAGES, OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT, OTHERWISE, ARISING FROM, OUT OF, OR IN CONNECTION WITH THE SOFTWARE
// OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package irc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
)

// DCCChat is a single established DCC CHAT session.
type DCCChat struct {
	Nick     string
	Conn     net.Conn
	Incoming chan string
	Outgoing chan string
}

// SimpleDCCHandler is the default DCCHandler: it accepts incoming DCC
// CHAT offers forwarded by the parser's CTCP unwrap and exposes a small
// message API (SendDCCMessage/GetDCCMessage) to the application. File
// transfer (DCC SEND) is not implemented: see DESIGN.md.
type SimpleDCCHandler struct {
	Log *log.Logger

	mu    sync.Mutex
	chats map[string]*DCCChat
}

// NewSimpleDCCHandler returns a handler with no active chats.
func NewSimpleDCCHandler(logger *log.Logger) *SimpleDCCHandler {
	return &SimpleDCCHandler{Log: logger, chats: make(map[string]*DCCChat)}
}

// HandleCTCPDCC parses a CTCP DCC request and, for "DCC CHAT", dials the
// offered (ip, port) and starts a read/write pump. Other DCC subcommands
// (SEND, RESUME, ...) are out of scope and are ignored.
func (h *SimpleDCCHandler) HandleCTCPDCC(e *Event) {
	msg := strings.Trim(e.Message(), ctcpDelim)
	fields := strings.Fields(msg)
	// "DCC" "CHAT" "chat" <ip-as-uint32> <port>
	if len(fields) < 5 || !strings.EqualFold(fields[0], "DCC") || !strings.EqualFold(fields[1], "CHAT") {
		return
	}
	ipN, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return
	}
	port, err := strconv.Atoi(fields[4])
	if err != nil {
		return
	}
	ip := int2ip(uint32(ipN))
	h.connect(e.Nick, fmt.Sprintf("%s:%d", ip.String(), port))
}

func (h *SimpleDCCHandler) connect(nick, addr string) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		h.logf("dcc chat dial %s: %v", nick, err)
		return
	}
	chat := &DCCChat{
		Nick:     nick,
		Conn:     conn,
		Incoming: make(chan string, 100),
		Outgoing: make(chan string, 100),
	}
	h.mu.Lock()
	h.chats[nick] = chat
	h.mu.Unlock()
	go h.pump(chat)
}

func (h *SimpleDCCHandler) pump(chat *DCCChat) {
	defer chat.Conn.Close()
	defer func() {
		h.mu.Lock()
		delete(h.chats, chat.Nick)
		h.mu.Unlock()
	}()

	readDone := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(chat.Conn)
		for scanner.Scan() {
			chat.Incoming <- scanner.Text()
		}
		close(chat.Incoming)
		close(readDone)
	}()

	for {
		select {
		case msg, ok := <-chat.Outgoing:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(chat.Conn, "%s\r\n", msg); err != nil {
				return
			}
		case <-readDone:
			return
		}
	}
}

// InitiateDCCChat offers a DCC CHAT to target over the given connection
// and accepts the resulting inbound connection.
func (h *SimpleDCCHandler) InitiateDCCChat(c *Connection, target string) error {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return fmt.Errorf("dcc chat listen: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	ip := localOutboundIP()

	c.Privmsg(target, fmt.Sprintf("%sDCC CHAT chat %d %d%s", ctcpDelim, ip2int(ip), port, ctcpDelim))

	go func() {
		conn, err := listener.Accept()
		listener.Close()
		if err != nil {
			h.logf("dcc chat accept: %v", err)
			return
		}
		chat := &DCCChat{Nick: target, Conn: conn, Incoming: make(chan string, 100), Outgoing: make(chan string, 100)}
		h.mu.Lock()
		h.chats[target] = chat
		h.mu.Unlock()
		h.pump(chat)
	}()
	return nil
}

// SendDCCMessage queues message for delivery to nick's active DCC chat.
func (h *SimpleDCCHandler) SendDCCMessage(nick, message string) error {
	h.mu.Lock()
	chat, ok := h.chats[nick]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("no active DCC chat with %s", nick)
	}
	select {
	case chat.Outgoing <- message:
		return nil
	default:
		return fmt.Errorf("dcc chat with %s: send buffer full", nick)
	}
}

// GetDCCMessage returns the next buffered message from nick's DCC chat,
// or an error if none is available.
func (h *SimpleDCCHandler) GetDCCMessage(nick string) (string, error) {
	h.mu.Lock()
	chat, ok := h.chats[nick]
	h.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("no active DCC chat with %s", nick)
	}
	select {
	case msg, ok := <-chat.Incoming:
		if !ok {
			return "", fmt.Errorf("dcc chat with %s closed", nick)
		}
		return msg, nil
	default:
		return "", fmt.Errorf("no message available from %s", nick)
	}
}

// ListActiveDCCChats returns the nicks with a currently open DCC chat.
func (h *SimpleDCCHandler) ListActiveDCCChats() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.chats))
	for nick := range h.chats {
		out = append(out, nick)
	}
	return out
}

// Close closes every active DCC chat.
func (h *SimpleDCCHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for nick, chat := range h.chats {
		chat.Conn.Close()
		delete(h.chats, nick)
	}
}

func (h *SimpleDCCHandler) logf(format string, a ...any) {
	if h.Log != nil {
		h.Log.Printf(format, a...)
	}
}

func ip2int(ip net.IP) uint32 {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(ip4)
}

func int2ip(n uint32) net.IP {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n)
	return net.IP(b)
}

func localOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return net.ParseIP("127.0.0.1")
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP
}
