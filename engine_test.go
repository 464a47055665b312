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
	"net"
	"strings"
	"testing"
	"time"
)

func TestReadLoopSendsKeepalivePingOnTimeoutInsteadOfDisconnecting(t *testing.T) {
	c := newTestConnection()
	c.cfg.SocketTimeout = 10 * time.Millisecond
	server, client := net.Pipe()
	defer server.Close()
	c.socket = client
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	errCh := make(chan error, 1)
	go func() { errCh <- c.readLoop() }()

	ol := <-c.pwrite
	if !strings.HasPrefix(ol.line, "PING ") {
		t.Errorf("expected a keepalive PING on read timeout, got %q", ol.line)
	}
	if !ol.immediate {
		t.Error("expected the keepalive PING to bypass flood control")
	}

	client.Close()
	<-errCh
}

func TestHandleErrorClassifiesPermanentAsNonTransient(t *testing.T) {
	c := newTestConnection()
	c.handleLine(":irc.example.net ERROR :Closing Link: (K-lined)")

	if c.pendingErr == nil {
		t.Fatal("expected handleError to record a pending classified error")
	}
	ircErr, ok := c.pendingErr.(*IrcError)
	if !ok {
		t.Fatalf("expected *IrcError, got %T", c.pendingErr)
	}
	if ircErr.Reason != ReasonBanned {
		t.Errorf("expected ReasonBanned for a k-line, got %v", ircErr.Reason)
	}
	if ircErr.Transient() {
		t.Error("expected a k-line to be non-transient")
	}
}

func TestHandleErrorClassifiesServerErrorAsTransient(t *testing.T) {
	c := newTestConnection()
	c.handleLine(":irc.example.net ERROR :Closing Link: (Too many connections)")

	ircErr, ok := c.pendingErr.(*IrcError)
	if !ok {
		t.Fatalf("expected *IrcError, got %T", c.pendingErr)
	}
	if !ircErr.Transient() {
		t.Error("expected a server-capacity error to be transient and retried")
	}
}

func TestReadLoopSurfacesClassifiedErrorInsteadOfRawEOF(t *testing.T) {
	c := newTestConnection()
	server, client := net.Pipe()
	c.socket = client
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	errCh := make(chan error, 1)
	go func() { errCh <- c.readLoop() }()

	server.Write([]byte("ERROR :Closing Link: (K-lined)\r\n"))
	server.Close()

	err := <-errCh
	ircErr, ok := err.(*IrcError)
	if !ok {
		t.Fatalf("expected readLoop to surface the classified *IrcError, got %T (%v)", err, err)
	}
	if ircErr.Reason != ReasonBanned {
		t.Errorf("expected ReasonBanned, got %v", ircErr.Reason)
	}
}

func TestShutdownCapturesReconnectChannelsRegardlessOfSnapshotsEnabled(t *testing.T) {
	c := newTestConnection()
	c.cfg.SnapshotsEnabled = false
	c.dao.CreateChannel("#persist")
	c.end = make(chan struct{})

	var captured *Event
	bus := c.listenerBus.(*SimpleListenerBus)
	bus.AddCallback("DISCONNECT", func(e *Event) { captured = e })

	c.shutdown(nil)

	c.stateMu.Lock()
	key, ok := c.reconnectChannels["#persist"]
	c.stateMu.Unlock()
	if !ok {
		t.Fatal("expected #persist to be captured for rejoin even with SnapshotsEnabled=false")
	}
	if key != "" {
		t.Errorf("expected no key for #persist, got %q", key)
	}

	payload := captured.Payload.(*DisconnectPayload)
	if payload.Snapshot != nil {
		t.Error("expected no published Snapshot when SnapshotsEnabled is false")
	}
}
