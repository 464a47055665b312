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
	"strings"
	"testing"
	"time"
)

func TestRawLineQueuesWithFloodControl(t *testing.T) {
	c := newTestConnection()
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	c.Privmsg("#chan", "hello")

	select {
	case ol := <-c.pwrite:
		if ol.line != "PRIVMSG #chan :hello" {
			t.Errorf("expected 'PRIVMSG #chan :hello', got %q", ol.line)
		}
		if ol.immediate {
			t.Error("expected Privmsg to be subject to flood control")
		}
	default:
		t.Fatal("expected a queued PRIVMSG")
	}
}

func TestRawLineTruncatesOverlongLines(t *testing.T) {
	c := newTestConnection()
	c.cfg.MaxLineLength = 20
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	c.SendRaw("PRIVMSG #chan :this message is much too long for the limit")

	ol := <-c.pwrite
	if len(ol.line) > c.cfg.MaxLineLength-2 {
		t.Errorf("expected line truncated to %d bytes, got %d", c.cfg.MaxLineLength-2, len(ol.line))
	}
}

func TestThrottleEnforcesMessageDelay(t *testing.T) {
	c := newTestConnection()
	c.cfg.MessageDelay = 20 * time.Millisecond
	c.lastSend = time.Now()

	start := time.Now()
	c.throttle()
	elapsed := time.Since(start)

	if elapsed < c.cfg.MessageDelay/2 {
		t.Errorf("expected throttle to wait roughly %v, only waited %v", c.cfg.MessageDelay, elapsed)
	}
}

func TestRawLineStripsEmbeddedCRLF(t *testing.T) {
	c := newTestConnection()
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	c.Privmsg("#chan", "hi\r\nQUIT :pwned")

	ol := <-c.pwrite
	if strings.ContainsAny(ol.line, "\r\n") {
		t.Errorf("expected embedded CR/LF to be stripped, got %q", ol.line)
	}
	if ol.line != "PRIVMSG #chan :hiQUIT :pwned" {
		t.Errorf("unexpected stripped line: %q", ol.line)
	}
}

func TestActionWrapsCTCP(t *testing.T) {
	c := newTestConnection()
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	c.Action("#chan", "waves")

	ol := <-c.pwrite
	if !strings.Contains(ol.line, "\x01ACTION waves\x01") {
		t.Errorf("expected CTCP ACTION framing, got %q", ol.line)
	}
}
