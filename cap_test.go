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

import "testing"

func TestCapRequestsOnlyOfferedCapabilities(t *testing.T) {
	c := newTestConnection()
	c.cfg.Capabilities = []string{"multi-prefix", "away-notify", "server-time"}
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	c.handleLine("CAP * LS :multi-prefix away-notify")

	ol := <-c.pwrite
	if ol.line != "CAP REQ :multi-prefix away-notify" {
		t.Errorf("expected to request only offered caps, got %q", ol.line)
	}
}

func TestCapAckWithoutSaslEndsNegotiation(t *testing.T) {
	c := newTestConnection()
	c.cfg.Capabilities = []string{"multi-prefix"}
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	c.handleCAP(&Event{Arguments: []string{"*", "ACK", "multi-prefix"}})

	ol := <-c.pwrite
	if ol.line != "CAP END" {
		t.Errorf("expected CAP END once ACK resolves with no SASL, got %q", ol.line)
	}
}

func TestCapAckWithSaslStartsAuthenticate(t *testing.T) {
	c := newTestConnection()
	c.cfg.UseSASL = true
	c.cfg.SASLLogin = "mynick"
	c.cfg.SASLPassword = "secret"
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	c.handleCAP(&Event{Arguments: []string{"*", "LS", "sasl"}})
	<-c.pwrite // CAP REQ :sasl

	c.handleCAP(&Event{Arguments: []string{"*", "ACK", "sasl"}})

	ol := <-c.pwrite
	if ol.line != "AUTHENTICATE PLAIN" {
		t.Errorf("expected AUTHENTICATE PLAIN after SASL ACK, got %q", ol.line)
	}
}

func TestSASLPlainRespondsToInitialChallenge(t *testing.T) {
	a := &SASLPlain{Login: "user", Password: "pass"}
	resp, err := a.Respond("+")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp == "" {
		t.Error("expected a non-empty base64 response")
	}
	if a.Mechanism() != "PLAIN" {
		t.Errorf("expected mechanism PLAIN, got %q", a.Mechanism())
	}
}

func TestSASLPlainRejectsUnexpectedChallenge(t *testing.T) {
	a := &SASLPlain{Login: "user", Password: "pass"}
	if _, err := a.Respond("not-plus"); err == nil {
		t.Error("expected an error for a non-'+' initial challenge")
	}
}
