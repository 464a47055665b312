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

func TestNickCollisionFallsBackToAlternative(t *testing.T) {
	c := newTestConnection()
	c.cfg.NickAlternatives = []string{"mynick_", "mynick__"}
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	c.handleLine(":irc.example.net 433 * mynick :Nickname is already in use.")

	if c.nick != "mynick_" {
		t.Errorf("expected fallback to 'mynick_', got %q", c.nick)
	}
	ol := <-c.pwrite
	if ol.line != "NICK mynick_" {
		t.Errorf("expected 'NICK mynick_', got %q", ol.line)
	}
}

func TestWelcomeCompletesRegistrationAndTracksBotUser(t *testing.T) {
	c := newTestConnection()
	done := make(chan error, 1)
	c.registrationDone = done

	c.handleLine(":irc.example.net 001 mynick :Welcome to the network")

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil registration error, got %v", err)
		}
	default:
		t.Fatal("expected registrationDone to be signaled")
	}
	if !c.IsLoggedIn() {
		t.Error("expected IsLoggedIn() to be true after 001")
	}
	u, ok := c.dao.GetUser("mynick")
	if !ok || !c.dao.IsBotUser(u) {
		t.Error("expected the bot's own user to be tracked after 001")
	}
}

func TestWelcomeRejoinsReconnectChannels(t *testing.T) {
	c := newTestConnection()
	c.registrationDone = make(chan error, 1)
	c.reconnectChannels = map[string]string{"#persist": "key1"}
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	c.handleLine(":irc.example.net 001 mynick :hi")

	ol := <-c.pwrite
	if ol.line != "JOIN #persist key1" {
		t.Errorf("expected rejoin of #persist with its key, got %q", ol.line)
	}
}

func TestWhoisAssemblyAcrossMultipleNumerics(t *testing.T) {
	c := newTestConnection()
	var captured *WhoisPayload
	bus := c.listenerBus.(*SimpleListenerBus)
	bus.AddCallback("WHOIS_RESULT", func(e *Event) {
		captured = e.Payload.(*WhoisPayload)
	})

	c.handleLine(":irc.example.net 311 me target ident host * :Real Name")
	c.handleLine(":irc.example.net 319 me target :#chan1 @#chan2")
	c.handleLine(":irc.example.net 318 me target :End of WHOIS")

	if captured == nil {
		t.Fatal("expected a WHOIS_RESULT event")
	}
	if captured.Login != "ident" || captured.Hostname != "host" {
		t.Errorf("unexpected whois payload: %#v", captured)
	}
	if len(captured.Channels) != 2 {
		t.Errorf("expected 2 channels, got %#v", captured.Channels)
	}
}
