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

func TestParseLineBasicCommand(t *testing.T) {
	p := parseLine(":nick!user@host PRIVMSG #chan :hello there")
	if p.prefix != "nick!user@host" {
		t.Errorf("expected prefix 'nick!user@host', got %q", p.prefix)
	}
	if p.command != "PRIVMSG" {
		t.Errorf("expected command PRIVMSG, got %q", p.command)
	}
	if len(p.params) != 2 || p.params[0] != "#chan" || p.params[1] != "hello there" {
		t.Errorf("unexpected params: %#v", p.params)
	}
}

func TestParseLineNumericWithoutTrailingColon(t *testing.T) {
	p := parseLine(":irc.example.net 004 mynick irc.example.net ircd-seven oiwszcrkfydnxb biklmnopstvz")
	if p.command != "004" {
		t.Errorf("expected command '004', got %q", p.command)
	}
	if len(p.params) != 5 {
		t.Errorf("expected 5 params, got %d: %#v", len(p.params), p.params)
	}
}

func TestParseLineWithTags(t *testing.T) {
	p := parseLine("@time=2024-01-01T00:00:00.000Z;msgid=abc :nick!u@h PRIVMSG #chan :hi")
	if p.tags["time"] != "2024-01-01T00:00:00.000Z" {
		t.Errorf("expected time tag to survive, got %q", p.tags["time"])
	}
	if p.tags["msgid"] != "abc" {
		t.Errorf("expected msgid tag to survive, got %q", p.tags["msgid"])
	}
	if p.command != "PRIVMSG" {
		t.Errorf("expected command PRIVMSG, got %q", p.command)
	}
}

func TestUnescapeTagValue(t *testing.T) {
	got := unescapeTagValue(`a\sb\:c\\d`)
	want := "a b;c\\d"
	if got != want {
		t.Errorf("unescapeTagValue(%q) = %q, want %q", `a\sb\:c\\d`, got, want)
	}
}

// newTestConnection builds a minimal Connection sufficient to drive
// handleLine in isolation, without a live socket.
func newTestConnection() *Connection {
	return &Connection{
		cfg:         DefaultConfig("mynick", "mylogin"),
		nick:        "mynick",
		nickCurrent: "mynick",
		dao:         NewStore(CaseMappingRFC1459),
		serverInfo:  NewServerInfo(),
		listenerBus: NewSimpleListenerBus(),
	}
}

func TestHandleLineJoinCreatesMembership(t *testing.T) {
	c := newTestConnection()
	c.handleLine(":mynick!u@h JOIN #test")

	ch, ok := c.dao.GetChannel("#test")
	if !ok {
		t.Fatal("expected #test to be created")
	}
	u, ok := c.dao.GetUser("mynick")
	if !ok {
		t.Fatal("expected mynick to be tracked")
	}
	if !c.dao.IsBotUser(u) {
		t.Error("expected mynick to be recognized as the bot's own user")
	}
	if _, ok := ch.Members()[u]; !ok {
		t.Error("expected mynick to be a member of #test")
	}
}

func TestHandleLineQuitRemovesUserEverywhere(t *testing.T) {
	c := newTestConnection()
	c.handleLine(":mynick!u@h JOIN #test")
	c.handleLine(":other!u2@h2 JOIN #test")
	c.handleLine(":other!u2@h2 QUIT :bye")

	if _, ok := c.dao.GetUser("other"); ok {
		t.Error("expected other to be removed from the DAO after QUIT")
	}
	ch, _ := c.dao.GetChannel("#test")
	if len(ch.Members()) != 1 {
		t.Errorf("expected only mynick left in #test, got %d members", len(ch.Members()))
	}
}

func TestHandleLineNickChangeTracksSelf(t *testing.T) {
	c := newTestConnection()
	c.handleLine(":mynick!u@h JOIN #test")
	c.handleLine(":mynick!u@h NICK newnick")

	if c.CurrentNick() != "newnick" {
		t.Errorf("expected current nick to be 'newnick', got %q", c.CurrentNick())
	}
	if _, ok := c.dao.GetUser("newnick"); !ok {
		t.Error("expected newnick to resolve in the DAO")
	}
}

func TestHandleLineRefreshesIdentityOnOrdinaryChat(t *testing.T) {
	c := newTestConnection()
	c.handleLine(":other!stale@old.host JOIN #test")

	c.handleLine(":other!fresh@new.host PRIVMSG #test :just chatting")

	u, ok := c.dao.GetUser("other")
	if !ok {
		t.Fatal("expected 'other' to be tracked")
	}
	if u.Login != "fresh" || u.Hostname != "new.host" {
		t.Errorf("expected identity refreshed by plain chat, got login=%q host=%q", u.Login, u.Hostname)
	}
}

func TestHandlePingRepliesWithPong(t *testing.T) {
	c := newTestConnection()
	c.pwrite = make(chan outboundLine, 4)
	c.end = make(chan struct{})

	c.handleLine("PING :irc.example.net")

	select {
	case ol := <-c.pwrite:
		if ol.line != "PONG :irc.example.net" {
			t.Errorf("expected 'PONG :irc.example.net', got %q", ol.line)
		}
		if !ol.immediate {
			t.Error("expected PONG to bypass flood control")
		}
	default:
		t.Fatal("expected a queued PONG reply")
	}
}
