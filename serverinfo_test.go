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

func TestApplyISupportPrefix(t *testing.T) {
	si := NewServerInfo()
	si.ApplyISupport([]string{"PREFIX=(qaohv)~&@%+"})

	if lvl, ok := si.LevelForSymbol('~'); !ok || lvl != Owner {
		t.Errorf("expected '~' to map to Owner, got %v (ok=%v)", lvl, ok)
	}
	if lvl, ok := si.LevelForSymbol('@'); !ok || lvl != Op {
		t.Errorf("expected '@' to map to Op, got %v (ok=%v)", lvl, ok)
	}
	if !si.IsPrefixModeLetter('q') {
		t.Error("expected 'q' to be recognized as a prefix mode letter")
	}
}

func TestApplyISupportChanModes(t *testing.T) {
	si := NewServerInfo()
	si.ApplyISupport([]string{"CHANMODES=beI,k,l,imnpst"})

	if si.ModeClass('b') != 0 {
		t.Errorf("expected 'b' to be class A (list), got %d", si.ModeClass('b'))
	}
	if si.ModeClass('k') != 1 {
		t.Errorf("expected 'k' to be class B, got %d", si.ModeClass('k'))
	}
	if si.ModeClass('l') != 2 {
		t.Errorf("expected 'l' to be class C, got %d", si.ModeClass('l'))
	}
	if si.ModeClass('n') != 3 {
		t.Errorf("expected 'n' to be class D, got %d", si.ModeClass('n'))
	}
}

func TestApplyISupportCaseMappingAndSkipsAreToken(t *testing.T) {
	si := NewServerInfo()
	si.ApplyISupport([]string{"CASEMAPPING=ascii", "CHANTYPES=#", "are", "supported by this server"})

	if si.CaseMapping != CaseMappingASCII {
		t.Errorf("expected ASCII case mapping, got %v", si.CaseMapping)
	}
	if si.ChanTypes != "#" {
		t.Errorf("expected ChanTypes '#', got %q", si.ChanTypes)
	}
	if !si.IsChannel("#test") {
		t.Error("expected #test to be recognized as a channel")
	}
	if si.IsChannel("&test") {
		t.Error("expected &test to no longer be a channel once CHANTYPES narrowed to '#'")
	}
}

func TestCaseMappingFoldRFC1459(t *testing.T) {
	if CaseMappingRFC1459.Fold("Alice[Tom]") != "alice{tom}" {
		t.Errorf("unexpected rfc1459 fold: %q", CaseMappingRFC1459.Fold("Alice[Tom]"))
	}
	if CaseMappingASCII.Fold("Alice[Tom]") != "alice[tom]" {
		t.Errorf("unexpected ascii fold: %q", CaseMappingASCII.Fold("Alice[Tom]"))
	}
}

func TestParseHostmask(t *testing.T) {
	hm := ParseHostmask("nick!login@host.example")
	if hm.Nick != "nick" || hm.Login != "login" || hm.Host != "host.example" {
		t.Errorf("unexpected hostmask parse: %#v", hm)
	}
	if !hm.IsUser() {
		t.Error("expected a full hostmask to be IsUser()")
	}

	server := ParseHostmask("irc.example.net")
	if server.IsUser() {
		t.Error("expected a bare server name to not be IsUser()")
	}
}
