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

func TestStoreAddUserToChannel(t *testing.T) {
	s := NewStore(CaseMappingRFC1459)
	u, created := s.GetOrCreateUser(Hostmask{Nick: "Alice", Login: "alice", Host: "host1"})
	if !created {
		t.Fatal("expected Alice to be created")
	}
	ch := s.CreateChannel("#test")
	s.AddUserToChannel(u, ch, LevelSet(0).Add(Op))

	members := ch.Members()
	levels, ok := members[u]
	if !ok {
		t.Fatal("expected Alice to be a member of #test")
	}
	if !levels.Has(Op) {
		t.Error("expected Alice to hold Op")
	}

	chans := u.Channels()
	if len(chans) != 1 || chans[0].Name != "#test" {
		t.Errorf("expected Alice to be in exactly #test, got %v", chans)
	}
}

func TestStoreRemoveUserFromChannelCascadesWhenNotBot(t *testing.T) {
	s := NewStore(CaseMappingRFC1459)
	u, _ := s.GetOrCreateUser(Hostmask{Nick: "bob"})
	ch := s.CreateChannel("#test")
	s.AddUserToChannel(u, ch, 0)

	s.RemoveUserFromChannel(u, ch)

	if _, ok := s.GetUser("bob"); ok {
		t.Error("expected bob to be removed once his last channel membership dropped")
	}
}

func TestStoreBotUserSurvivesZeroChannels(t *testing.T) {
	s := NewStore(CaseMappingRFC1459)
	u, _ := s.GetOrCreateUser(Hostmask{Nick: "mybot"})
	ch := s.CreateChannel("#test")
	s.AddUserToChannel(u, ch, 0)
	s.SetBotUser(u)

	s.RemoveUserFromChannel(u, ch)

	if _, ok := s.GetUser("mybot"); !ok {
		t.Error("expected the bot's own User to survive losing its last channel")
	}
}

func TestStoreRenameUserRekeysNickIndex(t *testing.T) {
	s := NewStore(CaseMappingRFC1459)
	s.GetOrCreateUser(Hostmask{Nick: "old"})

	u, ok := s.RenameUser("old", "new")
	if !ok {
		t.Fatal("expected rename to succeed")
	}
	if u.Nick != "new" {
		t.Errorf("expected renamed user's Nick to be 'new', got %q", u.Nick)
	}
	if _, ok := s.GetUser("old"); ok {
		t.Error("expected old nick to no longer resolve")
	}
	if _, ok := s.GetUser("new"); !ok {
		t.Error("expected new nick to resolve")
	}
}

func TestStoreRemoveChannelCascadesMembers(t *testing.T) {
	s := NewStore(CaseMappingRFC1459)
	u, _ := s.GetOrCreateUser(Hostmask{Nick: "carol"})
	ch := s.CreateChannel("#test")
	s.AddUserToChannel(u, ch, 0)

	s.RemoveChannel(ch)

	if _, ok := s.GetChannel("#test"); ok {
		t.Error("expected #test to be gone")
	}
	if _, ok := s.GetUser("carol"); ok {
		t.Error("expected carol to be cascaded away with her only channel")
	}
}

func TestStoreCaseMappingFoldsNickLookup(t *testing.T) {
	s := NewStore(CaseMappingRFC1459)
	s.GetOrCreateUser(Hostmask{Nick: "Alice[x]"})

	if _, ok := s.GetUser("alice{x}"); !ok {
		t.Error("expected rfc1459 folding to equate Alice[x] and alice{x}")
	}
}

func TestSnapshotIsIndependentOfLiveStore(t *testing.T) {
	s := NewStore(CaseMappingRFC1459)
	u, _ := s.GetOrCreateUser(Hostmask{Nick: "dave"})
	ch := s.CreateChannel("#test")
	s.AddUserToChannel(u, ch, 0)

	snap := s.CreateSnapshot()
	s.Close()

	if len(snap.Users) != 1 || snap.Users[0].Nick != "dave" {
		t.Errorf("expected snapshot to retain dave after Close, got %v", snap.Users)
	}
	if len(snap.Channels) != 1 || snap.Channels[0].Name != "#test" {
		t.Errorf("expected snapshot to retain #test after Close, got %v", snap.Channels)
	}
}
