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

// UserSnapshot is a deeply-frozen, pointer-free copy of a User at the
// moment of createSnapshot.
type UserSnapshot struct {
	Nick             string
	Login            string
	Hostname         string
	RealName         string
	ServerName       string
	AwayMessage      string
	IsServerOperator bool
	Channels         []string
}

// ChannelSnapshot is a deeply-frozen, pointer-free copy of a Channel.
type ChannelSnapshot struct {
	Name    string
	Topic   Topic
	Key     string
	Modes   map[byte]string
	Bans    []string
	Excepts []string
	Invites []string
	Members map[string]LevelSet // nick -> levels held at snapshot time
}

// Snapshot is an immutable copy of the DAO, published in a DisconnectEvent
// when snapshots are enabled. It holds value types only, so mutating the
// live Store after CreateSnapshot never changes anything reachable from
// the Snapshot.
type Snapshot struct {
	Users    []UserSnapshot
	Channels []ChannelSnapshot
}

// CreateSnapshot returns a deeply frozen copy of the DAO with stable
// references that may outlive Close().
func (s *Store) CreateSnapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &Snapshot{
		Users:    make([]UserSnapshot, 0, len(s.usersByID)),
		Channels: make([]ChannelSnapshot, 0, len(s.chansByID)),
	}

	for _, u := range s.usersByID {
		chans := make([]string, 0, len(s.membership[u.id]))
		for cid := range s.membership[u.id] {
			if c, ok := s.chansByID[cid]; ok {
				chans = append(chans, c.Name)
			}
		}
		snap.Users = append(snap.Users, UserSnapshot{
			Nick:             u.Nick,
			Login:            u.Login,
			Hostname:         u.Hostname,
			RealName:         u.RealName,
			ServerName:       u.ServerName,
			AwayMessage:      u.AwayMessage,
			IsServerOperator: u.IsServerOperator,
			Channels:         chans,
		})
	}

	for _, c := range s.chansByID {
		modes := make(map[byte]string, len(c.Modes))
		for k, v := range c.Modes {
			modes[k] = v
		}
		members := make(map[string]LevelSet, len(s.membership2[c.id]))
		for uid, levels := range s.membership2[c.id] {
			if u, ok := s.usersByID[uid]; ok {
				members[u.Nick] = levels
			}
		}
		snap.Channels = append(snap.Channels, ChannelSnapshot{
			Name:    c.Name,
			Topic:   c.Topic,
			Key:     c.Key,
			Modes:   modes,
			Bans:    append([]string(nil), c.Bans...),
			Excepts: append([]string(nil), c.Excepts...),
			Invites: append([]string(nil), c.Invites...),
			Members: members,
		})
	}

	return snap
}
