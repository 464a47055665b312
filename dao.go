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
// WHETHER IN AN ACTION OF CONTRACT, TORT, OR OTHERWISE, ARISING FROM, OUT OF, OR IN CONNECTION WITH THE SOFTWARE
// OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package irc

import (
	"sync"
	"time"
)

// Topic holds a channel's topic text together with who set it and when.
type Topic struct {
	Text      string
	SetBy     Hostmask
	SetAt     time.Time
}

// User is a promoted hostmask: an identity observed in a participation
// context (a JOIN on a channel we're in, a NAMES/WHO reply, or a command
// from a user already known on a channel). It holds no pointer to its
// channels directly -- Channels() reconstructs the view from the Store's
// membership relation, which is what keeps the user/channel graph
// acyclic (see DESIGN.md).
type User struct {
	id    int
	store *Store

	Nick             string
	Login            string
	Hostname         string
	RealName         string
	ServerName       string
	AwayMessage      string
	IsServerOperator bool
	LastActivity     time.Time
}

// Channels returns the channels this user currently participates in.
func (u *User) Channels() []*Channel {
	return u.store.channelsOfUser(u.id)
}

// Hostmask returns the user's current identity triple.
func (u *User) Hostmask() Hostmask {
	return Hostmask{Nick: u.Nick, Login: u.Login, Host: u.Hostname}
}

// Channel is a joined channel, created on a successful JOIN by us (or a
// NAMES reply naming a channel we joined) and destroyed on our own
// PART/KICK from it.
type Channel struct {
	id    int
	store *Store

	Name      string
	Topic     Topic
	CreatedAt time.Time
	Key       string
	// Modes holds non-list channel modes: letter -> argument, "" for a
	// mode set without an argument (CHANMODES class D, or a letter the
	// server has not classified).
	Modes map[byte]string

	Bans    []string
	Excepts []string
	Invites []string
}

// Members returns the current membership map: user -> level set.
func (c *Channel) Members() map[*User]LevelSet {
	return c.store.membersOfChannel(c.id)
}

// Store is the in-memory User/Channel relational model: an arena of
// Users and Channels linked by a membership relation, rather than a
// cyclic pointer graph. All mutating operations are serialised under mu.
type Store struct {
	mu sync.Mutex

	caseMapping CaseMapping

	nextUserID int
	nextChanID int

	usersByID   map[int]*User
	usersByNick map[string]*User // case-folded nick -> user

	chansByID   map[int]*Channel
	chansByName map[string]*Channel // case-folded name -> channel

	// membership[userID][chanID] = levels held by that user on that channel.
	membership map[int]map[int]LevelSet
	// reverse index: membership2[chanID][userID] = same LevelSet value.
	membership2 map[int]map[int]LevelSet

	botUserID int
	hasBot    bool
}

// NewStore creates an empty DAO using the given case mapping for nick
// and channel-name folding.
func NewStore(cm CaseMapping) *Store {
	return &Store{
		caseMapping: cm,
		usersByID:   make(map[int]*User),
		usersByNick: make(map[string]*User),
		chansByID:   make(map[int]*Channel),
		chansByName: make(map[string]*Channel),
		membership:  make(map[int]map[int]LevelSet),
		membership2: make(map[int]map[int]LevelSet),
	}
}

// SetCaseMapping updates the folding rule used for future lookups (the
// server may advertise CASEMAPPING only after the DAO already holds the
// bot's own User).
func (s *Store) SetCaseMapping(cm CaseMapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caseMapping = cm
}

func (s *Store) fold(name string) string {
	return s.caseMapping.Fold(name)
}

// GetOrCreateUser looks up a user by case-mapped nick, creating one from
// the hostmask if absent. The bool result reports whether it was created.
func (s *Store) GetOrCreateUser(hm Hostmask) (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateUserLocked(hm)
}

func (s *Store) getOrCreateUserLocked(hm Hostmask) (*User, bool) {
	key := s.fold(hm.Nick)
	if u, ok := s.usersByNick[key]; ok {
		if hm.Login != "" {
			u.Login = hm.Login
		}
		if hm.Host != "" {
			u.Hostname = hm.Host
		}
		return u, false
	}
	s.nextUserID++
	u := &User{
		id:           s.nextUserID,
		store:        s,
		Nick:         hm.Nick,
		Login:        hm.Login,
		Hostname:     hm.Host,
		LastActivity: time.Now(),
	}
	s.usersByID[u.id] = u
	s.usersByNick[key] = u
	return u, true
}

// GetUser looks up a user by nick without creating it.
func (s *Store) GetUser(nick string) (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByNick[s.fold(nick)]
	return u, ok
}

// GetAllUsers returns every user currently tracked.
func (s *Store) GetAllUsers() []*User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*User, 0, len(s.usersByID))
	for _, u := range s.usersByID {
		out = append(out, u)
	}
	return out
}

// CreateChannel creates (or returns the existing) channel by name.
func (s *Store) CreateChannel(name string) *Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createChannelLocked(name)
}

func (s *Store) createChannelLocked(name string) *Channel {
	key := s.fold(name)
	if c, ok := s.chansByName[key]; ok {
		return c
	}
	s.nextChanID++
	c := &Channel{
		id:        s.nextChanID,
		store:     s,
		Name:      name,
		Modes:     make(map[byte]string),
		CreatedAt: time.Now(),
	}
	s.chansByID[c.id] = c
	s.chansByName[key] = c
	return c
}

// GetChannel looks up a channel by name without creating it.
func (s *Store) GetChannel(name string) (*Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chansByName[s.fold(name)]
	return c, ok
}

// GetAllChannels returns every channel currently tracked.
func (s *Store) GetAllChannels() []*Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Channel, 0, len(s.chansByID))
	for _, c := range s.chansByID {
		out = append(out, c)
	}
	return out
}

// RemoveChannel drops a channel and every membership edge referencing
// it (used on our own PART/KICK from the channel).
func (s *Store) RemoveChannel(c *Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeChannelLocked(c)
}

func (s *Store) removeChannelLocked(c *Channel) {
	for uid := range s.membership2[c.id] {
		delete(s.membership[uid], c.id)
		if len(s.membership[uid]) == 0 {
			s.maybeRemoveUserLocked(uid)
		}
	}
	delete(s.membership2, c.id)
	delete(s.chansByID, c.id)
	delete(s.chansByName, s.fold(c.Name))
}

// AddUserToChannel records that user participates in channel with the
// given levels. Idempotent: calling it again overwrites the level set.
func (s *Store) AddUserToChannel(u *User, c *Channel, levels LevelSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.membership[u.id] == nil {
		s.membership[u.id] = make(map[int]LevelSet)
	}
	if s.membership2[c.id] == nil {
		s.membership2[c.id] = make(map[int]LevelSet)
	}
	s.membership[u.id][c.id] = levels
	s.membership2[c.id][u.id] = levels
}

// SetLevels overwrites the level set a user holds on a channel, without
// otherwise touching membership. No-op if the user isn't a member.
func (s *Store) SetLevels(u *User, c *Channel, levels LevelSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.membership[u.id][c.id]; !ok {
		return
	}
	s.membership[u.id][c.id] = levels
	s.membership2[c.id][u.id] = levels
}

// Levels returns the level set u holds on c.
func (s *Store) Levels(u *User, c *Channel) LevelSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.membership[u.id][c.id]
}

// RemoveUserFromChannel drops the membership edge. If the user's
// channel set becomes empty and it is not the bot user, the user is
// removed from the DAO entirely (spec invariant 4).
func (s *Store) RemoveUserFromChannel(u *User, c *Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.membership[u.id] != nil {
		delete(s.membership[u.id], c.id)
	}
	if s.membership2[c.id] != nil {
		delete(s.membership2[c.id], u.id)
	}
	if len(s.membership[u.id]) == 0 {
		s.maybeRemoveUserLocked(u.id)
	}
}

// RemoveUserEverywhere drops every membership a user holds (used for
// QUIT). Returns the list of channels the user was removed from.
func (s *Store) RemoveUserEverywhere(u *User) []*Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []*Channel
	for cid := range s.membership[u.id] {
		if c, ok := s.chansByID[cid]; ok {
			removed = append(removed, c)
		}
		delete(s.membership2[cid], u.id)
	}
	delete(s.membership, u.id)
	s.maybeRemoveUserLocked(u.id)
	return removed
}

func (s *Store) maybeRemoveUserLocked(uid int) {
	if s.hasBot && uid == s.botUserID {
		return
	}
	if len(s.membership[uid]) > 0 {
		return
	}
	u, ok := s.usersByID[uid]
	if !ok {
		return
	}
	delete(s.usersByID, uid)
	delete(s.usersByNick, s.fold(u.Nick))
	delete(s.membership, uid)
}

// RenameUser rekeys the nick index atomically and updates the bot's
// nick if the renamed user is the bot. Returns the renamed user, or
// (nil, false) if oldNick was unknown.
func (s *Store) RenameUser(oldNick, newNick string) (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oldKey := s.fold(oldNick)
	u, ok := s.usersByNick[oldKey]
	if !ok {
		return nil, false
	}
	delete(s.usersByNick, oldKey)
	u.Nick = newNick
	s.usersByNick[s.fold(newNick)] = u
	return u, true
}

// SetBotUser marks u as the bot's own User: it is never cascaded away by
// RemoveUserFromChannel/RemoveUserEverywhere even with zero channels.
func (s *Store) SetBotUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.botUserID = u.id
	s.hasBot = true
}

// IsBotUser reports whether u is the bot's own User.
func (s *Store) IsBotUser(u *User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasBot && u.id == s.botUserID
}

func (s *Store) channelsOfUser(uid int) []*Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Channel, 0, len(s.membership[uid]))
	for cid := range s.membership[uid] {
		if c, ok := s.chansByID[cid]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) membersOfChannel(cid int) map[*User]LevelSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[*User]LevelSet, len(s.membership2[cid]))
	for uid, levels := range s.membership2[cid] {
		if u, ok := s.usersByID[uid]; ok {
			out[u] = levels
		}
	}
	return out
}

// Close clears all state, releasing every User and Channel. Any
// previously created Snapshot is unaffected: it holds independent value
// copies, not references into this Store.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByID = make(map[int]*User)
	s.usersByNick = make(map[string]*User)
	s.chansByID = make(map[int]*Channel)
	s.chansByName = make(map[string]*Channel)
	s.membership = make(map[int]map[int]LevelSet)
	s.membership2 = make(map[int]map[int]LevelSet)
	s.hasBot = false
}
