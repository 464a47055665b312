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
	"strconv"
	"time"
)

// handleNumeric dispatches a 3-digit server reply. DAO/ServerInfo
// mutation always precedes the corresponding synthesized event.
func (c *Connection) handleNumeric(n int, e *Event) {
	// Replies from 300 up carry the client's own nick as their first
	// parameter; the helpers below index the parameters after it.
	if n >= 300 && len(e.Arguments) > 0 {
		stripped := *e
		stripped.Arguments = e.Arguments[1:]
		e = &stripped
	}
	switch n {
	case 1: // RPL_WELCOME
		c.handleWelcome(e)
	case 4: // RPL_MYINFO
		c.serverInfo.ApplyWelcome(e.Arguments[1:])
	case 5: // RPL_ISUPPORT
		c.serverInfo.ApplyISupport(trimTrailing(e.Arguments[1:]))

	case 311: // RPL_WHOISUSER
		c.whoisStart(e.Arguments)
	case 312: // RPL_WHOISSERVER
		c.whoisServer(e.Arguments)
	case 317: // RPL_WHOISIDLE
		c.whoisIdle(e.Arguments)
	case 318: // RPL_ENDOFWHOIS
		c.whoisEnd(e.Arguments)
	case 319: // RPL_WHOISCHANNELS
		c.whoisChannels(e.Arguments)

	case 324: // RPL_CHANNELMODEIS
		c.channelModeIs(e.Arguments)
	case 329: // RPL_CREATIONTIME
		c.channelCreationTime(e.Arguments)
	case 332: // RPL_TOPIC
		c.topicReply(e.Arguments)
	case 333: // RPL_TOPICWHOTIME
		c.topicWhoTime(e.Arguments)

	case 346: // RPL_INVITELIST
		c.listAppend(e.Arguments, func(ch *Channel, v string) { ch.Invites = append(ch.Invites, v) })
	case 348: // RPL_EXCEPTLIST
		c.listAppend(e.Arguments, func(ch *Channel, v string) { ch.Excepts = append(ch.Excepts, v) })
	case 367: // RPL_BANLIST
		c.listAppend(e.Arguments, func(ch *Channel, v string) { ch.Bans = append(ch.Bans, v) })

	case 352: // RPL_WHOREPLY
		c.whoReply(e.Arguments)
	case 315: // RPL_ENDOFWHO
		c.whoEnd(e.Arguments)

	case 353: // RPL_NAMREPLY
		c.namesReply(e.Arguments)
	case 366: // RPL_ENDOFNAMES
		c.namesEnd(e.Arguments)

	case 431, 432, 433, 436, 437: // nick rejected during/after registration
		c.handleNickRejected(n, e.Arguments)
	case 465, 471, 473, 474, 475: // join refused
		c.handleJoinFailure(n, e.Arguments)
	case 484:
		c.emit("EXCEPTION", e.Arguments, &ExceptionPayload{Cause: &IrcError{Reason: ReasonOther, Message: "restricted connection"}, Context: "484"})

	case 903: // RPL_SASLSUCCESS
		c.rawLineNow("CAP END")
	case 904, 905, 906, 908, 911: // SASL failures
		c.emit("EXCEPTION", e.Arguments, &ExceptionPayload{Cause: &IrcError{Reason: ReasonOther, Message: "SASL authentication failed"}, Context: strconv.Itoa(n)})
		c.rawLineNow("CAP END")
	}
}

func trimTrailing(args []string) []string {
	if len(args) > 0 {
		return args[:len(args)-1]
	}
	return args
}

func (c *Connection) handleWelcome(e *Event) {
	if len(e.Arguments) > 0 {
		c.stateMu.Lock()
		c.nickCurrent = e.Arguments[0]
		c.loggedIn = true
		done := c.registrationDone
		c.registrationDone = nil
		c.stateMu.Unlock()

		u, _ := c.dao.GetOrCreateUser(Hostmask{Nick: e.Arguments[0], Login: c.cfg.Login})
		c.dao.SetBotUser(u)

		for ch, key := range c.reconnectChannels {
			c.Join(ch, key)
		}

		if done != nil {
			done <- nil
		}
	}
}

func (c *Connection) handleNickRejected(code int, args []string) {
	c.stateMu.Lock()
	loggedIn := c.loggedIn
	done := c.registrationDone
	c.stateMu.Unlock()

	if loggedIn {
		c.emit("EXCEPTION", args, &ExceptionPayload{Cause: &IrcError{Reason: ReasonOther, Message: "nick change refused"}, Context: strconv.Itoa(code)})
		return
	}

	if code == 433 || code == 432 || code == 436 {
		if c.altIndex >= len(c.cfg.NickAlternatives) {
			if done != nil {
				done <- &IrcError{Reason: ReasonNickAlreadyInUse, Message: "no alternative nicks left"}
			}
			return
		}
		next := c.nextAlternativeNick()
		c.stateMu.Lock()
		c.nick = next
		c.stateMu.Unlock()
		c.rawLineNow("NICK " + next)
		return
	}

	if done != nil {
		done <- &IrcError{Reason: ReasonOther, Message: "registration refused"}
	}
}

func (c *Connection) handleJoinFailure(code int, args []string) {
	if len(args) == 0 {
		return
	}
	c.emit("JOIN_FAILURE", args, &JoinFailurePayload{Channel: args[0], Reason: strconv.Itoa(code)})
}

// --- WHOIS assembly ---------------------------------------------------

func (c *Connection) whoisBucket(nick string) *WhoisPayload {
	c.collectMu.Lock()
	defer c.collectMu.Unlock()
	if c.whoisBuf == nil {
		c.whoisBuf = make(map[string]*WhoisPayload)
	}
	key := c.serverInfo.Fold(nick)
	p, ok := c.whoisBuf[key]
	if !ok {
		p = &WhoisPayload{Nick: nick}
		c.whoisBuf[key] = p
	}
	return p
}

func (c *Connection) whoisStart(args []string) {
	if len(args) < 4 {
		return
	}
	p := c.whoisBucket(args[0])
	p.Login = args[1]
	p.Hostname = args[2]
	p.RealName = args[len(args)-1]
}

func (c *Connection) whoisServer(args []string) {
	if len(args) < 2 {
		return
	}
	p := c.whoisBucket(args[0])
	p.Server = args[1]
}

func (c *Connection) whoisIdle(args []string) {
	if len(args) < 2 {
		return
	}
	p := c.whoisBucket(args[0])
	if v, err := strconv.ParseInt(args[1], 10, 64); err == nil {
		p.IdleSecs = v
	}
	if len(args) >= 3 {
		if v, err := strconv.ParseInt(args[2], 10, 64); err == nil {
			p.SignonUnix = v
		}
	}
}

func (c *Connection) whoisChannels(args []string) {
	if len(args) < 2 {
		return
	}
	p := c.whoisBucket(args[0])
	p.Channels = append(p.Channels, splitFields(args[len(args)-1])...)
}

func (c *Connection) whoisEnd(args []string) {
	if len(args) == 0 {
		return
	}
	c.collectMu.Lock()
	key := c.serverInfo.Fold(args[0])
	p, ok := c.whoisBuf[key]
	if ok {
		delete(c.whoisBuf, key)
	}
	c.collectMu.Unlock()
	if ok {
		c.emit("WHOIS_RESULT", args, p)
	}
}

// --- WHO assembly ------------------------------------------------------

func (c *Connection) whoBucket(channel string) *WhoPayload {
	c.collectMu.Lock()
	defer c.collectMu.Unlock()
	if c.whoBuf == nil {
		c.whoBuf = make(map[string]*WhoPayload)
	}
	key := c.serverInfo.Fold(channel)
	p, ok := c.whoBuf[key]
	if !ok {
		p = &WhoPayload{Channel: channel}
		c.whoBuf[key] = p
	}
	return p
}

func (c *Connection) whoReply(args []string) {
	if len(args) < 7 {
		return
	}
	p := c.whoBucket(args[0])
	hop := 0
	rest := args[6]
	fields := splitFields(rest)
	realName := rest
	if len(fields) > 1 {
		if v, err := strconv.Atoi(fields[0]); err == nil {
			hop = v
		}
		realName = rest[len(fields[0])+1:]
	}
	p.Entries = append(p.Entries, WhoEntry{
		Channel:  args[0],
		Login:    args[1],
		Host:     args[2],
		Server:   args[3],
		Nick:     args[4],
		Flags:    args[5],
		HopCount: hop,
		RealName: realName,
	})
}

func (c *Connection) whoEnd(args []string) {
	if len(args) == 0 {
		return
	}
	c.collectMu.Lock()
	key := c.serverInfo.Fold(args[0])
	p, ok := c.whoBuf[key]
	if ok {
		delete(c.whoBuf, key)
	}
	c.collectMu.Unlock()
	if ok {
		c.emit("WHO_RESULT", args, p)
	}
}

// --- NAMES assembly -----------------------------------------------------

func (c *Connection) namesReply(args []string) {
	if len(args) < 3 {
		return
	}
	channel := args[1]
	names := splitFields(args[2])

	c.collectMu.Lock()
	if c.namesBuf == nil {
		c.namesBuf = make(map[string][]string)
	}
	key := c.serverInfo.Fold(channel)
	c.namesBuf[key] = append(c.namesBuf[key], names...)
	c.collectMu.Unlock()

	ch, ok := c.dao.GetChannel(channel)
	if !ok {
		ch = c.dao.CreateChannel(channel)
	}
	for _, raw := range names {
		nick := raw
		var levels LevelSet
		for len(nick) > 0 {
			lvl, ok := c.serverInfo.LevelForSymbol(nick[0])
			if !ok {
				break
			}
			levels = levels.Add(lvl)
			nick = nick[1:]
		}
		u := c.promoteUser(Hostmask{Nick: nick})
		c.dao.AddUserToChannel(u, ch, levels)
	}
}

func (c *Connection) namesEnd(args []string) {
	if len(args) == 0 {
		return
	}
	c.collectMu.Lock()
	key := c.serverInfo.Fold(args[0])
	delete(c.namesBuf, key)
	c.collectMu.Unlock()
}

// --- topic / mode / list replies ---------------------------------------

func (c *Connection) topicReply(args []string) {
	if len(args) < 2 {
		return
	}
	ch, ok := c.dao.GetChannel(args[0])
	if !ok {
		ch = c.dao.CreateChannel(args[0])
	}
	t := ch.Topic
	t.Text = args[len(args)-1]
	ch.Topic = t
}

func (c *Connection) topicWhoTime(args []string) {
	if len(args) < 3 {
		return
	}
	ch, ok := c.dao.GetChannel(args[0])
	if !ok {
		return
	}
	t := ch.Topic
	t.SetBy = ParseHostmask(args[1])
	if v, err := strconv.ParseInt(args[2], 10, 64); err == nil {
		t.SetAt = time.Unix(v, 0)
	}
	ch.Topic = t
}

func (c *Connection) channelModeIs(args []string) {
	if len(args) < 2 {
		return
	}
	ch, ok := c.dao.GetChannel(args[0])
	if !ok {
		ch = c.dao.CreateChannel(args[0])
	}
	applyChannelModes(c, ch, args[1], args[2:])
}

func (c *Connection) channelCreationTime(args []string) {
	if len(args) < 2 {
		return
	}
	ch, ok := c.dao.GetChannel(args[0])
	if !ok {
		return
	}
	if v, err := strconv.ParseInt(args[1], 10, 64); err == nil {
		ch.CreatedAt = time.Unix(v, 0)
	}
}

func (c *Connection) listAppend(args []string, apply func(*Channel, string)) {
	if len(args) < 2 {
		return
	}
	ch, ok := c.dao.GetChannel(args[0])
	if !ok {
		return
	}
	apply(ch, args[1])
}
