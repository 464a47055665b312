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
	"strings"
)

// parsedLine is the tokenized form of one wire line, before any
// semantic handling: tags, prefix (nick!user@host or server name),
// command (word or 3-digit numeric), and space-separated parameters
// with the RFC 1459 trailing-parameter rule already resolved.
type parsedLine struct {
	tags    map[string]string
	prefix  string
	command string
	params  []string
}

func unescapeTagValue(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			switch v[i+1] {
			case ':':
				b.WriteByte(';')
			case 's':
				b.WriteByte(' ')
			case '\\':
				b.WriteByte('\\')
			case 'r':
				b.WriteByte('\r')
			case 'n':
				b.WriteByte('\n')
			default:
				b.WriteByte(v[i+1])
			}
			i++
			continue
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

func parseLine(line string) parsedLine {
	var p parsedLine

	if strings.HasPrefix(line, "@") {
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			sp = len(line)
		}
		tagStr := line[1:sp]
		p.tags = make(map[string]string)
		for _, kv := range strings.Split(tagStr, ";") {
			if kv == "" {
				continue
			}
			k, v, _ := strings.Cut(kv, "=")
			p.tags[k] = unescapeTagValue(v)
		}
		if sp < len(line) {
			line = line[sp+1:]
		} else {
			line = ""
		}
	}
	line = strings.TrimLeft(line, " ")

	if strings.HasPrefix(line, ":") {
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			p.prefix = line[1:]
			return p
		}
		p.prefix = line[1:sp]
		line = strings.TrimLeft(line[sp+1:], " ")
	}

	if trail := strings.Index(line, " :"); trail >= 0 {
		head := line[:trail]
		p.params = splitFields(head)
		p.params = append(p.params, line[trail+2:])
	} else if strings.HasPrefix(line, ":") {
		p.params = []string{line[1:]}
	} else {
		p.params = splitFields(line)
	}

	if len(p.params) > 0 {
		p.command = strings.ToUpper(p.params[0])
		p.params = p.params[1:]
	}
	return p
}

func splitFields(s string) []string {
	fields := strings.Fields(s)
	return fields
}

// handleLine tokenizes one wire line and dispatches it: first to CTCP
// unwrapping for PRIVMSG/NOTICE, then to the numeric/command handler,
// and finally to the listener bus as a raw event. DAO mutation always
// happens before the corresponding event is emitted, per the ordering
// guarantee tracked in DESIGN.md.
func (c *Connection) handleLine(raw string) {
	p := parseLine(raw)
	if p.command == "" {
		return
	}

	hm := ParseHostmask(p.prefix)
	e := &Event{
		Code:       p.command,
		Raw:        raw,
		Nick:       hm.Nick,
		Host:       hm.Host,
		Source:     hm.Host,
		User:       hm.Login,
		Arguments:  p.params,
		Tags:       p.tags,
		Connection: c,
	}

	// Any inbound line carrying a full nick!login@host prefix from a user
	// the DAO already tracks refreshes that user's login/hostname, not
	// just the commands that also happen to mutate membership (JOIN,
	// NAMES). Ordinary chat is the most common traffic and must not leave
	// identity stale. Unknown senders are not added to the DAO here.
	if hm.IsUser() {
		if _, known := c.dao.GetUser(hm.Nick); known {
			c.promoteUser(hm)
		}
	}

	if n, err := strconv.Atoi(p.command); err == nil {
		c.handleNumeric(n, e)
		c.listenerBus.OnEvent(e)
		return
	}

	switch p.command {
	case "PING":
		c.rawLineNow("PONG :" + e.Message())
	case "CAP":
		c.handleCAP(e)
	case "AUTHENTICATE":
		c.handleAuthenticate(e)
	case "JOIN":
		c.handleJoin(e)
	case "PART":
		c.handlePart(e)
	case "KICK":
		c.handleKick(e)
	case "QUIT":
		c.handleQuit(e)
	case "NICK":
		c.handleNick(e)
	case "MODE":
		c.handleMode(e)
	case "TOPIC":
		c.handleTopic(e)
	case "PRIVMSG", "NOTICE":
		c.handleCTCP(e)
	case "ERROR":
		c.handleError(e)
	case "ACCOUNT":
		// Extension notification only; no DAO field currently tracks it.
	}

	c.listenerBus.OnEvent(e)
}

// --- identity promotion ---------------------------------------------

// promoteUser looks up or creates the DAO User for a hostmask observed
// in a participation context (JOIN, NAMES, WHO, or a channel-scoped
// command from an already-known user).
func (c *Connection) promoteUser(hm Hostmask) *User {
	u, _ := c.dao.GetOrCreateUser(hm)
	return u
}

// --- membership commands ----------------------------------------------

func (c *Connection) handleJoin(e *Event) {
	if len(e.Arguments) == 0 {
		return
	}
	channel := e.Arguments[0]
	u := c.promoteUser(e.Hostmask())
	ch := c.dao.CreateChannel(channel)
	c.dao.AddUserToChannel(u, ch, 0)

	c.stateMu.Lock()
	isSelf := c.serverInfo.Fold(e.Nick) == c.serverInfo.Fold(c.nickCurrent)
	c.stateMu.Unlock()
	if isSelf {
		c.dao.SetBotUser(u)
	}
}

func (c *Connection) handlePart(e *Event) {
	if len(e.Arguments) == 0 {
		return
	}
	u, ok := c.dao.GetUser(e.Nick)
	ch, okc := c.dao.GetChannel(e.Arguments[0])
	if !ok || !okc {
		return
	}
	if c.dao.IsBotUser(u) {
		c.dao.RemoveChannel(ch)
		return
	}
	c.dao.RemoveUserFromChannel(u, ch)
}

func (c *Connection) handleKick(e *Event) {
	if len(e.Arguments) < 2 {
		return
	}
	ch, okc := c.dao.GetChannel(e.Arguments[0])
	u, oku := c.dao.GetUser(e.Arguments[1])
	if !okc || !oku {
		return
	}
	if c.dao.IsBotUser(u) {
		c.dao.RemoveChannel(ch)
		return
	}
	c.dao.RemoveUserFromChannel(u, ch)
}

func (c *Connection) handleQuit(e *Event) {
	u, ok := c.dao.GetUser(e.Nick)
	if !ok {
		return
	}
	c.dao.RemoveUserEverywhere(u)
}

func (c *Connection) handleNick(e *Event) {
	if len(e.Arguments) == 0 {
		return
	}
	newNick := e.Arguments[0]
	oldNick := e.Nick

	c.stateMu.Lock()
	isSelf := c.serverInfo != nil && c.serverInfo.Fold(oldNick) == c.serverInfo.Fold(c.nickCurrent)
	c.stateMu.Unlock()

	c.dao.RenameUser(oldNick, newNick)
	if isSelf {
		c.stateMu.Lock()
		c.nickCurrent = newNick
		c.stateMu.Unlock()
	}

	c.emit("NICK_CHANGE", e.Arguments, &NickChangePayload{OldNick: oldNick, NewNick: newNick, IsSelf: isSelf})
}

func (c *Connection) handleMode(e *Event) {
	if len(e.Arguments) < 2 {
		return
	}
	target := e.Arguments[0]
	ch, ok := c.dao.GetChannel(target)
	if !ok {
		return
	}
	applyChannelModes(c, ch, e.Arguments[1], e.Arguments[2:])
}

func applyChannelModes(c *Connection, ch *Channel, modeStr string, args []string) {
	adding := true
	argIdx := 0
	for i := 0; i < len(modeStr); i++ {
		switch modeStr[i] {
		case '+':
			adding = true
			continue
		case '-':
			adding = false
			continue
		}
		letter := modeStr[i]
		si := c.serverInfo

		if lvl, ok := si.LevelForModeLetter(letter); ok {
			if argIdx >= len(args) {
				continue
			}
			nick := args[argIdx]
			argIdx++
			u, _ := c.dao.GetOrCreateUser(Hostmask{Nick: nick})
			levels := c.dao.Levels(u, ch)
			if adding {
				levels = levels.Add(lvl)
			} else {
				levels = levels.Remove(lvl)
			}
			c.dao.AddUserToChannel(u, ch, levels)
			continue
		}

		class := si.ModeClass(letter)
		switch class {
		case 0: // list modes (bans, excepts, invites): tracked as strings, not applied here
			if argIdx < len(args) {
				argIdx++
			}
		case 1: // always takes an argument
			if argIdx < len(args) {
				if adding {
					ch.Modes[letter] = args[argIdx]
				} else {
					delete(ch.Modes, letter)
				}
				argIdx++
			}
		case 2: // argument only when setting
			if adding && argIdx < len(args) {
				ch.Modes[letter] = args[argIdx]
				argIdx++
			} else if !adding {
				delete(ch.Modes, letter)
			}
		default: // boolean, or unknown letter: treat as boolean
			if adding {
				ch.Modes[letter] = ""
			} else {
				delete(ch.Modes, letter)
			}
		}
	}
}

func (c *Connection) handleTopic(e *Event) {
	if len(e.Arguments) == 0 {
		return
	}
	ch, ok := c.dao.GetChannel(e.Arguments[0])
	if !ok {
		return
	}
	ch.Topic = Topic{Text: e.Message(), SetBy: e.Hostmask(), SetAt: e.Time}
}

// reasonForErrorKind maps an AnalyzeErrorMessage classification onto the
// Reason used by the reconnect loop to decide whether to retry.
func reasonForErrorKind(kind ErrorType) Reason {
	if kind == PermanentErrorKind {
		return ReasonBanned
	}
	// ServerErrorKind, NetworkErrorKind, and RecoverableErrorKind are all
	// worth retrying once the current attempt tears down.
	return ReasonThrottled
}

func (c *Connection) handleError(e *Event) {
	kind := AnalyzeErrorMessage(e.Message())
	ircErr := &IrcError{Reason: reasonForErrorKind(kind), Message: e.Message()}

	c.stateMu.Lock()
	c.pendingErr = ircErr
	done := c.registrationDone
	c.registrationDone = nil
	c.stateMu.Unlock()
	if done != nil {
		done <- ircErr
	}

	c.emit("EXCEPTION", e.Arguments, &ExceptionPayload{Cause: ircErr, Context: kind.String()})
}
