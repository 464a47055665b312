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
	"fmt"
	"strings"
)

// outboundLine is one queued write. immediate bypasses flood control,
// used for registration and PONG where delay would risk a ping timeout.
type outboundLine struct {
	line      string
	immediate bool
}

// stripCRLF removes embedded CR/LF so a caller cannot smuggle extra
// protocol lines onto the wire through untrusted message content.
func stripCRLF(line string) string {
	if strings.ContainsAny(line, "\r\n") {
		line = strings.NewReplacer("\r", "", "\n", "").Replace(line)
	}
	return line
}

// rawLine queues a raw protocol line, subject to flood control.
func (c *Connection) rawLine(line string) {
	line = stripCRLF(line)
	if len(line) > c.cfg.MaxLineLength-2 {
		line = line[:c.cfg.MaxLineLength-2]
	}
	select {
	case c.pwrite <- outboundLine{line: line}:
	case <-c.end:
	}
}

// rawLineNow queues a raw protocol line that bypasses flood control.
func (c *Connection) rawLineNow(line string) {
	line = stripCRLF(line)
	if len(line) > c.cfg.MaxLineLength-2 {
		line = line[:c.cfg.MaxLineLength-2]
	}
	select {
	case c.pwrite <- outboundLine{line: line, immediate: true}:
	case <-c.end:
	}
}

// SendRaw queues a raw protocol line for output.
func (c *Connection) SendRaw(message string) { c.rawLine(message) }

// SendRawf formats and queues a raw protocol line.
func (c *Connection) SendRawf(format string, a ...any) { c.rawLine(fmt.Sprintf(format, a...)) }

// Join joins a channel, optionally with a key.
func (c *Connection) Join(channel, key string) {
	if key != "" {
		c.rawLine("JOIN " + channel + " " + key)
		return
	}
	c.rawLine("JOIN " + channel)
}

// Part leaves a channel with an optional message.
func (c *Connection) Part(channel, message string) {
	if message != "" {
		c.rawLine("PART " + channel + " :" + message)
		return
	}
	c.rawLine("PART " + channel)
}

// Privmsg sends a PRIVMSG to a nick or channel target.
func (c *Connection) Privmsg(target, message string) {
	c.rawLine("PRIVMSG " + target + " :" + message)
}

// Privmsgf formats and sends a PRIVMSG.
func (c *Connection) Privmsgf(target, format string, a ...any) {
	c.Privmsg(target, fmt.Sprintf(format, a...))
}

// Notice sends a NOTICE to a nick or channel target.
func (c *Connection) Notice(target, message string) {
	c.rawLine("NOTICE " + target + " :" + message)
}

// Noticef formats and sends a NOTICE.
func (c *Connection) Noticef(target, format string, a ...any) {
	c.Notice(target, fmt.Sprintf(format, a...))
}

// Action sends a CTCP ACTION (/me) to a target.
func (c *Connection) Action(target, message string) {
	c.Privmsg(target, "\x01ACTION "+message+"\x01")
}

// Actionf formats and sends a CTCP ACTION.
func (c *Connection) Actionf(target, format string, a ...any) {
	c.Action(target, fmt.Sprintf(format, a...))
}

// Nick requests a nick change.
func (c *Connection) Nick(newNick string) {
	c.stateMu.Lock()
	c.nick = newNick
	c.stateMu.Unlock()
	c.rawLine("NICK " + newNick)
}

// Kick removes a user from a channel, with an optional reason.
func (c *Connection) Kick(user, channel, reason string) {
	if reason != "" {
		c.rawLine("KICK " + channel + " " + user + " :" + reason)
		return
	}
	c.rawLine("KICK " + channel + " " + user)
}

// Mode sends a raw MODE command, e.g. Mode("#chan", "+o", "nick").
func (c *Connection) Mode(target string, modeargs ...string) {
	line := "MODE " + target
	for _, a := range modeargs {
		line += " " + a
	}
	c.rawLine(line)
}

// Whois queries WHOIS information for a nick.
func (c *Connection) Whois(nick string) { c.rawLine("WHOIS " + nick) }

// Who queries WHO information for a mask or channel.
func (c *Connection) Who(mask string) { c.rawLine("WHO " + mask) }

// Invite invites a nick to a channel.
func (c *Connection) Invite(nick, channel string) { c.rawLine("INVITE " + nick + " " + channel) }

// Topic sets or queries a channel's topic.
func (c *Connection) Topic(channel string, newTopic ...string) {
	if len(newTopic) > 0 {
		c.rawLine("TOPIC " + channel + " :" + newTopic[0])
		return
	}
	c.rawLine("TOPIC " + channel)
}

// Quit sends QUIT with an optional message and begins shutdown.
func (c *Connection) Quit(message string) {
	if message != "" {
		c.rawLineNow("QUIT :" + message)
	} else {
		c.rawLineNow("QUIT")
	}
	c.Close()
}
