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
	"context"
	"regexp"
	"time"
)

// Event is a single dispatched occurrence: either a line straight off
// the wire (Code is the command/numeric, Payload nil) or a higher-level
// occurrence the engine synthesizes (Payload set to one of the *Payload
// types below). Shared envelope fields (bot reference, timestamp) live
// here rather than in a deep event type hierarchy; marker predicates
// like IsChannelEvent() replace marker interfaces.
type Event struct {
	Code      string
	Raw       string
	Nick      string // <nick>
	Host      string // <host>
	Source    string // <host>
	User      string // <usr>
	Arguments []string
	Tags      map[string]string

	Connection *Connection
	Ctx        context.Context
	Time       time.Time

	Payload any
}

// Message retrieves the last message from Event arguments. Leaves the
// arguments untouched; returns "" if there are none.
func (e *Event) Message() string {
	if len(e.Arguments) == 0 {
		return ""
	}
	return e.Arguments[len(e.Arguments)-1]
}

var ircFormat = regexp.MustCompile(`[\x02\x1F\x0F\x16\x1D\x1E]|\x03(\d\d?(,\d\d?)?)?`)

// MessageWithoutFormat retrieves the last argument stripped of mIRC
// formatting control codes (bold, color, ...).
func (e *Event) MessageWithoutFormat() string {
	if len(e.Arguments) == 0 {
		return ""
	}
	return ircFormat.ReplaceAllString(e.Arguments[len(e.Arguments)-1], "")
}

// Hostmask reconstructs the sender's hostmask from the parsed prefix.
func (e *Event) Hostmask() Hostmask {
	return Hostmask{Nick: e.Nick, Login: e.User, Host: e.Host}
}

// --- typed payloads -------------------------------------------------

// ConnectAttemptStartPayload accompanies the "CONNECT_ATTEMPT_START" event.
type ConnectAttemptStartPayload struct {
	Attempt int
}

// ConnectAttemptFailedPayload accompanies "CONNECT_ATTEMPT_FAILED": every
// configured (host, port) candidate in a reconnect iteration failed.
type ConnectAttemptFailedPayload struct {
	RemainingAttempts int
	Failures          []DialFailure
}

// ConnectPayload accompanies "CONNECT": the handshake reached
// registration and the engine transitioned to CONNECTED.
type ConnectPayload struct {
	Server string
}

// DisconnectPayload accompanies "DISCONNECT".
type DisconnectPayload struct {
	Snapshot *Snapshot
	Cause    error
}

// NickChangePayload accompanies "NICK_CHANGE".
type NickChangePayload struct {
	OldNick string
	NewNick string
	IsSelf  bool
}

// WhoisPayload accompanies "WHOIS_RESULT", assembled from 311/312/317/318/319.
type WhoisPayload struct {
	Nick       string
	Login      string
	Hostname   string
	RealName   string
	Server     string
	IdleSecs   int64
	SignonUnix int64
	Channels   []string
}

// WhoPayload accompanies "WHO_RESULT", assembled from 352 lines up to 315.
type WhoPayload struct {
	Channel string
	Entries []WhoEntry
}

// WhoEntry is a single 352 reply line.
type WhoEntry struct {
	Channel  string
	Login    string
	Host     string
	Server   string
	Nick     string
	Flags    string
	HopCount int
	RealName string
}

// CTCPPayload accompanies the synthesized CTCP_* events (ACTION, VERSION,
// TIME, PING, FINGER, CLIENTINFO, USERINFO, DCC) and UNKNOWN_CTCP.
type CTCPPayload struct {
	Command string
	Args    string
}

// ExceptionPayload accompanies "EXCEPTION": a recovered parse error or
// listener panic. Never fatal to the connection.
type ExceptionPayload struct {
	Cause   error
	Context string
}

// JoinFailurePayload accompanies the join/ban/invite-only numeric failure
// events (465, 471, 473, 474, 475). 432 is handled as a nick rejection
// and does not produce this event.
type JoinFailurePayload struct {
	Channel string
	Reason  string
}

// IsChannelEvent reports whether this event concerns a channel (its
// first argument, or the Payload's Channel field, names one) -- the
// functional replacement for a GenericChannelEvent marker interface.
func (e *Event) IsChannelEvent() bool {
	if e.Connection == nil || e.Connection.serverInfo == nil {
		return false
	}
	if len(e.Arguments) > 0 && e.Connection.serverInfo.IsChannel(e.Arguments[0]) {
		return true
	}
	switch p := e.Payload.(type) {
	case *JoinFailurePayload:
		return p.Channel != ""
	case *WhoPayload:
		return p.Channel != ""
	}
	return false
}
