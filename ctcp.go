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
	"strings"
	"time"
)

const ctcpDelim = "\x01"

// handleCTCP unwraps a CTCP-framed PRIVMSG/NOTICE (SOH-delimited),
// answers VERSION/TIME/PING/CLIENTINFO/USERINFO requests automatically,
// and emits a CTCP_<COMMAND> event for each recognised command (ACTION,
// VERSION, TIME, PING, FINGER, CLIENTINFO, USERINFO, DCC) or
// UNKNOWN_CTCP for anything else. DCC requests are also handed to the
// DCC handler.
func (c *Connection) handleCTCP(e *Event) {
	msg := e.Message()
	if !strings.HasPrefix(msg, ctcpDelim) {
		return
	}
	body := strings.Trim(msg, ctcpDelim)
	command, args, _ := strings.Cut(body, " ")
	command = strings.ToUpper(command)

	if command == "DCC" {
		if c.dcc != nil {
			c.dcc.HandleCTCPDCC(e)
		}
		c.emit("CTCP_DCC", e.Arguments, &CTCPPayload{Command: command, Args: args})
		return
	}

	if e.Code == "PRIVMSG" {
		switch command {
		case "VERSION":
			c.Notice(e.Nick, ctcpDelim+"VERSION "+VERSION+ctcpDelim)
		case "TIME":
			c.Notice(e.Nick, ctcpDelim+"TIME "+time.Now().Format(time.RFC1123Z)+ctcpDelim)
		case "PING":
			c.Notice(e.Nick, ctcpDelim+"PING "+args+ctcpDelim)
		case "CLIENTINFO":
			c.Notice(e.Nick, ctcpDelim+"CLIENTINFO VERSION TIME PING ACTION CLIENTINFO USERINFO"+ctcpDelim)
		case "USERINFO":
			c.Notice(e.Nick, ctcpDelim+"USERINFO "+c.cfg.RealName+ctcpDelim)
		}
	}

	code := "CTCP_" + command
	switch command {
	case "ACTION", "VERSION", "TIME", "PING", "FINGER", "CLIENTINFO", "USERINFO":
	default:
		code = "UNKNOWN_CTCP"
	}
	c.emit(code, e.Arguments, &CTCPPayload{Command: command, Args: args})
}
