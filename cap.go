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

import "strings"

// handleCAP drives the IRCv3 capability negotiation subprotocol: LS
// selects which of the server's offered capabilities to request, ACK/NAK
// resolve the request and either start SASL or close negotiation, NEW/DEL
// are forwarded as informational events only.
func (c *Connection) handleCAP(e *Event) {
	if len(e.Arguments) < 2 {
		return
	}
	sub := strings.ToUpper(e.Arguments[1])
	list := ""
	if len(e.Arguments) > 2 {
		list = e.Arguments[len(e.Arguments)-1]
	}

	switch sub {
	case "LS":
		if len(e.Arguments) > 2 && e.Arguments[2] == "*" {
			// multi-line LS continuation: accumulate and wait for the final line
			c.stateMu.Lock()
			c.requestedCaps = append(c.requestedCaps, splitFields(list)...)
			c.stateMu.Unlock()
			return
		}
		offered := splitFields(list)
		c.stateMu.Lock()
		offered = append(offered, c.requestedCaps...)
		c.requestedCaps = nil
		c.stateMu.Unlock()
		c.requestCaps(offered)

	case "ACK":
		acked := splitFields(list)
		c.stateMu.Lock()
		c.acknowledgedCaps = append(c.acknowledgedCaps, acked...)
		c.stateMu.Unlock()
		if containsFold(acked, "sasl") && c.sasl != nil {
			c.rawLineNow("AUTHENTICATE " + c.sasl.Mechanism())
			return
		}
		c.rawLineNow("CAP END")

	case "NAK":
		c.rawLineNow("CAP END")

	case "NEW", "DEL":
		c.emit("CAP_"+sub, e.Arguments, nil)
	}
}

func (c *Connection) requestCaps(offered []string) {
	var want []string
	offeredSet := make(map[string]bool, len(offered))
	for _, o := range offered {
		name, _, _ := strings.Cut(o, "=")
		offeredSet[strings.ToLower(name)] = true
	}
	for _, req := range c.cfg.Capabilities {
		if offeredSet[strings.ToLower(req)] {
			want = append(want, req)
		}
	}
	if c.cfg.UseSASL && offeredSet["sasl"] {
		want = append(want, "sasl")
		c.sasl = &SASLPlain{Login: c.cfg.SASLLogin, Password: c.cfg.SASLPassword}
	}
	if len(want) == 0 {
		c.rawLineNow("CAP END")
		return
	}
	c.rawLineNow("CAP REQ :" + strings.Join(want, " "))
}

func containsFold(list []string, target string) bool {
	for _, v := range list {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

// handleAuthenticate answers one SASL AUTHENTICATE challenge.
func (c *Connection) handleAuthenticate(e *Event) {
	if c.sasl == nil || len(e.Arguments) == 0 {
		return
	}
	resp, err := c.sasl.Respond(e.Arguments[0])
	if err != nil {
		c.rawLineNow("AUTHENTICATE *")
		c.rawLineNow("CAP END")
		return
	}
	c.rawLineNow("AUTHENTICATE " + resp)
}
