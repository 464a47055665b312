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
	"bytes"
	"encoding/base64"
	"errors"
)

// SASLAuthenticator negotiates one SASL mechanism during CAP
// negotiation. Respond is called once per AUTHENTICATE challenge; the
// empty challenge "+" signals the server is ready for the initial
// response.
type SASLAuthenticator interface {
	Mechanism() string
	Respond(challenge string) (response string, err error)
}

// SASLPlain implements the PLAIN mechanism (RFC 4616).
type SASLPlain struct {
	Login    string
	Password string
}

func (a *SASLPlain) Mechanism() string { return "PLAIN" }

func (a *SASLPlain) Respond(challenge string) (string, error) {
	if challenge != "+" {
		return "", errors.New("sasl plain: unexpected challenge")
	}
	login := []byte(a.Login)
	pass := []byte(a.Password)
	payload := bytes.Join([][]byte{login, login, pass}, []byte{0})
	return base64.StdEncoding.EncodeToString(payload), nil
}

// saslResult is delivered on the negotiation channel once AUTHENTICATE
// succeeds (903) or fails (904/905/906/908/911).
type saslResult struct {
	failed bool
	err    error
}
