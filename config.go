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
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/text/encoding"
)

// ServerEntry is one (hostname, port) candidate from the configured
// server list, tried in order during the reconnect loop's DNS fan-out.
type ServerEntry struct {
	Host string
	Port int
}

func (se ServerEntry) String() string {
	return fmt.Sprintf("%s:%d", se.Host, se.Port)
}

// ProxyConfig configures an outbound SOCKS4/SOCKS5/HTTP CONNECT proxy,
// carried over unchanged from the teacher library.
type ProxyConfig struct {
	Type     string // "socks4", "socks5", "http"
	Address  string
	Username string
	Password string
}

// Config holds every engine knob named in the specification's external
// interface section. Zero-value fields fall back to DefaultConfig's
// defaults where that makes sense.
type Config struct {
	Servers []ServerEntry

	Nick             string
	Login            string
	RealName         string
	NickAlternatives []string

	ServerPassword string

	WebIRCEnabled  bool
	WebIRCPassword string
	WebIRCUsername string
	WebIRCHostname string
	WebIRCAddress  string

	CapEnabled   bool
	Capabilities []string
	CapVersion   string

	UseSASL      bool
	SASLLogin    string
	SASLPassword string

	AutoReconnect         bool
	AutoReconnectAttempts int // -1 = infinite
	AutoReconnectDelay    time.Duration

	SocketConnectTimeout time.Duration
	SocketTimeout        time.Duration

	LocalAddress  string
	SocketFactory SocketFactory
	ProxyConfig   *ProxyConfig

	UseTLS    bool
	TLSConfig *tls.Config

	Encoding      encoding.Encoding
	MaxLineLength int

	IdentServerEnabled bool
	IdentServer        IdentServer

	SnapshotsEnabled    bool
	ShutdownHookEnabled bool

	MessageDelay time.Duration

	Debug bool
	Log   *log.Logger

	ListenerBus ListenerBus
	DCCHandler  DCCHandler
}

// DefaultConfig returns a Config with the defaults the teacher library
// ships (SOCKS/TLS-capable dialing, CAP LS 302, conservative reconnect
// pacing) generalized to the engine's server-list/DAO model.
func DefaultConfig(nick, login string) Config {
	return Config{
		Nick:     nick,
		Login:    login,
		RealName: login,

		CapEnabled: true,
		CapVersion: "302",

		AutoReconnect:         true,
		AutoReconnectAttempts: -1,
		AutoReconnectDelay:    15 * time.Second,

		SocketConnectTimeout: 30 * time.Second,
		SocketTimeout:        5 * time.Minute,

		MaxLineLength: 512,

		SnapshotsEnabled: true,

		MessageDelay: 500 * time.Millisecond,

		Log: log.New(os.Stdout, "", log.LstdFlags),
	}
}
