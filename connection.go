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

/*
Package irc implements the stateful core of an IRC client engine: the
connection/reconnect state machine, the line-oriented protocol parser and
dispatcher, and the in-memory User/Channel relational model. Listeners,
DCC file transfer, and identd are external collaborators consumed
through interfaces; this package drives them but does not implement
their internals.

Details of the IRC protocol can be found in the following RFCs:
https://tools.ietf.org/html/rfc1459
https://tools.ietf.org/html/rfc2812
The client-to-client protocol (CTCP) is documented here:
http://www.irchelp.org/irchelp/rfc/ctcpspec.html
*/
package irc

import (
	"net"
	"sync"
	"time"
)

const VERSION = "ircengine v1.0.0"

// connState is the engine's three-state connection lifecycle.
type connState int

const (
	stateInit connState = iota
	stateConnected
	stateDisconnected
)

func (s connState) String() string {
	switch s {
	case stateInit:
		return "INIT"
	case stateConnected:
		return "CONNECTED"
	case stateDisconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Connection is one IRC client engine instance. It owns exactly one
// outbound connection at a time; the reconnect loop tears down and
// rebuilds the DAO/parser/ServerInfo on every attempt, but the
// Connection value itself is reusable across the engine's lifetime.
type Connection struct {
	cfg Config

	// stateMu guards state, socket, reconnectChannels and identd
	// registration, per spec.md §5.
	stateMu           sync.Mutex
	state             connState
	socket            net.Conn
	reconnectChannels map[string]string // channel name -> key, for rejoin after reconnect
	identRegistered   bool

	wg  sync.WaitGroup
	end chan struct{}

	pwrite chan outboundLine
	Error  chan error

	listenerBus ListenerBus
	dcc         DCCHandler

	dao        *Store
	serverInfo *ServerInfo

	nick             string // desired nick
	nickCurrent      string // server-confirmed nick
	altIndex         int    // next index into cfg.NickAlternatives to try
	loggedIn         bool
	acknowledgedCaps []string
	requestedCaps    []string
	registrationDone chan error // signaled once by the parser on 001/refusal

	sasl        SASLAuthenticator
	saslResults chan saslResult

	collectMu sync.Mutex
	whoisBuf  map[string]*WhoisPayload
	whoBuf    map[string]*WhoPayload
	namesBuf  map[string][]string

	lastMessageMu sync.Mutex
	lastMessage   time.Time

	floodMu  sync.Mutex
	lastSend time.Time

	attempt      int // monotonic across the engine's life
	inRunAttempt int // reset on successful registration

	stopReconnectFlag bool
	shuttingDown      bool

	disconnectCause error

	// pendingErr is the classified error from a server ERROR line,
	// picked up by readLoop once the socket subsequently closes so it
	// (not the raw EOF) becomes connectOnce's returned error.
	pendingErr error
}

// New creates an engine with the given configuration. Returns nil if
// Nick or Login is empty, mirroring the teacher library's IRC()
// constructor contract.
func New(cfg Config) *Connection {
	if cfg.Nick == "" || cfg.Login == "" {
		return nil
	}
	if cfg.Log == nil {
		def := DefaultConfig(cfg.Nick, cfg.Login)
		cfg.Log = def.Log
	}
	if cfg.MaxLineLength == 0 {
		cfg.MaxLineLength = 512
	}
	if cfg.MessageDelay == 0 {
		cfg.MessageDelay = 500 * time.Millisecond
	}
	if cfg.SocketConnectTimeout == 0 {
		cfg.SocketConnectTimeout = 30 * time.Second
	}
	if cfg.SocketTimeout == 0 {
		cfg.SocketTimeout = 5 * time.Minute
	}
	if cfg.RealName == "" {
		cfg.RealName = cfg.Login
	}
	if cfg.ListenerBus == nil {
		cfg.ListenerBus = NewSimpleListenerBus()
	}
	if cfg.DCCHandler == nil {
		cfg.DCCHandler = NewSimpleDCCHandler(cfg.Log)
	}

	c := &Connection{
		cfg:         cfg,
		state:       stateInit,
		nick:        cfg.Nick,
		nickCurrent: cfg.Nick,
		listenerBus: cfg.ListenerBus,
		dcc:         cfg.DCCHandler,
		Error:       make(chan error, 10),
	}
	return c
}

// State returns the current lifecycle state.
func (c *Connection) State() connState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// IsConnected reports whether the engine believes it holds a live
// connection.
func (c *Connection) IsConnected() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state == stateConnected
}

// IsLoggedIn reports whether registration (001) has completed on the
// current connection attempt.
func (c *Connection) IsLoggedIn() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.loggedIn
}

// CurrentNick returns the server-confirmed nickname.
func (c *Connection) CurrentNick() string {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.nickCurrent
}

// DAO returns the live User/Channel store for the current connection
// attempt. It is replaced on every reconnect; callers that need a
// stable view across reconnects should use a DisconnectEvent's Snapshot.
func (c *Connection) DAO() *Store {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.dao
}

// ServerInfo returns the ISUPPORT/004 capture for the current attempt.
func (c *Connection) ServerInfo() *ServerInfo {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.serverInfo
}

// AddCallback is a convenience wrapper over the default
// SimpleListenerBus, provided when Config.ListenerBus was left nil. It
// panics if a custom ListenerBus was supplied, since only
// SimpleListenerBus exposes per-ID callback management.
func (c *Connection) AddCallback(eventcode string, callback func(*Event)) int {
	bus, ok := c.listenerBus.(*SimpleListenerBus)
	if !ok {
		panic("irc: AddCallback requires the default SimpleListenerBus")
	}
	return bus.AddCallback(eventcode, callback)
}

// RemoveCallback removes a callback previously registered with AddCallback.
func (c *Connection) RemoveCallback(eventcode string, id int) bool {
	bus, ok := c.listenerBus.(*SimpleListenerBus)
	if !ok {
		return false
	}
	return bus.RemoveCallback(eventcode, id)
}
