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
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Start dials the configured server list and drives the connection for
// as long as AutoReconnect allows. It returns nil after Close; otherwise
// it returns the last error once reconnecting is off, the reconnect
// budget is exhausted or StopReconnect was called, or as soon as the
// server refuses the connection with a non-transient IrcError. It is an
// error to call Start while already CONNECTED.
func (c *Connection) Start() error {
	if c.IsConnected() {
		return &ProgrammingError{Msg: "Start called while already connected"}
	}
	c.stateMu.Lock()
	c.stopReconnectFlag = false
	c.shuttingDown = false
	c.stateMu.Unlock()

	for {
		c.attempt++
		c.inRunAttempt++
		c.emit("CONNECT_ATTEMPT_START", nil, &ConnectAttemptStartPayload{Attempt: c.attempt})

		err := c.connectOnce()
		if err == nil {
			// connectOnce blocks for the lifetime of the connection; it only
			// returns nil after a clean, intentional shutdown (Close).
			return nil
		}

		if ircErr, ok := err.(*IrcError); ok && !ircErr.Transient() {
			c.emit("EXCEPTION", nil, &ExceptionPayload{Cause: err, Context: "registration"})
			return err
		}

		c.stateMu.Lock()
		stop := c.stopReconnectFlag || !c.cfg.AutoReconnect
		c.stateMu.Unlock()
		if stop {
			return err
		}
		if c.cfg.AutoReconnectAttempts >= 0 && c.inRunAttempt >= c.cfg.AutoReconnectAttempts {
			return err
		}

		if ioErr, ok := err.(*IOError); ok {
			c.emit("CONNECT_ATTEMPT_FAILED", nil, &ConnectAttemptFailedPayload{
				RemainingAttempts: c.cfg.AutoReconnectAttempts - c.inRunAttempt,
				Failures:          ioErr.Failures,
			})
		}

		select {
		case <-time.After(c.cfg.AutoReconnectDelay):
		case <-c.stopSignal():
			return err
		}
	}
}

// StopReconnect prevents any further reconnect attempt after the current
// connection drops, without tearing down a connection already in progress.
func (c *Connection) StopReconnect() {
	c.stateMu.Lock()
	c.stopReconnectFlag = true
	c.stateMu.Unlock()
}

// Close forces an immediate disconnect and disables reconnection.
func (c *Connection) Close() {
	c.StopReconnect()
	c.stateMu.Lock()
	sock := c.socket
	c.shuttingDown = true
	c.stateMu.Unlock()
	if sock != nil {
		sock.Close()
	}
}

func (c *Connection) stopSignal() <-chan struct{} {
	ch := make(chan struct{})
	c.stateMu.Lock()
	stop := c.stopReconnectFlag
	c.stateMu.Unlock()
	if stop {
		close(ch)
	}
	return ch
}

// connectOnce dials every configured ServerEntry in order, performs the
// registration handshake on the first successful dial, then blocks in
// readLoop until the connection drops. A non-nil return means dialing
// failed outright, registration was refused or timed out, or the
// connection dropped without Close having been called.
func (c *Connection) connectOnce() error {
	factory := c.cfg.SocketFactory
	if factory == nil {
		factory = &DefaultSocketFactory{
			UseTLS:      c.cfg.UseTLS,
			TLSConfig:   c.cfg.TLSConfig,
			ProxyConfig: c.cfg.ProxyConfig,
		}
	}

	var failures []DialFailure
	var target ServerEntry
	var established bool

	for _, entry := range c.cfg.Servers {
		addr := entry.String()
		s, err := factory.Dial("tcp", addr, c.cfg.SocketConnectTimeout)
		if err != nil {
			failures = append(failures, DialFailure{Addr: addr, Err: err})
			continue
		}
		target = entry
		c.stateMu.Lock()
		c.socket = s
		c.state = stateConnected
		c.dao = NewStore(CaseMappingRFC1459)
		c.serverInfo = NewServerInfo()
		c.loggedIn = false
		c.pendingErr = nil
		c.stateMu.Unlock()
		established = true
		break
	}

	if !established {
		return &IOError{Attempts: len(c.cfg.Servers), Failures: failures}
	}

	c.pwrite = make(chan outboundLine, 64)
	c.end = make(chan struct{})

	c.wg.Add(1)
	go c.writeLoop()

	done := make(chan error, 1)
	c.stateMu.Lock()
	c.registrationDone = done
	c.stateMu.Unlock()

	loopDone := make(chan error, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		loopDone <- c.readLoop()
	}()

	c.sendRegistrationLines()

	var regErr error
	select {
	case regErr = <-done:
	case <-time.After(c.cfg.SocketConnectTimeout):
		regErr = &IrcError{Reason: ReasonClosingLink, Message: "registration timed out"}
	}

	if regErr != nil {
		c.shutdown(regErr)
		<-loopDone
		return regErr
	}

	// Registration succeeded: the in-run attempt count starts over.
	c.inRunAttempt = 0

	c.emit("CONNECT", nil, &ConnectPayload{Server: target.String()})

	runErr := <-loopDone
	c.shutdown(runErr)

	c.stateMu.Lock()
	intentional := c.shuttingDown
	c.stateMu.Unlock()
	if intentional {
		return nil
	}
	return runErr
}

// sendRegistrationLines issues the WEBIRC/PASS/CAP/NICK/USER handshake.
// Completion is signaled asynchronously by the parser via
// registrationDone once 001 arrives or the nick is conclusively refused.
func (c *Connection) sendRegistrationLines() {
	if c.cfg.WebIRCEnabled {
		c.rawLineNow(fmt.Sprintf("WEBIRC %s %s %s %s", c.cfg.WebIRCPassword, c.cfg.WebIRCUsername, c.cfg.WebIRCHostname, c.cfg.WebIRCAddress))
	}
	if c.cfg.ServerPassword != "" {
		c.rawLineNow("PASS " + c.cfg.ServerPassword)
	}
	if c.cfg.CapEnabled {
		c.rawLineNow("CAP LS " + c.cfg.CapVersion)
	}
	c.rawLineNow("NICK " + c.nick)
	c.rawLineNow(fmt.Sprintf("USER %s 0 * :%s", c.cfg.Login, c.cfg.RealName))
}

// readLoop is the engine's single reader: it owns the socket's read side
// for the lifetime of one connection, tokenizing CRLF/LF-terminated
// lines and handing each to the parser before touching the socket
// again, preserving per-line ordering between DAO mutation and event
// emission (see DESIGN.md).
func (c *Connection) readLoop() error {
	c.stateMu.Lock()
	sock := c.socket
	c.stateMu.Unlock()

	reader := bufio.NewReaderSize(sock, 8192)
	for {
		if c.cfg.SocketTimeout > 0 {
			sock.SetReadDeadline(time.Now().Add(c.cfg.SocketTimeout))
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if line != "" {
				c.dispatchLine(line)
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				c.rawLineNow(fmt.Sprintf("PING %d", time.Now().Unix()))
				continue
			}
			c.stateMu.Lock()
			pending := c.pendingErr
			c.pendingErr = nil
			c.stateMu.Unlock()
			if pending != nil {
				return pending
			}
			return err
		}

		c.lastMessageMu.Lock()
		c.lastMessage = time.Now()
		c.lastMessageMu.Unlock()

		if len(line) > c.cfg.MaxLineLength {
			c.emit("EXCEPTION", nil, &ExceptionPayload{Cause: fmt.Errorf("line exceeds %d bytes", c.cfg.MaxLineLength), Context: "readLoop"})
			continue
		}
		c.dispatchLine(line)

		c.stateMu.Lock()
		shuttingDown := c.shuttingDown
		c.stateMu.Unlock()
		if shuttingDown {
			return nil
		}
	}
}

func (c *Connection) dispatchLine(raw string) {
	line := strings.TrimRight(raw, "\r\n")
	if line == "" {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.emit("EXCEPTION", nil, &ExceptionPayload{Cause: fmt.Errorf("panic: %v", r), Context: "parser"})
		}
	}()
	c.handleLine(line)
}

// writeLoop drains pwrite onto the wire, applying flood control unless
// the line is marked immediate (registration, PONG).
func (c *Connection) writeLoop() {
	defer c.wg.Done()
	for {
		select {
		case ol, ok := <-c.pwrite:
			if !ok {
				return
			}
			c.stateMu.Lock()
			sock := c.socket
			c.stateMu.Unlock()
			if sock == nil {
				return
			}
			if !ol.immediate {
				c.throttle()
			}
			if _, err := sock.Write([]byte(ol.line + "\r\n")); err != nil {
				return
			}
		case <-c.end:
			return
		}
	}
}

func (c *Connection) throttle() {
	c.floodMu.Lock()
	defer c.floodMu.Unlock()
	wait := c.cfg.MessageDelay - time.Since(c.lastSend)
	if wait > 0 {
		time.Sleep(wait)
	}
	c.lastSend = time.Now()
}

// shutdown tears down the current connection attempt: closes the
// socket, stops writeLoop, always captures the joined-channel set for
// the next reconnect's rejoin, publishes a DAO Snapshot on the
// DISCONNECT event only when SnapshotsEnabled, clears the DAO, closes
// the DCC handler, and emits DISCONNECT.
func (c *Connection) shutdown(cause error) {
	c.stateMu.Lock()
	if c.state == stateDisconnected {
		c.stateMu.Unlock()
		return
	}
	sock := c.socket
	dao := c.dao
	c.state = stateDisconnected
	c.socket = nil
	c.disconnectCause = cause
	c.stateMu.Unlock()

	if sock != nil {
		sock.Close()
	}
	if c.end != nil {
		close(c.end)
	}
	c.wg.Wait()

	var snap *Snapshot
	if dao != nil {
		snap = dao.CreateSnapshot()
		c.captureReconnectChannels(snap)
	}
	var publishedSnap *Snapshot
	if c.cfg.SnapshotsEnabled {
		publishedSnap = snap
	}
	if dao != nil {
		dao.Close()
	}
	if c.dcc != nil {
		c.dcc.Close()
	}

	c.emit("DISCONNECT", nil, &DisconnectPayload{Snapshot: publishedSnap, Cause: cause})
}

func (c *Connection) captureReconnectChannels(snap *Snapshot) {
	if snap == nil {
		return
	}
	chans := make(map[string]string, len(snap.Channels))
	for _, ch := range snap.Channels {
		chans[ch.Name] = ch.Key
	}
	c.stateMu.Lock()
	c.reconnectChannels = chans
	c.stateMu.Unlock()
}

// emit builds and dispatches an Event to the listener bus, setting the
// shared envelope fields.
func (c *Connection) emit(code string, args []string, payload any) {
	e := &Event{
		Code:       code,
		Arguments:  args,
		Connection: c,
		Ctx:        context.Background(),
		Time:       time.Now(),
		Payload:    payload,
	}
	if c.listenerBus != nil {
		c.listenerBus.OnEvent(e)
	}
}

// nextAlternativeNick returns the next configured alternative or, once
// the alternatives are exhausted, the current nick with a numeric suffix.
func (c *Connection) nextAlternativeNick() string {
	if c.altIndex < len(c.cfg.NickAlternatives) {
		n := c.cfg.NickAlternatives[c.altIndex]
		c.altIndex++
		return n
	}
	return c.nick + strconv.Itoa(c.altIndex-len(c.cfg.NickAlternatives)+1)
}
