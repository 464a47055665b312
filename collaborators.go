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
	"net"
	"strings"
	"sync"
	"time"
)

// ListenerBus is the external collaborator that receives every event
// the core emits. The core never blocks indefinitely on it: OnEvent is
// called synchronously from the read thread, so implementations that
// need to do slow work should hand off internally rather than block.
type ListenerBus interface {
	OnEvent(e *Event)
	Shutdown(bot *Connection)
}

// SocketFactory produces a (possibly TLS-wrapped) connected socket,
// allowing callers to plug in custom dialing/TLS behavior.
type SocketFactory interface {
	Dial(network, addr string, timeout time.Duration) (net.Conn, error)
}

// DCCHandler consumes CTCP DCC requests forwarded by the parser. Its
// lifetime is independent of the connection and is closed at shutdown.
type DCCHandler interface {
	HandleCTCPDCC(e *Event)
	Close()
}

// IdentServer is the process-wide ident responder registry. The engine
// registers/unregisters an entry scoped to one connection; the service
// itself owns the listening socket and its accept loop is not specified
// here (see spec.md §1 Out of scope).
type IdentServer interface {
	Register(remoteAddr string, remotePort, localPort int, login string) error
	Unregister(remoteAddr string, remotePort, localPort int)
}

// CallbackID uniquely identifies a registered callback.
type CallbackID struct {
	EventCode string
	ID        int
}

// SimpleListenerBus is the default synchronous ListenerBus: a map of
// per-event-code callback slots, generalized from the teacher's
// `events map[string]map[int]func(*Event)` dispatcher. Passing "*"
// registers a callback for every event code.
type SimpleListenerBus struct {
	mu        sync.Mutex
	callbacks map[string]map[int]func(*Event)
	idCounter int
}

// NewSimpleListenerBus returns an empty bus.
func NewSimpleListenerBus() *SimpleListenerBus {
	return &SimpleListenerBus{callbacks: make(map[string]map[int]func(*Event))}
}

// AddCallback registers callback under eventcode ("*" for all codes)
// and returns an ID for later removal.
func (b *SimpleListenerBus) AddCallback(eventcode string, callback func(*Event)) int {
	eventcode = strings.ToUpper(eventcode)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.callbacks[eventcode] == nil {
		b.callbacks[eventcode] = make(map[int]func(*Event))
	}
	id := b.idCounter
	b.idCounter++
	b.callbacks[eventcode][id] = callback
	return id
}

// RemoveCallback removes callback id from eventcode. Returns false if
// either was not found.
func (b *SimpleListenerBus) RemoveCallback(eventcode string, id int) bool {
	eventcode = strings.ToUpper(eventcode)
	b.mu.Lock()
	defer b.mu.Unlock()
	if slot, ok := b.callbacks[eventcode]; ok {
		if _, ok := slot[id]; ok {
			delete(slot, id)
			return true
		}
	}
	return false
}

// ClearCallback removes every callback registered under eventcode.
func (b *SimpleListenerBus) ClearCallback(eventcode string) bool {
	eventcode = strings.ToUpper(eventcode)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.callbacks[eventcode]; ok {
		b.callbacks[eventcode] = make(map[int]func(*Event))
		return true
	}
	return false
}

// OnEvent runs every callback registered for e.Code plus every "*"
// callback, each recovering its own panic into an EXCEPTION event so a
// single misbehaving listener can never stall or crash the read thread.
// A panic while handling an EXCEPTION event is only logged.
func (b *SimpleListenerBus) OnEvent(e *Event) {
	b.mu.Lock()
	var matched []func(*Event)
	if slot, ok := b.callbacks[e.Code]; ok {
		for _, cb := range slot {
			matched = append(matched, cb)
		}
	}
	if slot, ok := b.callbacks["*"]; ok {
		for _, cb := range slot {
			matched = append(matched, cb)
		}
	}
	b.mu.Unlock()

	for _, cb := range matched {
		b.runOne(cb, e)
	}
}

func (b *SimpleListenerBus) runOne(cb func(*Event), e *Event) {
	defer func() {
		if r := recover(); r != nil {
			if e.Connection != nil && e.Connection.cfg.Log != nil {
				e.Connection.cfg.Log.Printf("listener panic on %s: %v", e.Code, r)
			}
			if e.Connection != nil && e.Code != "EXCEPTION" {
				e.Connection.emit("EXCEPTION", nil, &ExceptionPayload{Cause: fmt.Errorf("listener panic on %s: %v", e.Code, r), Context: "listener"})
			}
		}
	}()
	cb(e)
}

// Shutdown clears every registered callback.
func (b *SimpleListenerBus) Shutdown(bot *Connection) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = make(map[string]map[int]func(*Event))
}

// DefaultSocketFactory dials plain or TLS-wrapped TCP sockets, optionally
// through a SOCKS4/SOCKS5/HTTP proxy.
type DefaultSocketFactory struct {
	UseTLS      bool
	TLSConfig   *tls.Config
	LocalAddr   net.Addr
	ProxyConfig *ProxyConfig
}

// Dial connects to addr, honoring the configured proxy and TLS settings.
func (f *DefaultSocketFactory) Dial(network, addr string, timeout time.Duration) (net.Conn, error) {
	dialer, err := buildDialer(f.ProxyConfig, f.LocalAddr, timeout)
	if err != nil {
		return nil, err
	}
	conn, err := dialer.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	if f.UseTLS {
		conn = tls.Client(conn, f.TLSConfig)
	}
	return conn, nil
}

type timeoutDialer interface {
	Dial(network, addr string) (net.Conn, error)
}

func buildDialer(pc *ProxyConfig, localAddr net.Addr, timeout time.Duration) (timeoutDialer, error) {
	if pc == nil {
		return &net.Dialer{LocalAddr: localAddr, Timeout: timeout}, nil
	}
	return newProxyDialer(pc)
}
