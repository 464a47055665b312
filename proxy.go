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
	"net"
	"net/url"

	"golang.org/x/net/proxy"
	"h12.io/socks"
)

// socks4Dialer adapts h12.io/socks's functional dialer to the
// golang.org/x/net/proxy.Dialer interface.
type socks4Dialer struct {
	dialFunc func(string, string) (net.Conn, error)
}

func (d *socks4Dialer) Dial(network, addr string) (net.Conn, error) {
	return d.dialFunc(network, addr)
}

// newProxyDialer builds a proxy.Dialer for the configured proxy type.
func newProxyDialer(pc *ProxyConfig) (timeoutDialer, error) {
	switch pc.Type {
	case "socks4":
		socks4Proxy := socks.Dial(fmt.Sprintf("socks4://%s:%s@%s", pc.Username, pc.Password, pc.Address))
		return &socks4Dialer{dialFunc: socks4Proxy}, nil
	case "socks5":
		auth := &proxy.Auth{User: pc.Username, Password: pc.Password}
		return proxy.SOCKS5("tcp", pc.Address, auth, proxy.Direct)
	case "http":
		proxyURL, err := url.Parse(fmt.Sprintf("http://%s:%s@%s", pc.Username, pc.Password, pc.Address))
		if err != nil {
			return nil, err
		}
		return proxy.FromURL(proxyURL, proxy.Direct)
	default:
		return nil, fmt.Errorf("unsupported proxy type: %s", pc.Type)
	}
}
