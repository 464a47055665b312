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
// WHETHER IN AN ACTION OF CONTRACT, TORT, OR OTHERWISE, ARISING FROM, OUT OF, OR IN CONNECTION WITH THE SOFTWARE
// OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package irc

import "strings"

// CaseMapping selects how nicknames and channel names are folded for
// equality, as advertised by the server's ISUPPORT CASEMAPPING token.
type CaseMapping int

const (
	CaseMappingRFC1459 CaseMapping = iota
	CaseMappingASCII
	CaseMappingRFC1459Strict
)

// ParseCaseMapping maps an ISUPPORT CASEMAPPING value to a CaseMapping.
// Unknown values fall back to rfc1459, the RFC 1459 default.
func ParseCaseMapping(value string) CaseMapping {
	switch strings.ToLower(value) {
	case "ascii":
		return CaseMappingASCII
	case "rfc1459-strict":
		return CaseMappingRFC1459Strict
	default:
		return CaseMappingRFC1459
	}
}

// Fold normalises a nickname or channel name for case-insensitive
// comparison under this mapping.
func (cm CaseMapping) Fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
			b.WriteRune(r)
			continue
		}
		if cm != CaseMappingASCII {
			switch r {
			case '[':
				r = '{'
			case ']':
				r = '}'
			case '\\':
				r = '|'
			case '~':
				if cm == CaseMappingRFC1459 {
					r = '^'
				}
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Hostmask is the nick!login@host identity triple. Any part may be
// empty when unknown; equality between hostmasks is by nick only, under
// the connection's case mapping, since login/host may change between
// sightings of the same user.
type Hostmask struct {
	Nick string
	Login string
	Host string
}

// ParseHostmask splits a raw IRC prefix into its nick/login/host parts.
// Prefixes without "!" and "@" (a bare server name, e.g. "irc.example.net")
// are returned as a Hostmask with only Nick set to the whole string; callers
// that need to distinguish a server prefix from a user prefix should check
// for the presence of Login/Host.
func ParseHostmask(prefix string) Hostmask {
	bang := strings.IndexByte(prefix, '!')
	at := strings.IndexByte(prefix, '@')
	if bang > -1 && at > -1 && bang < at {
		return Hostmask{
			Nick:  prefix[:bang],
			Login: prefix[bang+1 : at],
			Host:  prefix[at+1:],
		}
	}
	return Hostmask{Nick: prefix}
}

// String renders the hostmask back into nick!login@host form, omitting
// the parts that are unknown.
func (h Hostmask) String() string {
	if h.Login == "" && h.Host == "" {
		return h.Nick
	}
	return h.Nick + "!" + h.Login + "@" + h.Host
}

// IsUser reports whether this hostmask carries login/host information,
// i.e. it names a client rather than a bare server name.
func (h Hostmask) IsUser() bool {
	return h.Login != "" || h.Host != ""
}
