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

import (
	"strconv"
	"strings"
	"sync"
)

// ServerInfo captures the server identity (numeric 004) and ISUPPORT
// (005) advertisement for the current connection. A fresh ServerInfo is
// created for every connection attempt, mirroring the DAO's lifetime.
type ServerInfo struct {
	mu sync.Mutex

	ServerName   string
	Version      string
	UserModes    string
	ChannelModes string

	Network     string
	ChanTypes   string
	MaxTargets  int
	CaseMapping CaseMapping

	// Prefix maps a PREFIX symbol (e.g. '@', '+') to the UserLevel it grants.
	// PrefixOrder lists the mode letters in declared precedence, highest first.
	Prefix      map[byte]UserLevel
	PrefixModes map[byte]byte // mode letter -> symbol
	PrefixOrder []byte        // mode letters, highest precedence first

	// ChanModeClasses holds the four CHANMODES classes: A (list), B
	// (always takes an argument), C (argument on set, none on unset), D
	// (boolean, never an argument).
	ChanModeClasses [4]string

	raw map[string]string // all ISUPPORT tokens, verbatim, keyed by name
}

// NewServerInfo returns a ServerInfo seeded with the (ov)@+ prefix
// default, used until ISUPPORT PREFIX arrives.
func NewServerInfo() *ServerInfo {
	return &ServerInfo{
		Prefix:      defaultPrefixes(),
		PrefixModes: map[byte]byte{'o': '@', 'v': '+'},
		PrefixOrder: []byte{'o', 'v'},
		ChanTypes:   "#&",
		CaseMapping: CaseMappingRFC1459,
		raw:         make(map[string]string),
	}
}

// ApplyWelcome records the numeric 004 server-identity line:
// <servername> <version> <usermodes> <chanmodes>.
func (si *ServerInfo) ApplyWelcome(args []string) {
	si.mu.Lock()
	defer si.mu.Unlock()
	if len(args) > 0 {
		si.ServerName = args[0]
	}
	if len(args) > 1 {
		si.Version = args[1]
	}
	if len(args) > 2 {
		si.UserModes = args[2]
	}
	if len(args) > 3 {
		si.ChannelModes = args[3]
	}
}

// ApplyISupport folds a set of numeric 005 tokens (e.g. "PREFIX=(ov)@+",
// "CASEMAPPING=ascii", "CHANTYPES=#&") into the server info.
func (si *ServerInfo) ApplyISupport(tokens []string) {
	si.mu.Lock()
	defer si.mu.Unlock()

	for _, tok := range tokens {
		if tok == "" || strings.EqualFold(tok, "are") || strings.Contains(tok, " ") {
			continue
		}
		name, value, hasValue := strings.Cut(tok, "=")
		name = strings.ToUpper(name)
		si.raw[name] = value

		switch name {
		case "PREFIX":
			si.applyPrefix(value)
		case "CHANMODES":
			si.applyChanModes(value)
		case "CASEMAPPING":
			si.CaseMapping = ParseCaseMapping(value)
		case "CHANTYPES":
			if hasValue {
				si.ChanTypes = value
			}
		case "NETWORK":
			si.Network = value
		case "MAXTARGETS":
			if n, err := strconv.Atoi(value); err == nil {
				si.MaxTargets = n
			}
		}
	}
}

// applyPrefix parses "(modes)symbols", e.g. "(qaohv)~&@%+".
func (si *ServerInfo) applyPrefix(value string) {
	if len(value) < 2 || value[0] != '(' {
		return
	}
	close := strings.IndexByte(value, ')')
	if close < 0 {
		return
	}
	modes := value[1:close]
	symbols := value[close+1:]
	if len(modes) != len(symbols) {
		return
	}

	levels := []UserLevel{Owner, SuperOp, Op, HalfOp, Voice}
	// The conventional letters keep their usual level, so the common
	// "(ov)@+" maps '@' to Op and '+' to Voice; other letters are ranked
	// by their declared position.
	byLetter := map[byte]UserLevel{'q': Owner, 'a': SuperOp, 'o': Op, 'h': HalfOp, 'v': Voice}
	prefix := make(map[byte]UserLevel, len(modes))
	prefixModes := make(map[byte]byte, len(modes))
	order := make([]byte, len(modes))
	for i := 0; i < len(modes); i++ {
		letter := modes[i]
		symbol := symbols[i]
		var lvl UserLevel
		if l, ok := byLetter[letter]; ok {
			lvl = l
		} else if i < len(levels) {
			lvl = levels[i]
		} else {
			// Servers advertising more than five prefix levels: the
			// extras rank below Voice, still usable for membership.
			lvl = Voice
		}
		prefix[symbol] = lvl
		prefixModes[letter] = symbol
		order[i] = letter
	}
	si.Prefix = prefix
	si.PrefixModes = prefixModes
	si.PrefixOrder = order
}

// applyChanModes parses "A,B,C,D" mode-class token lists.
func (si *ServerInfo) applyChanModes(value string) {
	classes := strings.SplitN(value, ",", 4)
	for i := 0; i < len(classes) && i < 4; i++ {
		si.ChanModeClasses[i] = classes[i]
	}
}

// ModeClass reports which CHANMODES class (0=A,1=B,2=C,3=D) a channel
// mode letter belongs to, or -1 if it is unknown (e.g. a PREFIX letter,
// which is not part of CHANMODES).
func (si *ServerInfo) ModeClass(letter byte) int {
	si.mu.Lock()
	defer si.mu.Unlock()
	for i, class := range si.ChanModeClasses {
		if strings.IndexByte(class, letter) >= 0 {
			return i
		}
	}
	return -1
}

// LevelForSymbol resolves a NAMES/WHO prefix symbol (e.g. '@') to the
// UserLevel it grants.
func (si *ServerInfo) LevelForSymbol(symbol byte) (UserLevel, bool) {
	si.mu.Lock()
	defer si.mu.Unlock()
	lvl, ok := si.Prefix[symbol]
	return lvl, ok
}

// LevelForModeLetter resolves a MODE letter (e.g. 'o') to the UserLevel
// it grants, used when applying +o/-o etc. to a membership.
func (si *ServerInfo) LevelForModeLetter(letter byte) (UserLevel, bool) {
	si.mu.Lock()
	defer si.mu.Unlock()
	symbol, ok := si.PrefixModes[letter]
	if !ok {
		return 0, false
	}
	lvl, ok := si.Prefix[symbol]
	return lvl, ok
}

// IsPrefixModeLetter reports whether letter is one of the PREFIX mode
// letters (o, v, ...) rather than a CHANMODES letter.
func (si *ServerInfo) IsPrefixModeLetter(letter byte) bool {
	si.mu.Lock()
	defer si.mu.Unlock()
	_, ok := si.PrefixModes[letter]
	return ok
}

// IsChannel reports whether name begins with one of the server's
// advertised channel type prefixes.
func (si *ServerInfo) IsChannel(name string) bool {
	si.mu.Lock()
	defer si.mu.Unlock()
	return len(name) > 0 && strings.IndexByte(si.ChanTypes, name[0]) >= 0
}

// Fold normalises a nick or channel name under the current case mapping.
func (si *ServerInfo) Fold(s string) string {
	si.mu.Lock()
	cm := si.CaseMapping
	si.mu.Unlock()
	return cm.Fold(s)
}

// Raw returns the verbatim value of an ISUPPORT token by name, and
// whether it was ever seen.
func (si *ServerInfo) Raw(name string) (string, bool) {
	si.mu.Lock()
	defer si.mu.Unlock()
	v, ok := si.raw[strings.ToUpper(name)]
	return v, ok
}
