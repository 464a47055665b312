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

// UserLevel is a single channel membership flag, derived from the
// server's ISUPPORT PREFIX token.
type UserLevel int

const (
	Voice UserLevel = iota
	HalfOp
	Op
	SuperOp
	Owner
)

// String returns the conventional name of the level.
func (l UserLevel) String() string {
	switch l {
	case Voice:
		return "voice"
	case HalfOp:
		return "halfop"
	case Op:
		return "op"
	case SuperOp:
		return "superop"
	case Owner:
		return "owner"
	default:
		return "unknown"
	}
}

// LevelSet is a bitset of UserLevel values held by a user on one channel.
type LevelSet uint8

func levelBit(l UserLevel) LevelSet {
	return 1 << uint(l)
}

// Has reports whether the set contains l.
func (s LevelSet) Has(l UserLevel) bool {
	return s&levelBit(l) != 0
}

// Add returns a copy of s with l added.
func (s LevelSet) Add(l UserLevel) LevelSet {
	return s | levelBit(l)
}

// Remove returns a copy of s with l removed.
func (s LevelSet) Remove(l UserLevel) LevelSet {
	return s &^ levelBit(l)
}

// Empty reports whether the set has no levels.
func (s LevelSet) Empty() bool {
	return s == 0
}

// Highest returns the most privileged level in the set and true, or
// (0, false) if the set is empty.
func (s LevelSet) Highest() (UserLevel, bool) {
	for _, l := range []UserLevel{Owner, SuperOp, Op, HalfOp, Voice} {
		if s.Has(l) {
			return l, true
		}
	}
	return 0, false
}

// defaultPrefixes is the (ov)@+ fallback used until ISUPPORT PREFIX is
// seen, per spec: the default prefix→level mapping.
func defaultPrefixes() map[byte]UserLevel {
	return map[byte]UserLevel{
		'@': Op,
		'+': Voice,
	}
}
