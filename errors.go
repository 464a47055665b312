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
	"strings"
)

// ErrorType classifies a server-sent ERROR line to decide whether the
// reconnect loop should retry.
type ErrorType int

const (
	// RecoverableErrorKind covers temporary issues that should allow reconnection.
	RecoverableErrorKind ErrorType = iota
	// PermanentErrorKind covers permanent bans/blocks that should prevent reconnection.
	PermanentErrorKind
	// ServerErrorKind covers server-side issues (too many connections, etc).
	ServerErrorKind
	// NetworkErrorKind covers network connectivity issues.
	NetworkErrorKind
)

func (e ErrorType) String() string {
	switch e {
	case RecoverableErrorKind:
		return "RecoverableError"
	case PermanentErrorKind:
		return "PermanentError"
	case ServerErrorKind:
		return "ServerError"
	case NetworkErrorKind:
		return "NetworkError"
	default:
		return "UnknownError"
	}
}

// AnalyzeErrorMessage categorizes a server-sent IRC ERROR message to
// determine reconnection strategy.
func AnalyzeErrorMessage(errorMsg string) ErrorType {
	errorLower := strings.ToLower(errorMsg)

	permanentPatterns := []string{
		"k-lined", "k-line", "klined",
		"g-lined", "g-line", "glined",
		"banned", "you are banned", "user is banned",
		"unauthorized connection",
		"connection refused",
		"access denied",
		"you are not authorized",
		"blacklisted",
		"throttled", "throttling",
		"flood", "flooding",
		"spam", "spamming",
	}
	for _, pattern := range permanentPatterns {
		if strings.Contains(errorLower, pattern) {
			return PermanentErrorKind
		}
	}

	serverPatterns := []string{
		"too many connections",
		"too many host connections",
		"too many global connections",
		"connection limit exceeded",
		"server full",
		"max connections reached",
		"too many connections from this ip",
		"too many connections from your host",
		"connection limit",
		"host limit",
		"ip limit",
		"clone limit",
		"too many clones",
	}
	for _, pattern := range serverPatterns {
		if strings.Contains(errorLower, pattern) {
			return ServerErrorKind
		}
	}

	networkPatterns := []string{
		"connection reset",
		"connection timed out",
		"network unreachable",
		"no route to host",
		"connection lost",
		"broken pipe",
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(errorLower, pattern) {
			return NetworkErrorKind
		}
	}

	recoverablePatterns := []string{
		"registration timeout",
		"ping timeout",
		"server shutting down",
		"server restart",
	}
	for _, pattern := range recoverablePatterns {
		if strings.Contains(errorLower, pattern) {
			return RecoverableErrorKind
		}
	}

	// Unknown errors default to recoverable: more likely transient than
	// a permanent block.
	return RecoverableErrorKind
}

// Reason tags why a protocol refusal (IrcError) occurred.
type Reason int

const (
	ReasonOther Reason = iota
	ReasonNickAlreadyInUse
	ReasonBanned
	ReasonClosingLink
	ReasonThrottled
)

func (r Reason) String() string {
	switch r {
	case ReasonNickAlreadyInUse:
		return "nick already in use"
	case ReasonBanned:
		return "banned"
	case ReasonClosingLink:
		return "closing link"
	case ReasonThrottled:
		return "throttled"
	default:
		return "other"
	}
}

// IrcError represents a protocol refusal: the server rejected the
// connection attempt outright (banned, nick collision with no
// alternatives left, closing link during registration). Fatal to the
// current attempt; retried by the reconnect loop only when Reason is
// judged transient (e.g. ReasonThrottled).
type IrcError struct {
	Reason  Reason
	Message string
}

func (e *IrcError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("irc: %s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("irc: %s", e.Reason)
}

// Transient reports whether the reconnect loop should retry after this
// refusal.
func (e *IrcError) Transient() bool {
	return e.Reason == ReasonThrottled
}

// DialFailure records one failed dial of a configured (host, port)
// entry, in the order it was tried.
type DialFailure struct {
	Addr string
	Err  error
}

// IOError is raised when no configured server could be reached within
// the retry budget.
type IOError struct {
	Attempts int
	Failures []DialFailure
}

func (e *IOError) Error() string {
	return fmt.Sprintf("irc: exhausted %d connect attempt(s) across %d candidate address(es)", e.Attempts, len(e.Failures))
}

// ProgrammingError is raised for API misuse: calling Start while
// CONNECTED. A repeated shutdown from DISCONNECTED raises nothing;
// shutdown returns without doing anything in that case.
type ProgrammingError struct {
	Msg string
}

func (e *ProgrammingError) Error() string {
	return "irc: programming error: " + e.Msg
}
