// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package transport defines the Transport interface the connection state
// machine consumes. Concrete transports — one for raw
// framed sockets with a JSON payload, one with a binary packed payload —
// are external collaborators out of scope for this repo; Fake, below,
// is an in-memory stand-in used by tests and cmd/realtime-cli.
package transport

import (
	"context"
	"errors"
)

// FatalError marks a transport failure that retrying can never fix: a
// malformed address, a TLS configuration the peer will always reject, a
// failed protocol handshake. Concrete transports wrap such errors with
// Fatal before handing them to OnError (or returning them from a dial);
// anything unwrapped is treated as transient and retried.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal marks err as non-recoverable. A nil err stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err was marked non-recoverable with Fatal.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Handlers are the event callbacks a Transport invokes as frames and
// lifecycle events arrive. The connection actor supplies one set of
// handlers per dial and must not block inside them for long: handlers
// post into the actor's serialized inbox and return.
type Handlers struct {
	OnOpen   func()
	OnText   func(frame []byte)
	OnBinary func(frame []byte)
	OnClose  func(reason error)
	OnError  func(err error)
}

// Transport is the narrow interface the connection owns exclusively
// while connected. Exactly
// one is active per connection at a time.
type Transport interface {
	// Send writes an already-encoded frame to the wire. frame is text
	// for a JSON wire serializer, binary for a packed one.
	Send(ctx context.Context, frame []byte, isText bool) error

	// Destroy tears the transport down. Idempotent and synchronous
	//.
	Destroy()
}

// Dialer opens a Transport against url and wires handlers to it. This
// is the one piece of the Transport contract that is inherently
// connection-scoped (a fresh Transport per dial), so it is modeled as a
// constructor function rather than a method, matching how the connection
// state machine treats starting a dial as a single effect.
type Dialer func(ctx context.Context, url string, handlers Handlers) (Transport, error)
