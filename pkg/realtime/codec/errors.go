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

// Package codec implements the reversible encoder chain that transforms
// user payloads into a wire-safe representation and back. Every error
// raised here is non-fatal to the pipeline: callers surface it to the
// user and move on to the next message.
package codec

import "errors"

// Sentinel errors for every way the codec can fail. Use
// errors.Is against these; CipherFailure and JsonMalformed additionally
// carry the text of an underlying cause via fmt.Errorf("%w: %v", sentinel,
// err). The cause itself is not wrapped, so errors.Is matches only the
// sentinel.
var (
	ErrPayloadTypeUnsupported = errors.New("codec: payload type unsupported, wrap the scalar in a structured value")
	ErrEncryptionMisconfigured = errors.New("codec: channel options request encryption but no cipher params were supplied")
	ErrCipherFailure           = errors.New("codec: cipher operation failed")
	ErrMalformedEncodingLabel  = errors.New("codec: malformed encoding label")
	ErrBase64Malformed         = errors.New("codec: malformed base64 payload")
	ErrJSONMalformed           = errors.New("codec: malformed json payload")
)
