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

// Package proto holds the wire-level data model shared by the connection
// and channel state machines: messages, presence entries, the protocol
// envelope, and the numeric action/flag constants fixed by the wire
// protocol. None of it does I/O; serialization glue lives in the
// serializer package and is applied by the connection.
package proto

// Action identifies the kind of a ProtocolMessage. The numeric values are
// authoritative and must never be reordered or reused.
type Action int

const (
	ActionHeartbeat Action = iota
	ActionAck
	ActionNack
	ActionConnect
	ActionConnected
	ActionDisconnect
	ActionDisconnected
	ActionClose
	ActionClosed
	ActionError
	ActionAttach
	ActionAttached
	ActionDetach
	ActionDetached
	ActionPresence
	ActionMessage
	ActionSync
)

func (a Action) String() string {
	switch a {
	case ActionHeartbeat:
		return "heartbeat"
	case ActionAck:
		return "ack"
	case ActionNack:
		return "nack"
	case ActionConnect:
		return "connect"
	case ActionConnected:
		return "connected"
	case ActionDisconnect:
		return "disconnect"
	case ActionDisconnected:
		return "disconnected"
	case ActionClose:
		return "close"
	case ActionClosed:
		return "closed"
	case ActionError:
		return "error"
	case ActionAttach:
		return "attach"
	case ActionAttached:
		return "attached"
	case ActionDetach:
		return "detach"
	case ActionDetached:
		return "detached"
	case ActionPresence:
		return "presence"
	case ActionMessage:
		return "message"
	case ActionSync:
		return "sync"
	default:
		return "unknown"
	}
}

// Flags is a bitfield carried on a ProtocolMessage. Bits are allocated
// from the low-order bit upward: bit 0 is HasPresence, bit 1 is
// HasBacklog.
type Flags uint32

const (
	FlagHasPresence Flags = 1 << iota
	FlagHasBacklog
)

func (f Flags) HasPresence() bool { return f&FlagHasPresence != 0 }
func (f Flags) HasBacklog() bool  { return f&FlagHasBacklog != 0 }

// PresenceAction identifies the kind of a PresenceMessage.
type PresenceAction int

const (
	PresenceAbsent PresenceAction = iota
	PresencePresent
	PresenceEnter
	PresenceLeave
	PresenceUpdate
)

func (a PresenceAction) String() string {
	switch a {
	case PresenceAbsent:
		return "absent"
	case PresencePresent:
		return "present"
	case PresenceEnter:
		return "enter"
	case PresenceLeave:
		return "leave"
	case PresenceUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// ChannelMode is a capability a client requests when attaching to a channel.
type ChannelMode int

const (
	ModePublish ChannelMode = iota
	ModeSubscribe
	ModePresence
	ModePresenceSubscribe
)
