// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package jingle implements the session-negotiation half of a peer-to-peer
// file-transfer subsystem: the Jingle (XEP-0166) state machine profiled for
// file transfer (XEP-0234).
//
// A Manager owns every active Jingle session, keyed by session id (sid). It
// parses inbound session-initiate/session-terminate IQs, builds the matching
// session-accept/session-terminate responses, and exposes a read-through
// lookup by transport sid so that a byte-stream transport (see the ibb
// package) can correlate its own frames to a negotiated content without
// holding a pointer into the Manager's tables itself.
//
// Only the receiver role is implemented: this package never originates a
// session-initiate. RTP descriptions and SOCKS5 transports are recognized
// well enough to be rejected cleanly; they are never negotiated.
//
// Manager also implements mux.MessageHandler for XEP-0353 Jingle Message
// Initiation, surfacing an incoming call proposal as a ring notification
// without itself negotiating RTP.
package jingle // import "mellium.im/xmpp/jingle"
