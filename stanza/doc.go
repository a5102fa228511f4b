// Copyright 2017 Sam Whited.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package stanza contains functionality for dealing with XMPP stanzas and
// stanza level errors.
//
// Stanzas (Message, Presence, and IQ) are the basic building blocks of an
// XMPP stream. This package implements the subset used to negotiate Jingle
// sessions and carry In-Band Bytestream payloads: IQ (the request/response
// primitive used for session negotiation and byte-stream control) and
// Message (used to carry XEP-0353 call proposals).
//
// Stanzas created using the structs in this package are not guaranteed to be
// valid or enforce specific stanza semantics; the caller is responsible for,
// e.g., giving every IQ a unique id.
package stanza // import "mellium.im/xmpp/stanza"
