// Copyright 2016 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ns provides namespace constants used by this module and its
// subpackages.
package ns // import "mellium.im/xmpp/internal/ns"

// List of commonly used namespaces.
const (
	Client  = "jabber:client"
	Server  = "jabber:server"
	Stanzas = "urn:ietf:params:xml:ns:xmpp-stanzas"
	XML     = "http://www.w3.org/XML/1998/namespace"

	// Jingle is the core Jingle session-negotiation namespace (XEP-0166).
	Jingle = "urn:xmpp:jingle:1"

	// JingleFT is the Jingle file-transfer description namespace, version 5
	// (XEP-0234).
	JingleFT = "urn:xmpp:jingle:apps:file-transfer:5"

	// JingleIBB is the Jingle in-band-bytestream transport namespace
	// (XEP-0261).
	JingleIBB = "urn:xmpp:jingle:transports:ibb:1"

	// JingleRTP is the Jingle RTP media description namespace (XEP-0167),
	// used only to recognize XEP-0353 call proposals; RTP sessions are never
	// negotiated.
	JingleRTP = "urn:xmpp:jingle:apps:rtp:1"

	// JingleMessage is the Jingle Message Initiation namespace (XEP-0353)
	// used to propose calls out-of-band from a Jingle session.
	JingleMessage = "urn:xmpp:jingle-message:0"

	// IBB is the In-Band Bytestreams namespace (XEP-0047).
	IBB = "http://jabber.org/protocol/ibb"

	// FileMeta is the file metadata namespace (XEP-0446) used for the <file/>
	// child of a Jingle file-transfer description.
	FileMeta = "urn:xmpp:file:metadata:0"
)
