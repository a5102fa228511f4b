// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"context"
	"encoding/xml"
	"log"
	"strconv"

	"mellium.im/xmpp/crypto"
	"mellium.im/xmpp/jid"
)

// Sender is the collaborator that lets the Manager put stanzas on the wire
// and mint identifiers for them. It stands in for the IQ routing and
// connection layers, which this package treats as external (see package
// doc).
type Sender interface {
	// Send writes payload to the stream. It must not return until the
	// stanza has been handed to the underlying transport.
	Send(ctx context.Context, payload xml.TokenReader) error

	// NextID returns a new, unused stanza identifier.
	NextID() string

	// LocalJID returns the full JID of the local connection.
	LocalJID() jid.JID
}

// Notifier is the collaborator used to surface information to the user. It
// stands in for the console/UI layer.
type Notifier interface {
	// Offer reports an incoming file offer. transportSID and name identify
	// the proposed transfer for the user (see design note on resolving the
	// literal "ID" placeholder the distilled source used).
	Offer(peer jid.JID, transportSID, name string, size uint64)

	// Ring reports an XEP-0353 call proposal for an RTP session, which this
	// package never accepts but does acknowledge at the notification level.
	Ring(peer jid.JID)

	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Logger is the logging seam used by this package. A nil *log.Logger is
// replaced with log.Default() by NewManager, mirroring the zero-value
// conventions used elsewhere in this module (e.g. crypto.Hash).
type Logger struct {
	*log.Logger
}

// Debugf logs a parse/validation-level message (taxonomy tier 1): an
// offending unit was discarded and nothing is reported to the peer.
func (l Logger) Debugf(format string, v ...interface{}) {
	l.Logger.Printf("DEBUG "+format, v...)
}

// Warnf logs a message about a condition worth an operator's attention that
// still does not rise to a peer-visible protocol error.
func (l Logger) Warnf(format string, v ...interface{}) {
	l.Logger.Printf("WARN "+format, v...)
}

// Creator identifies which peer originally added a content to a session.
type Creator int

// Recognized content creators.
const (
	CreatorUnknown Creator = iota
	CreatorInitiator
	CreatorResponder
)

func (c Creator) String() string {
	switch c {
	case CreatorInitiator:
		return "initiator"
	case CreatorResponder:
		return "responder"
	default:
		return "unknown"
	}
}

func parseCreator(s string) Creator {
	switch s {
	case "initiator":
		return CreatorInitiator
	case "responder":
		return CreatorResponder
	default:
		return CreatorUnknown
	}
}

// Senders identifies which peer(s) are permitted to send content bytes.
type Senders int

// Recognized senders values.
const (
	SendersUnknown Senders = iota
	SendersBoth
	SendersInitiator
	SendersResponder
	SendersNone
)

func (s Senders) String() string {
	switch s {
	case SendersBoth:
		return "both"
	case SendersInitiator:
		return "initiator"
	case SendersResponder:
		return "responder"
	case SendersNone:
		return "none"
	default:
		return "unknown"
	}
}

func parseSenders(s string) Senders {
	switch s {
	case "both":
		return SendersBoth
	case "initiator":
		return SendersInitiator
	case "responder":
		return SendersResponder
	case "none":
		return SendersNone
	default:
		return SendersUnknown
	}
}

// FileInfo is the file-transfer description carried by XEP-0234. Fields are
// kept as the strings received on the wire; Size is parsed to an unsigned
// integer only by callers that need it (the IBB transport, to compare
// against bytes received).
type FileInfo struct {
	Name      string
	MediaType string
	Date      string
	Size      string
	Hash      *crypto.HashOutput
}

// SizeUint64 parses Size as a base-10 unsigned integer.
func (fi FileInfo) SizeUint64() (uint64, error) {
	return strconv.ParseUint(fi.Size, 10, 64)
}

// DescriptionKind distinguishes the tagged variants of a content's
// description.
type DescriptionKind int

// Recognized description kinds.
const (
	DescriptionUnknown DescriptionKind = iota
	DescriptionFileTransfer
	DescriptionRTP
)

// Description is the tagged-variant payload of a content's <description>
// child. FileTransfer is populated only when Kind is DescriptionFileTransfer;
// RTP descriptions are recognized only so they can be rejected, and carry no
// payload of their own.
type Description struct {
	Kind         DescriptionKind
	FileTransfer *FileInfo
}

// TransportKind distinguishes the tagged variants of a content's transport.
type TransportKind int

// Recognized transport kinds.
const (
	TransportUnknown TransportKind = iota
	TransportIBB
	TransportSocks5
)

// Transport is the tagged-variant payload of a content's <transport> child.
// Candidates (used by SOCKS5) are not modeled since that transport is never
// negotiated by this package.
type Transport struct {
	Kind      TransportKind
	SID       string
	BlockSize uint16
}

// ContentState is the lifecycle state of a single negotiated content.
type ContentState int

// Recognized content states.
const (
	ContentPending ContentState = iota
	ContentTransferFinished
)

// Content is one negotiated media/payload leg of a Jingle session.
type Content struct {
	Name        string
	Creator     Creator
	Senders     Senders
	Description Description
	Transport   Transport
	State       ContentState
}

// SessionState is the lifecycle state of a JingleSession.
type SessionState int

// Recognized session states.
const (
	StateInitiated SessionState = iota
	StateAccepted
	StateTerminated
)

// session is the Manager's internal representation of a JingleSession. It is
// unexported: callers observe sessions only through Manager's methods, never
// through a stored reference, so the Manager is free to remove entries at
// will without leaving a caller holding a dangling pointer.
type session struct {
	sid       string
	initiator jid.JID
	state     SessionState
	contents  map[string]*Content
}

// transportIndexEntry is the secondary index Manager keeps from transport sid
// back to the owning session and content, so IBB lookups don't have to scan
// every session's content table.
type transportIndexEntry struct {
	sessionID   string
	contentName string
}
