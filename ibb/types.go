// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package ibb

import (
	"context"
	"encoding/xml"
	"hash"
	"log"

	"mellium.im/xmpp/crypto"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/jingle"
)

// Sender is the collaborator that lets Transport put stanzas on the wire and
// mint identifiers for them. The same concrete type that satisfies
// jingle.Sender satisfies this interface.
type Sender interface {
	Send(ctx context.Context, payload xml.TokenReader) error
	NextID() string
}

// SessionLookup is the read-through view of jingle.Manager that Transport
// needs: validating an open against a negotiated content, and reporting back
// when a content's bytes have fully arrived. jingle.Manager satisfies this
// interface.
type SessionLookup interface {
	LookupContentByTransportSID(sid string) (*jingle.Content, bool)
	SetContentStateByTransportSID(sid string, state jingle.ContentState)
}

// Logger is the logging seam used by this package; like jingle.Logger, it
// wraps *log.Logger rather than aliasing it.
type Logger struct {
	*log.Logger
}

// Debugf logs a parse/validation-level message: an offending frame or
// request was discarded and, unless the protocol calls for one, nothing is
// reported to the peer.
func (l Logger) Debugf(format string, v ...interface{}) {
	l.Logger.Printf("DEBUG "+format, v...)
}

// Warnf logs a local failure, such as a filesystem error, that tears down a
// byte-stream session.
func (l Logger) Warnf(format string, v ...interface{}) {
	l.Logger.Printf("WARN "+format, v...)
}

// ibbSession is the receiver-side state of one active in-band bytestream.
type ibbSession struct {
	sid      string
	peer     jid.JID
	name     string // peer-supplied file name, used to open the file lazily
	size     uint64 // expected total size, from the negotiated FileInfo
	received uint64
	// nextSeq is the wire seq value the next frame must carry, tracked wide
	// enough to never wrap back into the uint16 wire range: once a frame
	// with seq==65535 is accepted, nextSeq becomes 65536 and can never
	// again equal an incoming (0-65535) seq, so the stream ends rather than
	// silently accepting a rolled-over seq==0 as the next frame.
	nextSeq uint32
	haveSeq bool
	file    WriteCloser // nil until the first (seq==0) frame is accepted

	// wantHash and hasher implement XEP-0300 digest verification: hasher is
	// nil whenever the negotiated FileInfo carries no hash, or carries one
	// whose implementation was never linked in (crypto.Hash.Available()
	// false), in which case no digest is computed.
	wantHash *crypto.HashOutput
	hasher   hash.Hash
}
