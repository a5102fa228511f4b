// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package ibb

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"hash"
	"log"
	"strconv"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/crypto"
	"mellium.im/xmpp/internal/ns"
	"mellium.im/xmpp/jingle"
	"mellium.im/xmpp/stanza"
)

// Transport owns every active in-band bytestream session. It is not safe
// for concurrent use; see the package doc.
type Transport struct {
	sender   Sender
	manager  SessionLookup
	store    FileStore
	log      Logger
	sessions map[string]*ibbSession
}

// NewTransport returns a Transport that receives files into store, consults
// manager to validate opens and report finished transfers, and sends
// through sender.
func NewTransport(sender Sender, manager SessionLookup, store FileStore, logger *log.Logger) *Transport {
	if logger == nil {
		logger = log.Default()
	}
	return &Transport{
		sender:   sender,
		manager:  manager,
		store:    store,
		log:      Logger{logger},
		sessions: make(map[string]*ibbSession),
	}
}

func (tr *Transport) send(payload xml.TokenReader) {
	if err := tr.sender.Send(context.Background(), payload); err != nil {
		tr.log.Warnf("ibb: send failed: %v", err)
	}
}

func (tr *Transport) sendError(iq stanza.IQ, typ stanza.ErrorType, cond stanza.Condition) {
	tr.send(iq.Error(stanza.Error{Type: typ, Condition: cond}))
}

// HandleIQ implements mux.IQHandler for IQs carrying an open, data, or close
// child in the XEP-0047 namespace.
func (tr *Transport) HandleIQ(iq stanza.IQ, t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	if start == nil || start.Name.Space != ns.IBB {
		return nil
	}
	switch start.Name.Local {
	case "open":
		tr.handleOpen(iq, t, start)
	case "data":
		tr.handleData(iq, t, start)
	case "close":
		tr.handleClose(iq, t, start)
	}
	return nil
}

func (tr *Transport) handleOpen(iq stanza.IQ, t xmlstream.TokenReadEncoder, start *xml.StartElement) {
	w, err := decodeOpen(*start, t)
	if err != nil || w.SID == "" || w.BlockSize == "" {
		tr.sendError(iq, stanza.Cancel, stanza.BadRequest)
		return
	}
	if _, exists := tr.sessions[w.SID]; exists {
		tr.sendError(iq, stanza.Cancel, stanza.NotAcceptable)
		return
	}

	content, ok := tr.manager.LookupContentByTransportSID(w.SID)
	if !ok || content.Transport.Kind != jingle.TransportIBB {
		tr.sendError(iq, stanza.Cancel, stanza.NotAcceptable)
		return
	}

	negotiated := strconv.FormatUint(uint64(content.Transport.BlockSize), 10)
	if w.BlockSize != negotiated {
		tr.sendError(iq, stanza.Modify, stanza.ResourceConstraint)
		return
	}

	fi := content.Description.FileTransfer
	var size uint64
	var name string
	var wantHash *crypto.HashOutput
	var hasher hash.Hash
	if fi != nil {
		size, _ = fi.SizeUint64()
		name = fi.Name
		if fi.Hash != nil && fi.Hash.Hash.Available() {
			wantHash = fi.Hash
			hasher = fi.Hash.Hash.New()
		}
	}

	tr.sessions[w.SID] = &ibbSession{
		sid:      w.SID,
		peer:     iq.From,
		name:     name,
		size:     size,
		wantHash: wantHash,
		hasher:   hasher,
	}
	tr.send(iq.Result(nil))
}

func (tr *Transport) handleData(iq stanza.IQ, t xmlstream.TokenReadEncoder, start *xml.StartElement) {
	w, err := decodeData(*start, t)
	if err != nil || w.SID == "" {
		tr.sendError(iq, stanza.Cancel, stanza.BadRequest)
		return
	}
	s, ok := tr.sessions[w.SID]
	if !ok {
		tr.sendError(iq, stanza.Cancel, stanza.ItemNotFound)
		return
	}

	// A decode failure (seq does not parse) drops the stanza silently,
	// per the distilled source's sequence-discipline rules; it is not an
	// out-of-order violation, so the session is left untouched.
	seq, err := strconv.ParseUint(w.Seq, 10, 16)
	if err != nil {
		return
	}
	expected := uint64(0)
	if s.haveSeq {
		expected = uint64(s.nextSeq)
	}
	// expected can legitimately exceed the uint16 wire range once seq==65535
	// has been accepted; seq (parsed with a 16-bit bit size) never can, so
	// the comparison below naturally rejects the rolled-over seq==0 that
	// would otherwise look like a valid next frame.
	if seq != expected {
		tr.log.Debugf("ibb: out-of-order frame for %q: got seq=%d, want %d", w.SID, seq, expected)
		tr.abort(s)
		return
	}

	payload, err := base64.StdEncoding.DecodeString(w.Payload)
	if err != nil {
		tr.sendError(iq, stanza.Cancel, stanza.BadRequest)
		tr.teardown(s)
		return
	}

	if s.file == nil {
		f, err := tr.store.Create(context.Background(), s.name)
		if err != nil {
			tr.log.Warnf("ibb: creating file for %q: %v", w.SID, err)
			tr.abort(s)
			return
		}
		s.file = f
	}

	if _, err := s.file.Write(payload); err != nil {
		tr.log.Warnf("ibb: writing frame for %q: %v", w.SID, err)
		tr.abort(s)
		return
	}
	if s.hasher != nil {
		s.hasher.Write(payload)
	}

	s.received += uint64(len(payload))
	s.haveSeq = true
	s.nextSeq = uint32(seq) + 1
	tr.send(iq.Result(nil))

	if s.received >= s.size {
		tr.finish(s)
	}
}

func (tr *Transport) handleClose(iq stanza.IQ, t xmlstream.TokenReadEncoder, start *xml.StartElement) {
	w, err := decodeClose(*start, t)
	if err != nil || w.SID == "" {
		tr.sendError(iq, stanza.Cancel, stanza.BadRequest)
		return
	}
	s, ok := tr.sessions[w.SID]
	if !ok {
		tr.sendError(iq, stanza.Cancel, stanza.ItemNotFound)
		return
	}
	tr.send(iq.Result(nil))
	tr.teardown(s)
	tr.manager.SetContentStateByTransportSID(s.sid, jingle.ContentTransferFinished)
}

// finish closes s's file, tells the peer the stream is done, tears s down,
// and promotes the owning Jingle content to transfer-finished.
func (tr *Transport) finish(s *ibbSession) {
	if s.hasher != nil {
		sum := s.hasher.Sum(nil)
		if !bytes.Equal(sum, s.wantHash.Out) {
			tr.log.Warnf("ibb: digest mismatch for %q: got %x, want %x", s.sid, sum, s.wantHash.Out)
		}
	}
	closeIQ := stanza.IQ{ID: tr.sender.NextID(), To: s.peer, Type: stanza.SetIQ}
	tr.send(closeIQ.Wrap(closeTokenReader(s.sid)))
	tr.teardown(s)
	tr.manager.SetContentStateByTransportSID(s.sid, jingle.ContentTransferFinished)
}

// abort sends an outbound close as a protocol-violation teardown, then
// releases s the same way a clean finish does.
func (tr *Transport) abort(s *ibbSession) {
	closeIQ := stanza.IQ{ID: tr.sender.NextID(), To: s.peer, Type: stanza.SetIQ}
	tr.send(closeIQ.Wrap(closeTokenReader(s.sid)))
	tr.teardown(s)
	tr.manager.SetContentStateByTransportSID(s.sid, jingle.ContentTransferFinished)
}

// teardown closes the file handle and removes s from the table. Every error
// branch in handleOpen/handleData/handleClose routes through here (directly
// or via abort/finish) so no half-torn-down session is ever left behind.
func (tr *Transport) teardown(s *ibbSession) {
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			tr.log.Warnf("ibb: closing file for %q: %v", s.sid, err)
		}
	}
	delete(tr.sessions, s.sid)
}

// Shutdown destroys every active IBB session, closing any open file handles.
func (tr *Transport) Shutdown() {
	for _, s := range tr.sessions {
		tr.teardown(s)
	}
}
