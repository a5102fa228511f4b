// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"context"
	"encoding/xml"
	"log"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/internal/ns"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

// Manager owns every active Jingle session. It is not safe for concurrent
// use: it is designed to be driven exclusively from the single dispatch
// goroutine that feeds it stanzas, per the cooperative concurrency model this
// package implements (see package doc and the mux package it registers
// with).
type Manager struct {
	sender     Sender
	notifier   Notifier
	log        Logger
	autoAccept bool

	sessions  map[string]*session
	transport map[string]transportIndexEntry
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for debug/warning messages. The default is
// log.Default().
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.log = Logger{l} }
}

// WithAutoAccept controls whether an incoming session-initiate is
// auto-accepted (the default, matching this package's current receiver
// policy) or held in StateInitiated until Accept or Reject is called.
func WithAutoAccept(accept bool) Option {
	return func(m *Manager) { m.autoAccept = accept }
}

// NewManager returns a Manager that sends through sender and surfaces
// notifications through notifier.
func NewManager(sender Sender, notifier Notifier, opts ...Option) *Manager {
	m := &Manager{
		sender:     sender,
		notifier:   notifier,
		autoAccept: true,
		sessions:   make(map[string]*session),
		transport:  make(map[string]transportIndexEntry),
	}
	for _, o := range opts {
		o(m)
	}
	if m.log.Logger == nil {
		m.log = Logger{log.Default()}
	}
	return m
}

func (m *Manager) send(payload xml.TokenReader) {
	if err := m.sender.Send(context.Background(), payload); err != nil {
		m.log.Warnf("jingle: send failed: %v", err)
	}
}

// HandleIQ implements mux.IQHandler for IQs carrying a <jingle/> child in the
// urn:xmpp:jingle:1 namespace.
func (m *Manager) HandleIQ(iq stanza.IQ, t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	if start == nil || start.Name.Space != ns.Jingle || start.Name.Local != "jingle" {
		return nil
	}
	wj, err := decodeJingle(*start, t)
	if err != nil {
		m.log.Debugf("jingle: malformed jingle payload from %s: %v", iq.From, err)
		return nil
	}

	switch wj.Action {
	case "session-initiate":
		m.handleSessionInitiate(iq, wj)
	case "session-terminate":
		m.handleSessionTerminate(iq, wj)
	case "session-info", "session-accept", "transport-accept", "transport-info",
		"transport-reject", "transport-replace":
		// Recognized as belonging to the protocol but unimplemented; ack so
		// the action is not surfaced to the peer as unknown.
		m.send(iq.Result(nil))
	default:
		m.log.Warnf("jingle: unrecognized action %q from %s", wj.Action, iq.From)
	}
	return nil
}

func (m *Manager) handleSessionInitiate(iq stanza.IQ, wj wireJingle) {
	if wj.SID == "" || wj.Initiator == "" {
		m.log.Debugf("jingle: session-initiate missing sid or initiator from %s", iq.From)
		return
	}
	initiator, err := jid.Parse(wj.Initiator)
	if err != nil || !initiator.Equal(iq.From) {
		m.log.Debugf("jingle: session-initiate initiator attr %q does not match from %s", wj.Initiator, iq.From)
		return
	}

	m.send(iq.Result(nil))

	s := &session{
		sid:       wj.SID,
		initiator: initiator,
		state:     StateInitiated,
		contents:  make(map[string]*Content),
	}
	m.sessions[s.sid] = s

	for _, wc := range wj.Contents {
		content, ok := acceptContent(wc)
		if !ok {
			continue
		}
		s.contents[content.Name] = content
		m.transport[content.Transport.SID] = transportIndexEntry{sessionID: s.sid, contentName: content.Name}
	}

	if len(wj.Contents) == 0 {
		m.terminateSession(s, "cancel")
		return
	}

	for _, c := range s.contents {
		if fi := c.Description.FileTransfer; fi != nil {
			size, _ := fi.SizeUint64()
			m.notifier.Offer(s.initiator, c.Transport.SID, fi.Name, size)
		}
		break
	}

	if m.autoAccept {
		m.Accept(s.sid)
	}
}

func (m *Manager) handleSessionTerminate(iq stanza.IQ, wj wireJingle) {
	s, ok := m.sessions[wj.SID]
	if !ok {
		return
	}
	m.send(iq.Result(nil))
	m.notifier.Info("peer terminated jingle session %s", s.sid)
	m.removeSession(s)
}

// Accept transitions sid from StateInitiated to StateAccepted, emitting a
// session-accept for every currently negotiated content. It is the gated
// counterpart to the current auto-accept policy (see design notes); calling
// it on a session that is not in StateInitiated is a no-op.
func (m *Manager) Accept(sid string) {
	s, ok := m.sessions[sid]
	if !ok || s.state != StateInitiated {
		return
	}

	var parts []xml.TokenReader
	for _, c := range s.contents {
		parts = append(parts, contentTokenReader(c))
	}
	jingleStart := xml.StartElement{
		Name: xml.Name{Space: ns.Jingle, Local: "jingle"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "action"}, Value: "session-accept"},
			{Name: xml.Name{Local: "responder"}, Value: m.sender.LocalJID().Bare().String()},
			{Name: xml.Name{Local: "sid"}, Value: s.sid},
		},
	}
	payload := xmlstream.Wrap(xmlstream.MultiReader(parts...), jingleStart)
	iq := stanza.IQ{ID: m.sender.NextID(), To: s.initiator, Type: stanza.SetIQ}
	m.send(iq.Wrap(payload))
	s.state = StateAccepted
}

// Reject terminates sid with reason "decline" without ever emitting a
// session-accept. Calling it on a session that is not in StateInitiated is a
// no-op.
func (m *Manager) Reject(sid string) {
	s, ok := m.sessions[sid]
	if !ok || s.state != StateInitiated {
		return
	}
	m.terminateSession(s, "decline")
}

// terminateSession emits a session-terminate with the given reason and
// removes sid from the table.
func (m *Manager) terminateSession(s *session, reason string) {
	iq := stanza.IQ{ID: m.sender.NextID(), To: s.initiator, Type: stanza.SetIQ}
	payload := xmlstream.Wrap(
		reasonTokenReader(reason),
		xml.StartElement{
			Name: xml.Name{Space: ns.Jingle, Local: "jingle"},
			Attr: []xml.Attr{
				{Name: xml.Name{Local: "action"}, Value: "session-terminate"},
				{Name: xml.Name{Local: "sid"}, Value: s.sid},
			},
		},
	)
	m.send(iq.Wrap(payload))
	m.removeSession(s)
}

func (m *Manager) removeSession(s *session) {
	for name := range s.contents {
		c := s.contents[name]
		delete(m.transport, c.Transport.SID)
	}
	s.state = StateTerminated
	delete(m.sessions, s.sid)
}

// LookupContentByTransportSID returns the content negotiated for the given
// IBB transport sid, for use by the IBB transport's validation of an
// incoming open request.
func (m *Manager) LookupContentByTransportSID(sid string) (*Content, bool) {
	entry, ok := m.transport[sid]
	if !ok {
		return nil, false
	}
	s, ok := m.sessions[entry.sessionID]
	if !ok {
		return nil, false
	}
	c, ok := s.contents[entry.contentName]
	return c, ok
}

// SetContentStateByTransportSID updates the content identified by sid to
// state. If every content of the owning session is now
// ContentTransferFinished, a session-terminate with reason "success" is
// emitted and the session is removed.
func (m *Manager) SetContentStateByTransportSID(sid string, state ContentState) {
	entry, ok := m.transport[sid]
	if !ok {
		return
	}
	s, ok := m.sessions[entry.sessionID]
	if !ok {
		return
	}
	c, ok := s.contents[entry.contentName]
	if !ok {
		return
	}
	c.State = state

	for _, other := range s.contents {
		if other.State != ContentTransferFinished {
			return
		}
	}
	m.terminateSession(s, "success")
}

// Shutdown destroys every active session, releasing all owned resources. It
// does not notify peers; callers that need a clean remote teardown should
// terminate each session individually first.
func (m *Manager) Shutdown() {
	m.sessions = make(map[string]*session)
	m.transport = make(map[string]transportIndexEntry)
}
