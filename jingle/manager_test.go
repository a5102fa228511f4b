// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle_test

import (
	"context"
	"encoding/xml"
	"strconv"
	"strings"
	"testing"

	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/jingle"
	"mellium.im/xmpp/stanza"
)

// recorder is a jingle.Sender that captures every stanza sent through it as
// raw XML, in send order.
type recorder struct {
	local jid.JID
	nextN int
	sent  []string
}

func (r *recorder) Send(_ context.Context, payload xml.TokenReader) error {
	buf := &strings.Builder{}
	enc := xml.NewEncoder(buf)
	if _, err := encodeAll(enc, payload); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	r.sent = append(r.sent, buf.String())
	return nil
}

func (r *recorder) NextID() string {
	r.nextN++
	return "id-" + strconv.Itoa(r.nextN)
}

func (r *recorder) LocalJID() jid.JID { return r.local }

func encodeAll(enc *xml.Encoder, r xml.TokenReader) (int, error) {
	n := 0
	for {
		tok, err := r.Token()
		if tok != nil {
			if encErr := enc.EncodeToken(tok); encErr != nil {
				return n, encErr
			}
			n++
		}
		if err != nil {
			return n, nil
		}
	}
}

// notifier records every notification it is given.
type notifier struct {
	offers []string
	rings  []string
	infos  []string
}

func (n *notifier) Offer(peer jid.JID, transportSID, name string, size uint64) {
	n.offers = append(n.offers, peer.String()+"/"+transportSID+"/"+name)
}
func (n *notifier) Ring(peer jid.JID)                      { n.rings = append(n.rings, peer.String()) }
func (n *notifier) Info(format string, args ...interface{}) { n.infos = append(n.infos, format) }
func (n *notifier) Error(format string, args ...interface{}) {}

// decOnly adapts an *xml.Decoder to xmlstream.TokenReadEncoder for tests
// that only ever read from the handed-in token stream, the way an IQHandler
// reads a stanza's children but never writes back through it (outbound
// stanzas go through the Sender instead).
type decOnly struct {
	*xml.Decoder
}

func (decOnly) EncodeToken(xml.Token) error                     { return nil }
func (decOnly) Encode(interface{}) error                        { return nil }
func (decOnly) EncodeElement(interface{}, xml.StartElement) error { return nil }

// jingleIQFixture parses a full <iq> stanza and returns the decoded IQ plus
// a token reader positioned to read the jingle payload's children, the way
// mux.IQMux hands both to a registered IQHandler.
func jingleIQFixture(t *testing.T, raw string) (stanza.IQ, decOnly, *xml.StartElement) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		t.Fatalf("reading iq start: %v", err)
	}
	iqStart := tok.(xml.StartElement)
	iq, err := stanza.NewIQ(iqStart)
	if err != nil {
		t.Fatalf("decoding iq: %v", err)
	}
	tok, err = dec.Token()
	if err != nil {
		t.Fatalf("reading payload start: %v", err)
	}
	payloadStart := tok.(xml.StartElement)
	return iq, decOnly{dec}, &payloadStart
}

func TestSessionInitiateHappyPath(t *testing.T) {
	const initiate = `<iq from="romeo@example.com/orchard" to="juliet@example.com/balcony" id="init1" type="set">` +
		`<jingle xmlns="urn:xmpp:jingle:1" action="session-initiate" initiator="romeo@example.com/orchard" sid="S1">` +
		`<content name="c0" creator="initiator" senders="initiator">` +
		`<description xmlns="urn:xmpp:jingle:apps:file-transfer:5">` +
		`<file xmlns="urn:xmpp:file:metadata:0"><name>x.txt</name><size>12</size></file>` +
		`</description>` +
		`<transport xmlns="urn:xmpp:jingle:transports:ibb:1" sid="T1" block-size="4096"/>` +
		`</content>` +
		`</jingle></iq>`

	iq, dec, start := jingleIQFixture(t, initiate)
	sender := &recorder{local: jid.MustParse("juliet@example.com/balcony")}
	notif := &notifier{}
	m := jingle.NewManager(sender, notif)

	if err := m.HandleIQ(iq, dec, start); err != nil {
		t.Fatalf("HandleIQ: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("want 2 outbound stanzas (ack, session-accept), got %d: %v", len(sender.sent), sender.sent)
	}
	if !strings.Contains(sender.sent[0], `type="result"`) {
		t.Errorf("first stanza should be the ack, got %s", sender.sent[0])
	}
	accept := sender.sent[1]
	if !strings.Contains(accept, `action="session-accept"`) {
		t.Errorf("second stanza should be session-accept, got %s", accept)
	}
	if !strings.Contains(accept, `sid="S1"`) {
		t.Errorf("session-accept missing sid=S1: %s", accept)
	}
	if !strings.Contains(accept, `name="c0"`) {
		t.Errorf("session-accept missing content name=c0: %s", accept)
	}
	if !strings.Contains(accept, `creator="initiator"`) {
		t.Errorf("session-accept should echo creator=initiator: %s", accept)
	}

	if len(notif.offers) != 1 {
		t.Fatalf("want 1 offer notification, got %d", len(notif.offers))
	}

	c, ok := m.LookupContentByTransportSID("T1")
	if !ok {
		t.Fatal("expected content to be registered under transport sid T1")
	}
	if c.Name != "c0" {
		t.Errorf("wrong content name: got %q", c.Name)
	}
}

func TestSessionInitiateInitiatorMismatchIsSilentlyDiscarded(t *testing.T) {
	const initiate = `<iq from="mallory@evil.example/x" to="juliet@example.com/balcony" id="init1" type="set">` +
		`<jingle xmlns="urn:xmpp:jingle:1" action="session-initiate" initiator="romeo@example.com/orchard" sid="S1">` +
		`</jingle></iq>`

	iq, dec, start := jingleIQFixture(t, initiate)
	sender := &recorder{local: jid.MustParse("juliet@example.com/balcony")}
	m := jingle.NewManager(sender, &notifier{})

	if err := m.HandleIQ(iq, dec, start); err != nil {
		t.Fatalf("HandleIQ: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no outbound traffic for a mismatched initiator, got %v", sender.sent)
	}
	if _, ok := m.LookupContentByTransportSID("T1"); ok {
		t.Fatal("no session should have been created")
	}
}

func TestSessionInitiateWithNoContentsTerminates(t *testing.T) {
	const initiate = `<iq from="romeo@example.com/orchard" to="juliet@example.com/balcony" id="init1" type="set">` +
		`<jingle xmlns="urn:xmpp:jingle:1" action="session-initiate" initiator="romeo@example.com/orchard" sid="S1">` +
		`</jingle></iq>`

	iq, dec, start := jingleIQFixture(t, initiate)
	sender := &recorder{local: jid.MustParse("juliet@example.com/balcony")}
	m := jingle.NewManager(sender, &notifier{})

	if err := m.HandleIQ(iq, dec, start); err != nil {
		t.Fatalf("HandleIQ: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("want ack + session-terminate, got %d: %v", len(sender.sent), sender.sent)
	}
	if !strings.Contains(sender.sent[1], `action="session-terminate"`) {
		t.Errorf("expected a session-terminate, got %s", sender.sent[1])
	}
	if _, ok := m.LookupContentByTransportSID("T1"); ok {
		t.Fatal("session with no contents should not persist")
	}
}

func TestSetContentStateByTransportSIDTerminatesWhenAllContentsFinish(t *testing.T) {
	const initiate = `<iq from="romeo@example.com/orchard" to="juliet@example.com/balcony" id="init1" type="set">` +
		`<jingle xmlns="urn:xmpp:jingle:1" action="session-initiate" initiator="romeo@example.com/orchard" sid="S1">` +
		`<content name="c0" creator="initiator" senders="initiator">` +
		`<description xmlns="urn:xmpp:jingle:apps:file-transfer:5">` +
		`<file xmlns="urn:xmpp:file:metadata:0"><name>x.txt</name><size>12</size></file>` +
		`</description>` +
		`<transport xmlns="urn:xmpp:jingle:transports:ibb:1" sid="T1" block-size="4096"/>` +
		`</content>` +
		`</jingle></iq>`

	iq, dec, start := jingleIQFixture(t, initiate)
	sender := &recorder{local: jid.MustParse("juliet@example.com/balcony")}
	m := jingle.NewManager(sender, &notifier{})
	if err := m.HandleIQ(iq, dec, start); err != nil {
		t.Fatalf("HandleIQ: %v", err)
	}
	sender.sent = nil

	m.SetContentStateByTransportSID("T1", jingle.ContentTransferFinished)

	if len(sender.sent) != 1 {
		t.Fatalf("want a single session-terminate, got %d: %v", len(sender.sent), sender.sent)
	}
	if !strings.Contains(sender.sent[0], `action="session-terminate"`) {
		t.Errorf("expected session-terminate, got %s", sender.sent[0])
	}
	if !strings.Contains(sender.sent[0], `success`) {
		t.Errorf("expected reason success, got %s", sender.sent[0])
	}
	if _, ok := m.LookupContentByTransportSID("T1"); ok {
		t.Fatal("session should be removed once every content finishes")
	}
}
