// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle_test

import (
	"encoding/xml"
	"strings"
	"testing"

	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/jingle"
	"mellium.im/xmpp/stanza"
)

// messageFixtureImpl parses a full <message> stanza and returns the decoded
// Message plus a token reader positioned to read the propose/retract/
// accept/reject/proceed payload's children, the way mux.MessageMux hands
// both to a registered MessageHandler.
func messageFixtureImpl(t *testing.T, raw string) (stanza.Message, decOnly, *xml.StartElement) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		t.Fatalf("reading message start: %v", err)
	}
	msgStart := tok.(xml.StartElement)
	msg, err := stanza.NewMessage(msgStart)
	if err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	tok, err = dec.Token()
	if err != nil {
		t.Fatalf("reading payload start: %v", err)
	}
	payloadStart := tok.(xml.StartElement)
	return msg, decOnly{dec}, &payloadStart
}

func TestHandleMessagePropose(t *testing.T) {
	const raw = `<message from="romeo@example.com/orchard" to="juliet@example.com/balcony" id="p1">` +
		`<propose xmlns="urn:xmpp:jingle-message:0" id="sess1">` +
		`<description xmlns="urn:xmpp:jingle:apps:rtp:1" media="audio"/>` +
		`</propose></message>`

	msg, dec, start := messageFixtureImpl(t, raw)
	sender := &recorder{local: jid.MustParse("juliet@example.com/balcony")}
	notif := &notifier{}
	m := jingle.NewManager(sender, notif)

	if err := m.HandleMessage(msg, dec, start); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(notif.rings) != 1 {
		t.Fatalf("want 1 ring notification, got %d", len(notif.rings))
	}
	if !strings.Contains(notif.rings[0], "romeo@example.com/orchard") {
		t.Errorf("ring notification missing peer: %v", notif.rings)
	}
	if len(sender.sent) != 0 {
		t.Errorf("HandleMessage should never emit outbound traffic, got %v", sender.sent)
	}
}

func TestHandleMessageProceedIsParsedButIgnored(t *testing.T) {
	const raw = `<message from="romeo@example.com/orchard" to="juliet@example.com/balcony" id="p2">` +
		`<proceed xmlns="urn:xmpp:jingle-message:0" id="sess1"/></message>`

	msg, dec, start := messageFixtureImpl(t, raw)
	sender := &recorder{local: jid.MustParse("juliet@example.com/balcony")}
	notif := &notifier{}
	m := jingle.NewManager(sender, notif)

	if err := m.HandleMessage(msg, dec, start); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(notif.rings) != 0 || len(sender.sent) != 0 {
		t.Errorf("proceed should have no user-visible effect, got rings=%v sent=%v", notif.rings, sender.sent)
	}
}
