// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/internal/ns"
	"mellium.im/xmpp/stanza"
)

// wirePropose is the decode target for a Jingle Message Initiation (XEP-0353)
// propose element. Only the description's namespace is consulted: a
// media-description namespace of ns.JingleRTP means an incoming call, the
// only case this core surfaces to the user (see Manager.HandleMessage).
type wirePropose struct {
	XMLName      xml.Name            `xml:"urn:xmpp:jingle-message:0 propose"`
	ID           string              `xml:"id,attr"`
	Descriptions []wireProposeDescNS `xml:"description"`
}

type wireProposeDescNS struct {
	XMLName xml.Name
}

// wireMessageInitACK is shared by retract/accept/reject/proceed:
// all four carry nothing but an id attribute.
type wireMessageInitACK struct {
	ID string `xml:"id,attr"`
}

// HandleMessage implements mux.MessageHandler for the Jingle Message
// Initiation namespace. Per the distilled spec, only propose produces a
// user-visible effect (a ring notification); retract/accept/reject/proceed
// are decoded so dispatch never falls through to an unrecognised message,
// but this core never itself originates a file-transfer proposal over
// XEP-0353 and so never needs to act on them.
func (m *Manager) HandleMessage(msg stanza.Message, t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	if start == nil || start.Name.Space != ns.JingleMessage {
		return nil
	}
	switch start.Name.Local {
	case "propose":
		var wp wirePropose
		full := xmlstream.Wrap(xmlstream.Inner(t), *start)
		if err := xml.NewTokenDecoder(full).Decode(&wp); err != nil {
			m.log.Debugf("jingle: malformed message propose from %s: %v", msg.From, err)
			return nil
		}
		for _, d := range wp.Descriptions {
			if d.XMLName.Space == ns.JingleRTP {
				m.notifier.Ring(msg.From)
				break
			}
		}
	case "retract", "accept", "reject", "proceed":
		var ack wireMessageInitACK
		full := xmlstream.Wrap(xmlstream.Inner(t), *start)
		if err := xml.NewTokenDecoder(full).Decode(&ack); err != nil {
			m.log.Debugf("jingle: malformed message %s from %s: %v", start.Name.Local, msg.From, err)
		}
	default:
		m.log.Debugf("jingle: unrecognized jingle-message element %q from %s", start.Name.Local, msg.From)
	}
	return nil
}
