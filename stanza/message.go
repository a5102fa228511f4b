// Copyright 2016 Sam Whited.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"

	"mellium.im/xmpp/jid"
)

// Message is an XMPP stanza used for fire-and-forget style communication,
// such as chat messages or, as used by this core, XEP-0353 call proposals.
type Message struct {
	XMLName xml.Name    `xml:"message"`
	ID      string      `xml:"id,attr"`
	To      jid.JID     `xml:"to,attr"`
	From    jid.JID     `xml:"from,attr"`
	Type    MessageType `xml:"type,attr,omitempty"`
}

// MessageType is the type of a message stanza.
type MessageType string

const (
	// NormalMessage is a standalone message sent outside the context of a
	// one-to-one conversation or chat session.
	NormalMessage MessageType = "normal"

	// ChatMessage is sent in the context of a one-to-one chat session.
	ChatMessage MessageType = "chat"

	// ErrorMessage indicates that an error occurred while processing or
	// delivering a previously sent message.
	ErrorMessage MessageType = "error"
)

// NewMessage populates a Message from a start element.
func NewMessage(start xml.StartElement) (Message, error) {
	msg := Message{}
	for _, a := range start.Attr {
		if a.Name.Space != "" {
			continue
		}
		var err error
		switch a.Name.Local {
		case "id":
			msg.ID = a.Value
		case "to":
			msg.To, err = jid.Parse(a.Value)
		case "from":
			msg.From, err = jid.Parse(a.Value)
		case "type":
			msg.Type = MessageType(a.Value)
		}
		if err != nil {
			return msg, err
		}
	}
	return msg, nil
}
