// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package mux

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/stanza"
)

// MessageHandler responds to a message stanza.
type MessageHandler interface {
	HandleMessage(msg stanza.Message, t xmlstream.TokenReadEncoder, start *xml.StartElement) error
}

// The MessageHandlerFunc type is an adapter to allow the use of ordinary
// functions as message handlers.
type MessageHandlerFunc func(msg stanza.Message, t xmlstream.TokenReadEncoder, start *xml.StartElement) error

// HandleMessage calls f(msg, t, start).
func (f MessageHandlerFunc) HandleMessage(msg stanza.Message, t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	return f(msg, t, start)
}

// MessageMux dispatches message stanzas by the XML name of their first child
// element, the way XEP-0353 call proposals (propose, retract, accept, reject,
// proceed) are distinguished.
//
// Matching falls back from a full XML name, to a wildcard namespace, to a
// wildcard localname, the same precedence rules as IQMux.
type MessageMux struct {
	patterns map[xml.Name]MessageHandler
}

// NewMessageMux allocates and returns a new MessageMux.
func NewMessageMux(opt ...MessageOption) *MessageMux {
	m := &MessageMux{}
	for _, o := range opt {
		o(m)
	}
	return m
}

// Handler returns the handler to use for a message payload with the given
// name. If no handler is registered, a no-op handler is returned.
func (m *MessageMux) Handler(name xml.Name) (h MessageHandler, ok bool) {
	h = m.patterns[name]
	if h != nil {
		return h, true
	}

	n := name
	n.Space = ""
	h = m.patterns[n]
	if h != nil {
		return h, true
	}

	n = name
	n.Local = ""
	h = m.patterns[n]
	if h != nil {
		return h, true
	}

	h = m.patterns[xml.Name{}]
	if h != nil {
		return h, true
	}
	return MessageHandlerFunc(func(stanza.Message, xmlstream.TokenReadEncoder, *xml.StartElement) error {
		return nil
	}), false
}

// HandleXMPP dispatches the message to the handler whose pattern most closely
// matches the first child element of the message.
func (m *MessageMux) HandleXMPP(t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	msg, err := stanza.NewMessage(*start)
	if err != nil {
		return err
	}

	tok, err := t.Token()
	if err != nil {
		return err
	}
	payloadStart, _ := tok.(xml.StartElement)
	h, _ := m.Handler(payloadStart.Name)
	return h.HandleMessage(msg, t, &payloadStart)
}

// MessageOption configures a MessageMux.
type MessageOption func(m *MessageMux)

// HandleMessage returns an option that matches a message payload by XML name.
func HandleMessage(n xml.Name, h MessageHandler) MessageOption {
	return func(m *MessageMux) {
		if h == nil {
			panic("mux: nil message handler")
		}
		if _, ok := m.patterns[n]; ok {
			panic("mux: multiple registrations for {" + n.Space + "}" + n.Local)
		}
		if m.patterns == nil {
			m.patterns = make(map[xml.Name]MessageHandler)
		}
		m.patterns[n] = h
	}
}

// HandleMessageFunc is a shortcut for HandleMessage.
func HandleMessageFunc(n xml.Name, h MessageHandlerFunc) MessageOption {
	return HandleMessage(n, h)
}
