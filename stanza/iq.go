// Copyright 2016 Sam Whited.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package stanza

import (
	"encoding/xml"
	"errors"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/internal/attr"
	"mellium.im/xmpp/jid"
)

// ErrEmptyIQType is returned when attempting to marshal an IQ with no type
// set.
var ErrEmptyIQType = errors.New("stanza: empty IQ type")

// IQ ("Information Query") is used as a general request-response mechanism.
// IQs are one-to-one, provide get and set semantics, and always require a
// response in the form of a result or an error.
type IQ struct {
	XMLName xml.Name `xml:"iq"`
	ID      string   `xml:"id,attr"`
	To      jid.JID  `xml:"to,attr"`
	From    jid.JID  `xml:"from,attr"`
	Type    IQType   `xml:"type,attr"`
}

// IQType is the type of an IQ stanza.
type IQType string

const (
	// GetIQ is used to query another entity for information.
	GetIQ IQType = "get"

	// SetIQ is used to provide data to another entity, set new values, and
	// replace existing values.
	SetIQ IQType = "set"

	// ResultIQ is sent in response to a successful get or set IQ.
	ResultIQ IQType = "result"

	// ErrorIQ is sent to report that an error occurred during the delivery or
	// processing of a get or set IQ.
	ErrorIQ IQType = "error"
)

// MarshalXMLAttr implements xml.MarshalerAttr.
// It returns ErrEmptyIQType when trying to marshal an IQ with an empty type
// attribute.
func (t IQType) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if t == "" {
		return xml.Attr{}, ErrEmptyIQType
	}
	return xml.Attr{Name: name, Value: string(t)}, nil
}

// NewIQ populates an IQ from a start element, assigning a random ID if none
// is present.
func NewIQ(start xml.StartElement) (IQ, error) {
	iq := IQ{}
	for _, a := range start.Attr {
		if a.Name.Space != "" && a.Name.Space != "xml" {
			continue
		}
		var err error
		switch a.Name.Local {
		case "id":
			iq.ID = a.Value
		case "to":
			iq.To, err = jid.Parse(a.Value)
		case "from":
			iq.From, err = jid.Parse(a.Value)
		case "type":
			iq.Type = IQType(a.Value)
		}
		if err != nil {
			return iq, err
		}
	}
	if iq.ID == "" {
		iq.ID = attr.RandomID()
	}
	return iq, nil
}

// Wrap wraps the payload in an IQ stanza built from iq's fields.
func (iq IQ) Wrap(payload xml.TokenReader) xml.TokenReader {
	start := xml.StartElement{
		Name: xml.Name{Local: "iq"},
		Attr: make([]xml.Attr, 0, 4),
	}
	if iq.Type != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: string(iq.Type)})
	}
	if !iq.To.IsZero() {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "to"}, Value: iq.To.String()})
	}
	if !iq.From.IsZero() {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "from"}, Value: iq.From.String()})
	}
	if iq.ID != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "id"}, Value: iq.ID})
	}
	return xmlstream.Wrap(payload, start)
}

// Result returns a token reader for the result IQ that answers iq, wrapping
// the given payload and swapping To/From.
func (iq IQ) Result(payload xml.TokenReader) xml.TokenReader {
	resp := iq
	resp.Type = ResultIQ
	resp.To, resp.From = iq.From, iq.To
	return resp.Wrap(payload)
}

// Error returns a token reader for the error IQ that answers iq with the
// given stanza error.
func (iq IQ) Error(e Error) xml.TokenReader {
	resp := iq
	resp.Type = ErrorIQ
	resp.To, resp.From = iq.From, iq.To
	return resp.Wrap(e.TokenReader())
}
