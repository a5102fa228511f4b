// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package ibb

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/internal/ns"
)

type wireOpen struct {
	XMLName   xml.Name `xml:"http://jabber.org/protocol/ibb open"`
	SID       string   `xml:"sid,attr"`
	BlockSize string   `xml:"block-size,attr"`
}

type wireData struct {
	XMLName xml.Name `xml:"http://jabber.org/protocol/ibb data"`
	SID     string   `xml:"sid,attr"`
	Seq     string   `xml:"seq,attr"`
	Payload string   `xml:",chardata"`
}

type wireClose struct {
	XMLName xml.Name `xml:"http://jabber.org/protocol/ibb close"`
	SID     string   `xml:"sid,attr"`
}

func decodeOpen(start xml.StartElement, r xml.TokenReader) (wireOpen, error) {
	var w wireOpen
	full := xmlstream.Wrap(xmlstream.Inner(r), start)
	err := xml.NewTokenDecoder(full).Decode(&w)
	return w, err
}

func decodeData(start xml.StartElement, r xml.TokenReader) (wireData, error) {
	var w wireData
	full := xmlstream.Wrap(xmlstream.Inner(r), start)
	err := xml.NewTokenDecoder(full).Decode(&w)
	return w, err
}

func decodeClose(start xml.StartElement, r xml.TokenReader) (wireClose, error) {
	var w wireClose
	full := xmlstream.Wrap(xmlstream.Inner(r), start)
	err := xml.NewTokenDecoder(full).Decode(&w)
	return w, err
}

// closeTokenReader builds the <close/> child of an outbound IBB close,
// whether it answers a peer's own close or is used internally as an abort.
func closeTokenReader(sid string) xml.TokenReader {
	return xmlstream.Wrap(nil, xml.StartElement{
		Name: xml.Name{Space: ns.IBB, Local: "close"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "sid"}, Value: sid}},
	})
}
