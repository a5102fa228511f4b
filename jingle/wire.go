// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"encoding/xml"
	"strconv"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/crypto"
	"mellium.im/xmpp/internal/ns"
)

// wireJingle is the decode target for an inbound <jingle/> payload. Fields
// that must carry a specific namespace to count (description, transport) are
// pointers so that a missing or wrong-namespace child reads back as nil,
// collapsing several of the distilled spec's per-attribute namespace checks
// into a single nil check with the same "skip this child" outcome.
type wireJingle struct {
	XMLName   xml.Name      `xml:"urn:xmpp:jingle:1 jingle"`
	Action    string        `xml:"action,attr"`
	SID       string        `xml:"sid,attr"`
	Initiator string        `xml:"initiator,attr"`
	Contents  []wireContent `xml:"content"`
}

type wireContent struct {
	Name        string           `xml:"name,attr"`
	Creator     string           `xml:"creator,attr"`
	Senders     string           `xml:"senders,attr"`
	Description *wireDescription `xml:"urn:xmpp:jingle:apps:file-transfer:5 description"`
	Transport   *wireTransport   `xml:"urn:xmpp:jingle:transports:ibb:1 transport"`
}

type wireDescription struct {
	File *wireFile `xml:"urn:xmpp:file:metadata:0 file"`
}

type wireFile struct {
	MediaType string             `xml:"media-type"`
	Name      string             `xml:"name"`
	Date      string             `xml:"date"`
	Size      string             `xml:"size"`
	Hash      *crypto.HashOutput `xml:"urn:xmpp:hashes:2 hash"`
}

type wireTransport struct {
	SID       string `xml:"sid,attr"`
	BlockSize string `xml:"block-size,attr"`
}

// decodeJingle decodes the full <jingle/> element (start plus its children
// read from r) into a wireJingle.
func decodeJingle(start xml.StartElement, r xml.TokenReader) (wireJingle, error) {
	var wj wireJingle
	full := xmlstream.Wrap(xmlstream.Inner(r), start)
	err := xml.NewTokenDecoder(full).Decode(&wj)
	return wj, err
}

// acceptContent validates a single wireContent against the session-initiate
// table (§4.1 of the specification this package implements) and returns the
// accepted Content, or ok=false if the content must be dropped.
func acceptContent(wc wireContent) (*Content, bool) {
	if wc.Name == "" {
		return nil, false
	}
	creator := parseCreator(wc.Creator)
	if creator == CreatorUnknown {
		return nil, false
	}
	if wc.Description == nil || wc.Description.File == nil {
		return nil, false
	}
	if wc.Transport == nil || wc.Transport.SID == "" {
		return nil, false
	}
	// Resolves the distilled spec's open question: an absent or unparsable
	// block-size is rejected here rather than silently defaulted to zero.
	blockSize, err := strconv.ParseUint(wc.Transport.BlockSize, 10, 16)
	if err != nil {
		return nil, false
	}

	return &Content{
		Name:    wc.Name,
		Creator: creator,
		Senders: parseSenders(wc.Senders),
		Description: Description{
			Kind: DescriptionFileTransfer,
			FileTransfer: &FileInfo{
				Name:      wc.Description.File.Name,
				MediaType: wc.Description.File.MediaType,
				Date:      wc.Description.File.Date,
				Size:      wc.Description.File.Size,
				Hash:      wc.Description.File.Hash,
			},
		},
		Transport: Transport{
			Kind:      TransportIBB,
			SID:       wc.Transport.SID,
			BlockSize: uint16(blockSize),
		},
		State: ContentPending,
	}, true
}

// contentTokenReader builds the <content/> element echoed back in a
// session-accept, per §4.1: creator=initiator, the received senders and
// name, a description re-emitting the file metadata, and a transport
// echoing the negotiated sid and block-size.
func contentTokenReader(c *Content) xml.TokenReader {
	var fileChildren []xml.TokenReader
	fi := c.Description.FileTransfer
	fileChildren = append(fileChildren,
		textElem("media-type", fi.MediaType),
		textElem("name", fi.Name),
		textElem("date", fi.Date),
		textElem("size", fi.Size),
	)
	if fi.Hash != nil {
		fileChildren = append(fileChildren, fi.Hash.TokenReader())
	}
	fileElem := xmlstream.Wrap(
		xmlstream.MultiReader(fileChildren...),
		xml.StartElement{Name: xml.Name{Space: ns.FileMeta, Local: "file"}},
	)
	description := xmlstream.Wrap(fileElem, xml.StartElement{
		Name: xml.Name{Space: ns.JingleFT, Local: "description"},
	})
	transport := xmlstream.Wrap(nil, xml.StartElement{
		Name: xml.Name{Space: ns.JingleIBB, Local: "transport"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "sid"}, Value: c.Transport.SID},
			{Name: xml.Name{Local: "block-size"}, Value: strconv.FormatUint(uint64(c.Transport.BlockSize), 10)},
		},
	})
	return xmlstream.Wrap(
		xmlstream.MultiReader(description, transport),
		xml.StartElement{
			Name: xml.Name{Local: "content"},
			Attr: []xml.Attr{
				{Name: xml.Name{Local: "creator"}, Value: CreatorInitiator.String()},
				{Name: xml.Name{Local: "senders"}, Value: c.Senders.String()},
				{Name: xml.Name{Local: "name"}, Value: c.Name},
			},
		},
	)
}

func textElem(local, val string) xml.TokenReader {
	return xmlstream.Wrap(
		xmlstream.Token(xml.CharData(val)),
		xml.StartElement{Name: xml.Name{Local: local}},
	)
}

// reasonTokenReader builds the <reason/> child of a session-terminate.
func reasonTokenReader(reason string) xml.TokenReader {
	return xmlstream.Wrap(
		xmlstream.Wrap(nil, xml.StartElement{Name: xml.Name{Local: reason}}),
		xml.StartElement{Name: xml.Name{Local: "reason"}},
	)
}
