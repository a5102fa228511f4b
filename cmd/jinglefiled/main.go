// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// The jinglefiled command wires the jingle and ibb packages together into a
// minimal receiver configured to accept every negotiated file transfer
// automatically and write it into a downloads directory.
//
// It does not connect to a server or read any input: it builds the handlers
// and their muxes, reports its configuration on stderr, and exits.
//
// For more information try running:
//
//	jinglefiled -help
package main

import (
	"context"
	"encoding/xml"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync/atomic"

	// Registering these algorithms here (rather than in the crypto package
	// itself) mirrors the stdlib crypto package's own init()-registration
	// idiom: a package that merely declares the Hash constant never forces
	// callers who don't need SHA-3/BLAKE2b to link them in. ibb.Transport
	// calls Hash.Available()/Hash.New() to verify a received file's digest,
	// so whichever of these the peer negotiates must be registered by the
	// binary that wires transport together.
	_ "golang.org/x/crypto/blake2b"
	_ "golang.org/x/crypto/sha3"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/ibb"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/jingle"
	"mellium.im/xmpp/mux"
)

// stdoutSender is a jingle.Sender/ibb.Sender that writes every outbound
// stanza to stdout, standing in for a connection this module does not
// implement (see package doc).
type stdoutSender struct {
	local jid.JID
	enc   *xml.Encoder
	seq   uint64
}

func (s *stdoutSender) Send(_ context.Context, payload xml.TokenReader) error {
	if _, err := xmlstream.Copy(s.enc, payload); err != nil {
		return err
	}
	return s.enc.Flush()
}

func (s *stdoutSender) NextID() string {
	n := atomic.AddUint64(&s.seq, 1)
	return "jf" + strconv.FormatUint(n, 10)
}

func (s *stdoutSender) LocalJID() jid.JID { return s.local }

// consoleNotifier reports Jingle activity to a logger, standing in for a
// user-facing console or UI layer.
type consoleNotifier struct {
	log *log.Logger
}

func (n consoleNotifier) Offer(peer jid.JID, transportSID, name string, size uint64) {
	n.log.Printf("offer from %s: %s (%d bytes, transport %s)", peer, name, size, transportSID)
}

func (n consoleNotifier) Ring(peer jid.JID) {
	n.log.Printf("call proposal from %s (RTP sessions are not supported)", peer)
}

func (n consoleNotifier) Info(format string, args ...interface{}) {
	n.log.Printf(format, args...)
}

func (n consoleNotifier) Error(format string, args ...interface{}) {
	n.log.Printf("error: "+format, args...)
}

func main() {
	var (
		downloadDir = flag.String("downloads", "downloads", "directory incoming files are written to")
		localAddr   = flag.String("jid", "jinglefiled@localhost", "the local JID to advertise as responder")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	local, err := jid.Parse(*localAddr)
	if err != nil {
		logger.Fatalf("parsing -jid: %v", err)
	}

	store, err := ibb.NewDirStore(*downloadDir)
	if err != nil {
		logger.Fatalf("creating downloads dir: %v", err)
	}

	sender := &stdoutSender{local: local, enc: xml.NewEncoder(os.Stdout)}
	manager := jingle.NewManager(sender, consoleNotifier{log: logger}, jingle.WithLogger(logger))
	transport := ibb.NewTransport(sender, manager, store, logger)

	iqMux := mux.NewIQMux(
		mux.SetIQFunc(xml.Name{Space: "urn:xmpp:jingle:1", Local: "jingle"}, manager.HandleIQ),
		mux.SetIQFunc(xml.Name{Space: "http://jabber.org/protocol/ibb", Local: "open"}, transport.HandleIQ),
		mux.SetIQFunc(xml.Name{Space: "http://jabber.org/protocol/ibb", Local: "data"}, transport.HandleIQ),
		mux.SetIQFunc(xml.Name{Space: "http://jabber.org/protocol/ibb", Local: "close"}, transport.HandleIQ),
	)
	msgMux := mux.NewMessageMux(
		mux.HandleMessageFunc(xml.Name{Space: "urn:xmpp:jingle-message:0", Local: "propose"}, manager.HandleMessage),
		mux.HandleMessageFunc(xml.Name{Space: "urn:xmpp:jingle-message:0", Local: "retract"}, manager.HandleMessage),
		mux.HandleMessageFunc(xml.Name{Space: "urn:xmpp:jingle-message:0", Local: "accept"}, manager.HandleMessage),
		mux.HandleMessageFunc(xml.Name{Space: "urn:xmpp:jingle-message:0", Local: "reject"}, manager.HandleMessage),
		mux.HandleMessageFunc(xml.Name{Space: "urn:xmpp:jingle-message:0", Local: "proceed"}, manager.HandleMessage),
	)

	// Feeding iqMux.HandleXMPP/msgMux.HandleXMPP from a live connection is
	// outside this module's scope (see package doc); they are built here
	// only to demonstrate that the core wires together correctly end to
	// end.
	_, _ = iqMux, msgMux
	fmt.Fprintf(os.Stderr, "jinglefiled: listening as %s, writing transfers to %s\n", local, *downloadDir)
}
