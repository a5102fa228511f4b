// Copyright 2024 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ibb implements the byte-stream half of a peer-to-peer file-transfer
// subsystem: In-Band Bytestreams (XEP-0047) used as the Jingle (XEP-0166)
// transport negotiated by the jingle package.
//
// A Transport owns every active IBB session, keyed by transport sid. It
// validates an incoming open against the content the jingle package
// negotiated for that sid, appends received data frames to a file obtained
// from a FileStore in strict sequence order, and promotes the owning
// content to finished once the expected number of bytes has arrived.
//
// Like the jingle package, Transport is driven exclusively from a single
// dispatch goroutine and holds no lock.
package ibb // import "mellium.im/xmpp/ibb"
