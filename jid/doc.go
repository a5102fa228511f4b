// Copyright 2014 Sam Whited.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

// Package jid implements the XMPP address format described in RFC 7622,
// historically known as a Jabber ID (JID).
//
// A JID is made up of three parts: the localpart (generally a username), the
// domainpart (a fully qualified domain name), and the resourcepart (which
// identifies a specific client, device, or session). Only the domainpart is
// required; a JID consisting of only a domainpart is called a "bare domain",
// and one with a localpart but no resourcepart is a "bare JID".
package jid // import "mellium.im/xmpp/jid"
