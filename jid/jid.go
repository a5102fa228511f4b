// Copyright 2014 Sam Whited.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package jid

import (
	"encoding/xml"
	"errors"
	"net"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/text/secure/precis"
)

// JID is an XMPP address, historically called a "Jabber ID".
//
// JID is an immutable value type; the zero value is a bare domain with an
// empty domainpart and is not a valid address.
type JID struct {
	localpart    string
	domainpart   string
	resourcepart string
}

// Parse constructs a JID from its string representation as described in RFC
// 7622 §3.2: the resourcepart (if any) is everything after the first '/',
// the localpart (if any) is everything before the first '@' that precedes
// that '/', and the domainpart is whatever remains.
func Parse(s string) (JID, error) {
	localpart, domainpart, resourcepart, err := splitString(s)
	if err != nil {
		return JID{}, err
	}
	return New(localpart, domainpart, resourcepart)
}

// New constructs a JID from its three constituent parts, preparing and
// enforcing each part per RFC 7622 §3.2 before validating the length and
// character restrictions from §3.3.
func New(localpart, domainpart, resourcepart string) (JID, error) {
	// Ensure that parts are valid UTF-8 (and short circuit the rest of the
	// process if they're not). The domainpart is checked after the IDNA
	// ToUnicode operation below.
	if !utf8.ValidString(localpart) || !utf8.ValidString(resourcepart) {
		return JID{}, errors.New("jid: contains invalid UTF-8")
	}

	// RFC 7622 §3.2.1 Preparation: a domainpart must consist only of code
	// points allowed in NR-LDH labels or U-labels; any A-label is converted
	// to its U-label during preparation.
	domainpart, err := idna.ToUnicode(domainpart)
	if err != nil {
		return JID{}, err
	}
	if !utf8.ValidString(domainpart) {
		return JID{}, errors.New("jid: domainpart contains invalid UTF-8")
	}

	// RFC 7622 §3.2.2 Enforcement: case-map the domainpart and apply the
	// normalization and case-mapping rules for each slot's PRECIS profile
	// (localpart is a username, resourcepart is opaque) so that, e.g.,
	// "romeo@Example.com" and "romeo@example.com" compare and dispatch
	// identically. The PRECIS profiles reject empty strings, so an absent
	// localpart or resourcepart is left empty.
	domainpart = strings.ToLower(domainpart)
	if localpart != "" {
		localpart, err = precis.UsernameCaseMapped.String(localpart)
		if err != nil {
			return JID{}, err
		}
	}
	if resourcepart != "" {
		resourcepart, err = precis.OpaqueString.String(resourcepart)
		if err != nil {
			return JID{}, err
		}
	}

	if err := commonChecks(localpart, domainpart, resourcepart); err != nil {
		return JID{}, err
	}
	return JID{
		localpart:    localpart,
		domainpart:   domainpart,
		resourcepart: resourcepart,
	}, nil
}

// MustParse is like Parse but panics if s does not represent a valid JID.
// It is intended for use in tests and initializers where the input is
// known to be valid at compile time.
func MustParse(s string) JID {
	j, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return j
}

// Localpart returns the local (often username) part of the JID, if any.
func (j JID) Localpart() string { return j.localpart }

// Domainpart returns the domain part of the JID.
func (j JID) Domainpart() string { return j.domainpart }

// Resourcepart returns the resource part of the JID, if any.
func (j JID) Resourcepart() string { return j.resourcepart }

// Bare returns a copy of the JID with the resourcepart removed.
func (j JID) Bare() JID {
	j.resourcepart = ""
	return j
}

// WithResource returns a copy of the JID with the resourcepart replaced.
func (j JID) WithResource(resourcepart string) (JID, error) {
	return New(j.localpart, j.domainpart, resourcepart)
}

// IsZero reports whether j is the zero value JID.
func (j JID) IsZero() bool {
	return j == JID{}
}

// Equal reports whether j and j2 represent the same address.
func (j JID) Equal(j2 JID) bool {
	return j == j2
}

// String satisfies fmt.Stringer and returns the canonical string
// representation of the JID.
func (j JID) String() string {
	s := j.domainpart
	if j.localpart != "" {
		s = j.localpart + "@" + s
	}
	if j.resourcepart != "" {
		s = s + "/" + j.resourcepart
	}
	return s
}

// MarshalXMLAttr implements xml.MarshalerAttr.
func (j JID) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	return xml.Attr{Name: name, Value: j.String()}, nil
}

// UnmarshalXMLAttr implements xml.UnmarshalerAttr.
func (j *JID) UnmarshalXMLAttr(attr xml.Attr) error {
	parsed, err := Parse(attr.Value)
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

// splitString splits out the localpart, domainpart, and resourcepart from a
// string representation of a JID without validating any of the parts beyond
// the structural requirement that a resourcepart or localpart, once a
// separator is seen, is non-empty.
func splitString(s string) (localpart, domainpart, resourcepart string, err error) {
	parts := strings.SplitN(s, "/", 2)
	if strings.Contains(parts[0], "/") {
		// unreachable, SplitN(..., 2) already handled this; kept for clarity.
	}
	if len(parts) == 2 {
		if parts[1] == "" {
			return "", "", "", errors.New("jid: resourcepart must be larger than 0 bytes")
		}
		resourcepart = parts[1]
	}

	nolp := strings.SplitN(parts[0], "@", 2)
	switch len(nolp) {
	case 1:
		domainpart = nolp[0]
	case 2:
		if nolp[0] == "" {
			return "", "", "", errors.New("jid: localpart must be larger than 0 bytes")
		}
		localpart = nolp[0]
		domainpart = nolp[1]
	}

	// RFC 7622 §3.2: a trailing label separator (dot) on the domainpart is
	// stripped before the JID is used for comparison or routing.
	domainpart = strings.TrimSuffix(domainpart, ".")

	return localpart, domainpart, resourcepart, nil
}

func checkIP6String(domainpart string) error {
	if l := len(domainpart); l > 2 && strings.HasPrefix(domainpart, "[") && strings.HasSuffix(domainpart, "]") {
		if ip := net.ParseIP(domainpart[1 : l-1]); ip == nil || ip.To4() != nil {
			return errors.New("jid: domainpart is not a valid IPv6 address")
		}
	}
	return nil
}

func commonChecks(localpart, domainpart, resourcepart string) error {
	if len(localpart) > 1023 {
		return errors.New("jid: localpart must be smaller than 1024 bytes")
	}
	// RFC 7622 §3.3.1 forbids these characters even though the underlying
	// stringprep profile would otherwise allow them.
	if strings.ContainsAny(localpart, "\"&'/:<>@") {
		return errors.New("jid: localpart contains forbidden characters")
	}
	if len(resourcepart) > 1023 {
		return errors.New("jid: resourcepart must be smaller than 1024 bytes")
	}
	if l := len(domainpart); l < 1 || l > 1023 {
		return errors.New("jid: domainpart must be between 1 and 1023 bytes")
	}
	return checkIP6String(domainpart)
}
