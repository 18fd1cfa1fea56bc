// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package infrared

import (
	"fmt"
	"strings"
)

var protocolNames = map[Protocol]string{
	ProtocolNEC:        "nec",
	ProtocolNECSamsung: "nec-samsung",
	ProtocolNEC16:      "nec16",
	ProtocolNECApple:   "nec-apple",
	ProtocolNECRaw:     "nec-raw",
	ProtocolRC5:        "rc5",
	ProtocolRC6:        "rc6",
	ProtocolSBP:        "sbp",
	ProtocolDenon:      "denon",
	ProtocolMitsubishi: "mitsubishi",
}

// String returns the short lowercase name used on the command line and in
// configuration files.
func (p Protocol) String() string {
	if name, ok := protocolNames[p]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(p))
}

// ParseProtocol looks up a protocol by name. Matching ignores case, and
// "samsung" and "apple" are accepted as aliases.
func ParseProtocol(name string) (Protocol, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "samsung":
		return ProtocolNECSamsung, nil
	case "apple":
		return ProtocolNECApple, nil
	}
	for _, p := range Protocols() {
		if protocolNames[p] == name {
			return p, nil
		}
	}
	return ProtocolUnknown, fmt.Errorf("%w: %q", ErrUnsupported, name)
}

// Protocols returns every supported protocol in declaration order.
func Protocols() []Protocol {
	return []Protocol{
		ProtocolNEC,
		ProtocolNECSamsung,
		ProtocolNEC16,
		ProtocolNECApple,
		ProtocolNECRaw,
		ProtocolRC5,
		ProtocolRC6,
		ProtocolSBP,
		ProtocolDenon,
		ProtocolMitsubishi,
	}
}
