// File: internal/sidechannel/parser.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Parses the single-message `old=<name>,new=<name>` rename control
// frame read from the virtio-serial channel (spec §4.9). Partial
// messages are not supported, matching the spec's documented
// limitation.

package sidechannel

import (
	"fmt"
	"strings"
)

// RenameMessage is one parsed control-channel rename request.
type RenameMessage struct {
	Old string
	New string
}

// ParseRename parses a single `old=<name>,new=<name>` frame.
func ParseRename(raw []byte) (RenameMessage, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return RenameMessage{}, fmt.Errorf("sidechannel: empty message")
	}
	var msg RenameMessage
	for _, field := range strings.Split(text, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(field), "=")
		if !found {
			return RenameMessage{}, fmt.Errorf("sidechannel: malformed field %q", field)
		}
		switch k {
		case "old":
			msg.Old = v
		case "new":
			msg.New = v
		default:
			return RenameMessage{}, fmt.Errorf("sidechannel: unknown field %q", k)
		}
	}
	if msg.Old == "" || msg.New == "" {
		return RenameMessage{}, fmt.Errorf("sidechannel: message missing old or new name: %q", text)
	}
	return msg, nil
}
