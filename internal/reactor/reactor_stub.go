//go:build !linux

// File: internal/reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"errors"

	"github.com/netgroup-polito/ringpmd/api"
)

func newPlatformReactor() (api.Reactor, error) {
	return nil, errors.New("reactor: this platform is not supported")
}
