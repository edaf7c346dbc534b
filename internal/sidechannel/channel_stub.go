//go:build !linux

// File: internal/sidechannel/channel_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sidechannel

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// RenameHook is invoked for each successfully parsed rename frame.
type RenameHook func(oldName, newName string)

// Channel is unsupported outside Linux; virtio-serial ports are a
// Linux/KVM guest concept.
type Channel struct{}

func Open(path string, log *zap.Logger, onRename RenameHook) (*Channel, error) {
	return nil, errors.New("sidechannel: virtio-serial control channel requires linux")
}

func (c *Channel) Run(ctx context.Context) error { return errors.New("sidechannel: not supported") }
func (c *Channel) Close() error                  { return nil }
