//go:build linux

// File: internal/sidechannel/channel_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Opens the virtio-serial control device and drives it from the
// internal/reactor epoll loop instead of the spec's SIGIO+F_SETOWN
// mechanism (design note in spec §9 prefers an explicit event loop);
// the on-the-wire framing (up to 512 bytes, single message, no partial
// reads) is unchanged.

package sidechannel

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/netgroup-polito/ringpmd/api"
	"github.com/netgroup-polito/ringpmd/internal/reactor"
)

const maxFrameBytes = 512

// RenameHook is invoked for each successfully parsed rename frame.
type RenameHook func(oldName, newName string)

// Channel polls a virtio-serial port for rename control frames.
type Channel struct {
	fd     int
	log    *zap.Logger
	onHook RenameHook
}

// Open opens path (e.g. "/dev/virtio-ports/dpdk") O_NONBLOCK and
// returns a Channel ready to be driven by Run.
func Open(path string, log *zap.Logger, onRename RenameHook) (*Channel, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("sidechannel: open %s: %w", path, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{fd: fd, log: log, onHook: onRename}, nil
}

// Run registers the channel's fd with a fresh reactor and services
// rename frames until ctx is cancelled or Close is called.
func (c *Channel) Run(ctx context.Context) error {
	r, err := reactor.New()
	if err != nil {
		return err
	}
	defer r.Close()
	if err := r.Register(uintptr(c.fd), uintptr(c.fd)); err != nil {
		return err
	}

	handler := reactor.HandlerFunc(func(ev api.Event) {
		msg, ok, rerr := c.readOnce()
		if rerr != nil {
			c.log.Warn("sidechannel: read failed", zap.Error(rerr))
			return
		}
		if !ok {
			return
		}
		if c.onHook != nil {
			c.onHook(msg.Old, msg.New)
		}
	})
	return reactor.NewLoop(r, 1, handler).Run(ctx)
}

// Close releases the underlying file descriptor.
func (c *Channel) Close() error {
	return unix.Close(c.fd)
}

// readOnce reads the nonblocking fd directly, retrying on EINTR and
// treating EAGAIN as "no message": up to 512 bytes, single message.
func (c *Channel) readOnce() (RenameMessage, bool, error) {
	buf := make([]byte, maxFrameBytes)
	for {
		n, err := unix.Read(c.fd, buf)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				return RenameMessage{}, false, nil
			}
			return RenameMessage{}, false, err
		}
		if n == 0 {
			return RenameMessage{}, false, nil
		}
		msg, perr := ParseRename(buf[:n])
		if perr != nil {
			c.log.Warn("sidechannel: dropping malformed frame", zap.Error(perr))
			return RenameMessage{}, false, nil
		}
		return msg, true, nil
	}
}
