//go:build linux

// File: internal/ivshmem/watcher_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// NetlinkWatcher reads kobject uevent messages off a NETLINK_KOBJECT_UEVENT
// socket, driven by internal/reactor rather than SIGIO (spec §9's own
// preference for an explicit event loop).

package ivshmem

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/netgroup-polito/ringpmd/api"
	"github.com/netgroup-polito/ringpmd/internal/reactor"
)

// NetlinkWatcher implements Watcher over the kernel's uevent broadcast.
type NetlinkWatcher struct {
	fd     int
	ch     chan HotplugEvent
	log    *zap.Logger
	r      api.Reactor
	cancel context.CancelFunc
}

// NewNetlinkWatcher opens a netlink socket bound to the kobject-uevent
// multicast group and starts pumping decoded events through a reactor
// loop on its own goroutine.
func NewNetlinkWatcher(log *zap.Logger) (*NetlinkWatcher, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, err
	}
	addr := &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: 1}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	r, err := reactor.New()
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := r.Register(uintptr(fd), 0); err != nil {
		r.Close()
		unix.Close(fd)
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &NetlinkWatcher{fd: fd, ch: make(chan HotplugEvent, 16), log: log, r: r, cancel: cancel}

	loop := reactor.NewLoop(r, 8, reactor.HandlerFunc(func(ev api.Event) {
		w.drain()
	}))
	go func() {
		if err := loop.Run(ctx); err != nil {
			w.log.Debug("ivshmem: netlink loop stopped", zap.Error(err))
		}
		close(w.ch)
	}()
	return w, nil
}

func (w *NetlinkWatcher) drain() {
	buf := make([]byte, 4096)
	n, _, err := unix.Recvfrom(w.fd, buf, 0)
	if err != nil {
		return
	}
	if ev, ok := decodeUevent(buf[:n]); ok {
		w.ch <- ev
	}
}

// decodeUevent parses a kobject-uevent payload of NUL-separated
// "KEY=VALUE" records, the first of which is "ACTION@DEVPATH".
func decodeUevent(msg []byte) (HotplugEvent, bool) {
	parts := bytes.Split(msg, []byte{0})
	if len(parts) == 0 {
		return HotplugEvent{}, false
	}
	head := string(parts[0])
	at := strings.IndexByte(head, '@')
	if at < 0 {
		return HotplugEvent{}, false
	}
	ev := HotplugEvent{Action: HotplugAction(head[:at]), DevicePath: head[at+1:]}

	subsystem := ""
	for _, p := range parts[1:] {
		kv := strings.SplitN(string(p), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "SUBSYSTEM":
			subsystem = kv[1]
		case "PCI_ID":
			// PCI_ID=VVVV:DDDD
			ids := strings.SplitN(kv[1], ":", 2)
			if len(ids) == 2 {
				if v, err := strconv.ParseUint(ids[0], 16, 16); err == nil {
					ev.VendorID = uint16(v)
				}
				if d, err := strconv.ParseUint(ids[1], 16, 16); err == nil {
					ev.DeviceID = uint16(d)
				}
			}
		}
	}
	if subsystem != "pci" {
		return HotplugEvent{}, false
	}
	return ev, true
}

func (w *NetlinkWatcher) Events() <-chan HotplugEvent { return w.ch }

func (w *NetlinkWatcher) Close() error {
	w.cancel()
	return unix.Close(w.fd)
}

var _ Watcher = (*NetlinkWatcher)(nil)
