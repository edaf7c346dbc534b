//go:build linux

// File: internal/reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7)-based reactor, adapted from the teacher's
// reactor/reactor_linux.go.

package reactor

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/netgroup-polito/ringpmd/api"
)

type linuxReactor struct {
	epfd int
}

func newPlatformReactor() (api.Reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &linuxReactor{epfd: epfd}, nil
}

func (r *linuxReactor) Register(fd uintptr, userData uintptr) error {
	event := &unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLET,
		Fd:     int32(fd),
	}
	*(*uintptr)(unsafe.Pointer(&event.Pad)) = userData
	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), event)
}

func (r *linuxReactor) Wait(events []api.Event) (int, error) {
	raw := make([]unix.EpollEvent, len(events))
	n, err := unix.EpollWait(r.epfd, raw, -1)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		events[i] = api.Event{
			Fd:       uintptr(raw[i].Fd),
			UserData: *(*uintptr)(unsafe.Pointer(&raw[i].Pad)),
		}
	}
	return n, nil
}

func (r *linuxReactor) Close() error {
	return unix.Close(r.epfd)
}

var _ api.Reactor = (*linuxReactor)(nil)
