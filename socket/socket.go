//go:build linux
// +build linux

// File: socket/socket.go
// Package socket implements the AF_XDP socket lifecycle: creation, UMEM
// registration, ring-size announcement, ring mmap, and bind.
//
// The syscall sequence below follows the kernel uAPI documented in
// linux/if_xdp.h: socket(AF_XDP) -> setsockopt(XDP_UMEM_REG) ->
// setsockopt(XDP_{RX,TX,UMEM_FILL,UMEM_COMPLETION}_RING) ->
// getsockopt(XDP_MMAP_OFFSETS) -> mmap each ring at its XDP_*_PGOFF ->
// bind(AF_XDP).
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package socket

import (
	"sync"

	"github.com/momentics/hioload-ws/config"
	"github.com/momentics/hioload-ws/ifutil"
	"github.com/momentics/hioload-ws/internal/xdpassert"
	"github.com/momentics/hioload-ws/ring"
	"github.com/momentics/hioload-ws/umem"
	"github.com/momentics/hioload-ws/xdperrors"
	"github.com/momentics/hioload-ws/xdplog"
	"golang.org/x/sys/unix"
)

// Socket owns one AF_XDP file descriptor, its four mmap'd rings, and a
// reference to the UMEM it was registered against.
type Socket struct {
	fd  int
	mu  sync.Mutex
	cfg *config.SocketConfig
	u   *umem.UMEM

	rx   *ring.DescRing
	tx   *ring.DescRing
	fill *ring.OffsetRing
	comp *ring.OffsetRing

	closed bool
}

// New creates and fully configures an AF_XDP socket bound to cfg's
// interface/queue, registering u as its UMEM. u must outlive the returned
// Socket; New calls u.Acquire() and Close releases it.
func New(cfg *config.SocketConfig, u *umem.UMEM) (*Socket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// Ring sizes are programmer-error preconditions, checked before any
	// syscall so a non-power-of-two size panics here rather than surfacing
	// as a setsockopt failure.
	xdpassert.PowerOfTwo("rx ring size", cfg.RXRingSize)
	xdpassert.PowerOfTwo("tx ring size", cfg.TXRingSize)
	xdpassert.PowerOfTwo("fill ring size", cfg.FillRingSize)
	xdpassert.PowerOfTwo("completion ring size", cfg.CompRingSize)

	ifindex, err := ifutil.InterfaceIndexByName(cfg.InterfaceName)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_XDP, unix.SOCK_RAW, 0)
	if err != nil {
		return nil, &xdperrors.SocketCreationFailure{Cause: err}
	}

	s := &Socket{fd: fd, cfg: cfg, u: u}
	u.Acquire()

	if err := s.registerUmem(); err != nil {
		s.teardown()
		return nil, err
	}
	if err := s.announceRingSizes(); err != nil {
		s.teardown()
		return nil, err
	}
	offsets, err := s.queryMmapOffsets()
	if err != nil {
		s.teardown()
		return nil, err
	}
	if err := s.mapRings(offsets); err != nil {
		s.teardown()
		return nil, err
	}
	if err := s.bind(ifindex); err != nil {
		s.teardown()
		return nil, err
	}

	xdplog.Info("xdp socket bound",
		"interface", cfg.InterfaceName, "queue", cfg.QueueID, "fd", fd)
	return s, nil
}

// registerUmem issues setsockopt(XDP_UMEM_REG) describing u's geometry.
func (s *Socket) registerUmem() error {
	reg := unix.XDPUmemReg{
		Addr:     uint64(uintptr(s.u.BasePtr())),
		Len:      uint64(s.u.MemorySize()),
		Size:     uint32(s.u.ChunkSize()),
		Headroom: 0,
	}
	if err := unix.SetsockoptXDPUmemReg(s.fd, unix.SOL_XDP, unix.XDP_UMEM_REG, &reg); err != nil {
		return &xdperrors.SocketSetOptionFailure{Level: unix.SOL_XDP, Name: unix.XDP_UMEM_REG, Cause: err}
	}
	return nil
}

// announceRingSizes issues the four setsockopt(XDP_*_RING) calls that tell
// the kernel how many entries each ring should have before XDP_MMAP_OFFSETS
// can be queried.
func (s *Socket) announceRingSizes() error {
	type ringOpt struct {
		name string
		opt  int
		size int
	}
	for _, r := range []ringOpt{
		{"fill", unix.XDP_UMEM_FILL_RING, s.cfg.FillRingSize},
		{"completion", unix.XDP_UMEM_COMPLETION_RING, s.cfg.CompRingSize},
		{"rx", unix.XDP_RX_RING, s.cfg.RXRingSize},
		{"tx", unix.XDP_TX_RING, s.cfg.TXRingSize},
	} {
		if err := unix.SetsockoptInt(s.fd, unix.SOL_XDP, r.opt, r.size); err != nil {
			return &xdperrors.SocketSetOptionFailure{Level: unix.SOL_XDP, Name: r.opt, Cause: err}
		}
	}
	return nil
}

// queryMmapOffsets issues getsockopt(XDP_MMAP_OFFSETS), returning the
// producer/consumer/desc offsets for all four rings in one call.
func (s *Socket) queryMmapOffsets() (*unix.XDPMmapOffsets, error) {
	off, err := unix.GetsockoptXDPMmapOffsets(s.fd, unix.SOL_XDP, unix.XDP_MMAP_OFFSETS)
	if err != nil {
		return nil, &xdperrors.SocketGetOptionFailure{Level: unix.SOL_XDP, Name: unix.XDP_MMAP_OFFSETS, Cause: err}
	}
	return off, nil
}

// mapRings mmaps all four rings at their XDP_*_PGOFF_* well-known offsets.
func (s *Socket) mapRings(off *unix.XDPMmapOffsets) error {
	fillOffsets := ring.Offsets{
		Producer: off.Fr.Producer, Consumer: off.Fr.Consumer,
		Desc: off.Fr.Desc, Flags: off.Fr.Flags,
	}
	compOffsets := ring.Offsets{
		Producer: off.Cr.Producer, Consumer: off.Cr.Consumer,
		Desc: off.Cr.Desc, Flags: off.Cr.Flags,
	}
	rxOffsets := ring.Offsets{
		Producer: off.Rx.Producer, Consumer: off.Rx.Consumer,
		Desc: off.Rx.Desc, Flags: off.Rx.Flags,
	}
	txOffsets := ring.Offsets{
		Producer: off.Tx.Producer, Consumer: off.Tx.Consumer,
		Desc: off.Tx.Desc, Flags: off.Tx.Flags,
	}

	var err error
	if s.fill, err = ring.NewOffsetRing(s.fd, uint32(s.cfg.FillRingSize), fillOffsets, unix.XDP_UMEM_PGOFF_FILL_RING); err != nil {
		return err
	}
	if s.comp, err = ring.NewOffsetRing(s.fd, uint32(s.cfg.CompRingSize), compOffsets, unix.XDP_UMEM_PGOFF_COMPLETION_RING); err != nil {
		return err
	}
	if s.rx, err = ring.NewDescRing(s.fd, uint32(s.cfg.RXRingSize), rxOffsets, unix.XDP_PGOFF_RX_RING); err != nil {
		return err
	}
	if s.tx, err = ring.NewDescRing(s.fd, uint32(s.cfg.TXRingSize), txOffsets, unix.XDP_PGOFF_TX_RING); err != nil {
		return err
	}
	return nil
}

// bind issues bind(AF_XDP) against the resolved interface/queue pair.
func (s *Socket) bind(ifindex int) error {
	sa := &unix.SockaddrXDP{
		Flags:   s.bindFlags(),
		Ifindex: uint32(ifindex),
		QueueID: uint32(s.cfg.QueueID),
	}
	if err := unix.Bind(s.fd, sa); err != nil {
		return &xdperrors.SocketBindFailure{Cause: err}
	}
	return nil
}

func (s *Socket) bindFlags() uint16 {
	var flags uint16
	if s.cfg.ZeroCopy && !s.cfg.ForceCopyMode {
		flags |= unix.XDP_ZEROCOPY
	}
	if s.cfg.ForceCopyMode {
		flags |= unix.XDP_COPY
	}
	if s.cfg.NeedWakeup {
		flags |= unix.XDP_USE_NEED_WAKEUP
	}
	return flags
}

// RX returns the socket's receive descriptor ring.
func (s *Socket) RX() *ring.DescRing { return s.rx }

// TX returns the socket's transmit descriptor ring.
func (s *Socket) TX() *ring.DescRing { return s.tx }

// Fill returns the socket's fill offset ring.
func (s *Socket) Fill() *ring.OffsetRing { return s.fill }

// Completion returns the socket's completion offset ring.
func (s *Socket) Completion() *ring.OffsetRing { return s.comp }

// UMEM returns the UMEM this socket was registered against.
func (s *Socket) UMEM() *umem.UMEM { return s.u }

// FD returns the underlying socket file descriptor, for use with an
// external poller (epoll/poll).
func (s *Socket) FD() int { return s.fd }

// Statistics issues getsockopt(XDP_STATISTICS) and returns the kernel's
// running drop/invalid-descriptor counters for this socket.
func (s *Socket) Statistics() (*unix.XDPStatistics, error) {
	stats, err := unix.GetsockoptXDPStatistics(s.fd, unix.SOL_XDP, unix.XDP_STATISTICS)
	if err != nil {
		return nil, &xdperrors.SocketGetOptionFailure{Level: unix.SOL_XDP, Name: unix.XDP_STATISTICS, Cause: err}
	}
	return stats, nil
}

// Options issues getsockopt(XDP_OPTIONS) and reports which negotiated
// features (e.g. whether zero-copy mode was actually granted) are active.
func (s *Socket) Options() (*unix.XDPOptions, error) {
	opts, err := unix.GetsockoptXDPOptions(s.fd, unix.SOL_XDP, unix.XDP_OPTIONS)
	if err != nil {
		return nil, &xdperrors.SocketGetOptionFailure{Level: unix.SOL_XDP, Name: unix.XDP_OPTIONS, Cause: err}
	}
	return opts, nil
}

// PollForReception blocks (via poll(2)) until the socket is readable or
// timeoutMs elapses (-1 blocks indefinitely). Returns false on timeout.
func (s *Socket) PollForReception(timeoutMs int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		return false, &xdperrors.SocketGetOptionFailure{Level: 0, Name: 0, Cause: err}
	}
	if n == 0 {
		return false, nil
	}
	if fds[0].Revents&unix.POLLIN == 0 {
		return false, xdperrors.ErrPollFailure
	}
	return true, nil
}

// WakeForTransmission issues sendto(MSG_DONTWAIT) to nudge the kernel into
// servicing the TX ring. It sends unconditionally: it checks neither
// NeedWakeup nor the TX ring's flags. EAGAIN and ENOBUFS are not reported.
func (s *Socket) WakeForTransmission() error {
	if err := unix.Sendto(s.fd, nil, unix.MSG_DONTWAIT, nil); err != nil &&
		err != unix.EAGAIN && err != unix.ENOBUFS {
		return &xdperrors.SocketSendFailure{Cause: err}
	}
	return nil
}

// Close unmaps all rings, closes the socket fd, and releases the UMEM
// reference acquired in New. Safe to call once; idempotent thereafter.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.teardown()
}

func (s *Socket) teardown() error {
	var first error
	note := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if s.fill != nil {
		note(s.fill.Close())
	}
	if s.comp != nil {
		note(s.comp.Close())
	}
	if s.rx != nil {
		note(s.rx.Close())
	}
	if s.tx != nil {
		note(s.tx.Close())
	}
	if s.fd != 0 {
		note(unix.Close(s.fd))
	}
	if s.u != nil {
		note(s.u.Release())
	}
	return first
}
