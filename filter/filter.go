//go:build linux
// +build linux

// File: filter/filter.go
// Package filter loads the steering XDP program (bpf/redirect.c, compiled
// out of band to bpf/redirect.o) and manages its xsks_map: the kernel-side
// table that decides, per RX queue, which AF_XDP socket a frame should be
// redirected to.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package filter

import (
	"fmt"
	"sync"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"

	"github.com/momentics/hioload-ws/config"
	"github.com/momentics/hioload-ws/ifutil"
	"github.com/momentics/hioload-ws/xdperrors"
	"github.com/momentics/hioload-ws/xdplog"
)

const (
	progName = "xdp_sock_redir"
	mapName  = "xsks_map"
)

// Filter owns one attached steering program and its xsks_map, scoped to a
// single interface.
type Filter struct {
	mu sync.Mutex

	cfg  *config.FilterConfig
	coll *ebpf.Collection
	prog *ebpf.Program
	xsks *ebpf.Map
	link link.Link
}

// Attach loads the steering program from cfg.ProgramPath (or the default
// build output path if unset) and attaches it to cfg.InterfaceName, trying
// native (driver) XDP mode first when cfg.Native is set and falling back to
// generic (SKB) mode if the driver rejects it.
func Attach(cfg *config.FilterConfig) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	path := cfg.ProgramPath
	if path == "" {
		path = "bpf/redirect.o"
	}

	spec, err := ebpf.LoadCollectionSpec(path)
	if err != nil {
		return nil, &xdperrors.FilterLoadFailure{Cause: fmt.Errorf("loading collection spec from %s: %w", path, err)}
	}

	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, &xdperrors.FilterLoadFailure{Cause: fmt.Errorf("instantiating eBPF collection: %w", err)}
	}

	prog, ok := coll.Programs[progName]
	if !ok {
		coll.Close()
		return nil, &xdperrors.FilterLoadFailure{Cause: fmt.Errorf("collection has no program named %q", progName)}
	}
	xsks, ok := coll.Maps[mapName]
	if !ok {
		coll.Close()
		return nil, &xdperrors.FilterLoadFailure{Cause: fmt.Errorf("collection has no map named %q", mapName)}
	}

	ifindex, err := ifutil.InterfaceIndexByName(cfg.InterfaceName)
	if err != nil {
		coll.Close()
		return nil, err
	}

	l, err := attachWithFallback(prog, ifindex, cfg.Native)
	if err != nil {
		coll.Close()
		return nil, &xdperrors.FilterLoadFailure{Cause: err}
	}

	xdplog.Info("xdp filter attached", "interface", cfg.InterfaceName, "ifindex", ifindex)
	return &Filter{cfg: cfg, coll: coll, prog: prog, xsks: xsks, link: l}, nil
}

// attachWithFallback tries native XDP mode first (fastest, driver-offloaded
// where supported) when requested, then falls back to generic mode, which
// every NIC driver supports via the kernel's software fast path.
func attachWithFallback(prog *ebpf.Program, ifindex int, tryNative bool) (link.Link, error) {
	if tryNative {
		l, err := link.AttachXDP(link.XDPOptions{
			Program:   prog,
			Interface: ifindex,
			Flags:     link.XDPDriverMode,
		})
		if err == nil {
			return l, nil
		}
		xdplog.Warn("native XDP attach failed, falling back to generic mode", "error", err)
	}

	return link.AttachXDP(link.XDPOptions{
		Program:   prog,
		Interface: ifindex,
		Flags:     link.XDPGenericMode,
	})
}

// AddRedirect installs a mapping so frames arriving on queueID are
// redirected to the AF_XDP socket identified by socketFD.
func (f *Filter) AddRedirect(queueID uint32, socketFD int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := queueID
	value := int32(socketFD)
	if err := f.xsks.Update(&key, &value, ebpf.UpdateAny); err != nil {
		return &xdperrors.FilterLoadFailure{Cause: fmt.Errorf("xsks_map update(queue=%d, fd=%d): %w", queueID, socketFD, err)}
	}
	return nil
}

// DelRedirect removes the mapping installed for queueID, if any.
func (f *Filter) DelRedirect(queueID uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := queueID
	if err := f.xsks.Delete(&key); err != nil {
		return &xdperrors.FilterLoadFailure{Cause: fmt.Errorf("xsks_map delete(queue=%d): %w", queueID, err)}
	}
	return nil
}

// Close detaches the program and releases all eBPF object file descriptors.
func (f *Filter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var first error
	note := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if f.link != nil {
		note(f.link.Close())
	}
	if f.coll != nil {
		f.coll.Close()
	}
	return first
}
