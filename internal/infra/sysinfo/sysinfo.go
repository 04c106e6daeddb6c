// Package sysinfo samples host CPU, memory and network counters from /proc.
package sysinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/procfs"

	"proxy-admin-bot/internal/domain/model"
	"proxy-admin-bot/internal/domain/ports/adapter"
)

var _ adapter.SystemMetrics = (*Sampler)(nil)

// source is the subset of procfs.FS the sampler reads.
type source interface {
	Stat() (procfs.Stat, error)
	Meminfo() (procfs.Meminfo, error)
	NetDev() (procfs.NetDev, error)
}

// Sampler takes two readings window apart to derive CPU usage and
// per-second bandwidth.
type Sampler struct {
	fs     source
	window time.Duration
}

func NewSampler(window time.Duration) (*Sampler, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return nil, fmt.Errorf("open procfs: %w", err)
	}
	return newSampler(fs, window), nil
}

func newSampler(fs source, window time.Duration) *Sampler {
	if window <= 0 {
		window = time.Second
	}
	return &Sampler{fs: fs, window: window}
}

type reading struct {
	busy, total float64
	rx, tx      uint64
}

func (s *Sampler) read() (reading, int, error) {
	st, err := s.fs.Stat()
	if err != nil {
		return reading{}, 0, fmt.Errorf("read /proc/stat: %w", err)
	}
	c := st.CPUTotal
	idle := c.Idle + c.Iowait
	busy := c.User + c.Nice + c.System + c.IRQ + c.SoftIRQ + c.Steal
	r := reading{busy: busy, total: busy + idle}

	nd, err := s.fs.NetDev()
	if err != nil {
		return reading{}, 0, fmt.Errorf("read /proc/net/dev: %w", err)
	}
	for name, line := range nd {
		if name == "lo" {
			continue
		}
		r.rx += line.RxBytes
		r.tx += line.TxBytes
	}
	return r, len(st.CPU), nil
}

// Snapshot blocks for the sampling window or until ctx is done.
func (s *Sampler) Snapshot(ctx context.Context) (model.HostStats, error) {
	first, cores, err := s.read()
	if err != nil {
		return model.HostStats{}, err
	}
	t := time.NewTimer(s.window)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return model.HostStats{}, ctx.Err()
	case <-t.C:
	}
	second, _, err := s.read()
	if err != nil {
		return model.HostStats{}, err
	}

	out := model.HostStats{CPUCores: cores}
	if dt := second.total - first.total; dt > 0 {
		out.CPUUsage = (second.busy - first.busy) / dt * 100
	}
	secs := s.window.Seconds()
	if second.rx >= first.rx {
		out.IncomingBytesPerSec = uint64(float64(second.rx-first.rx) / secs)
	}
	if second.tx >= first.tx {
		out.OutgoingBytesPerSec = uint64(float64(second.tx-first.tx) / secs)
	}

	mi, err := s.fs.Meminfo()
	if err != nil {
		return out, fmt.Errorf("read /proc/meminfo: %w", err)
	}
	if mi.MemTotal != nil {
		out.MemTotal = *mi.MemTotal * 1024
		if mi.MemAvailable != nil && *mi.MemAvailable <= *mi.MemTotal {
			out.MemUsed = (*mi.MemTotal - *mi.MemAvailable) * 1024
		}
	}
	return out, nil
}
