// Package sampler reads host utilization and assembles it into a
// models.ResourceSnapshot. It uses gopsutil for cross-platform telemetry.
package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/v4/cpu"

	"github.com/vesaa/hostprobe/internal/models"
)

// DefaultWindow is the interval over which CPU busy time is measured.
const DefaultWindow = time.Second

// Sampler produces snapshots. It keeps no state between calls, so a single
// Sampler may be shared freely.
type Sampler struct {
	src    Source
	window time.Duration
	sleep  func(time.Duration)
	log    hclog.Logger
}

// Option customizes a Sampler.
type Option func(*Sampler)

// WithWindow overrides the CPU sampling window.
func WithWindow(d time.Duration) Option {
	return func(s *Sampler) { s.window = d }
}

// WithLogger sets the logger used to report degraded sections.
func WithLogger(l hclog.Logger) Option {
	return func(s *Sampler) { s.log = l }
}

// New creates a Sampler reading from src.
func New(src Source, opts ...Option) *Sampler {
	s := &Sampler{
		src:    src,
		window: DefaultWindow,
		sleep:  time.Sleep,
		log:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collect builds a full snapshot. It blocks for at least the CPU window and
// never fails as a whole: a section that cannot be read carries an error
// marker, and an unreadable partition table yields an empty disk list.
func (s *Sampler) Collect(ctx context.Context) models.ResourceSnapshot {
	snap := models.ResourceSnapshot{Disk: []models.DiskPartitionStats{}}

	if name, err := s.src.Hostname(ctx); err == nil {
		snap.DeviceName = name
	} else {
		s.log.Warn("hostname unavailable", "error", err)
	}

	var err error
	if snap.CPU, err = s.SampleCPU(ctx); err != nil {
		s.log.Warn("cpu section degraded", "error", err)
		snap.CPU = models.CpuStats{Error: err.Error()}
	}
	if snap.Memory, err = s.SampleMemory(ctx); err != nil {
		s.log.Warn("memory section degraded", "error", err)
		snap.Memory = models.MemoryStats{Error: err.Error()}
	}
	if snap.Network, err = s.SampleNetwork(ctx); err != nil {
		s.log.Warn("network section degraded", "error", err)
		snap.Network = models.NetworkStats{Error: err.Error()}
	}
	if disks, err := s.SampleDisk(ctx); err != nil {
		s.log.Warn("disk section degraded", "error", err)
	} else {
		snap.Disk = disks
	}
	return snap
}

// ─── CPU ──────────────────────────────────────────────────────────────────────

// SampleCPU measures busy percentage over the sampling window: one baseline
// read, a sleep, and a second read. Every call costs at least the window.
func (s *Sampler) SampleCPU(ctx context.Context) (models.CpuStats, error) {
	before, err := s.cpuBaseline(ctx)
	if err != nil {
		return models.CpuStats{}, err
	}
	s.sleep(s.window)
	after, err := s.cpuBaseline(ctx)
	if err != nil {
		return models.CpuStats{}, err
	}

	count, err := s.src.CPUCount(ctx)
	if err != nil {
		return models.CpuStats{}, fmt.Errorf("cpu count: %w", err)
	}
	return models.CpuStats{
		Usage: busyPercent(before, after),
		Count: count,
	}, nil
}

func (s *Sampler) cpuBaseline(ctx context.Context) (cpu.TimesStat, error) {
	t, err := s.src.CPUTimes(ctx)
	if err != nil {
		return cpu.TimesStat{}, fmt.Errorf("cpu times: %w", err)
	}
	return t, nil
}

// cpuTotals splits cumulative times into (busy, total). Guest time is already
// accounted inside user time on Linux and is left out.
func cpuTotals(t cpu.TimesStat) (busy, total float64) {
	total = t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
	return total - t.Idle - t.Iowait, total
}

// busyPercent returns the share of the interval between t1 and t2 spent busy,
// clamped to [0, 100]. An empty interval reports 0.
func busyPercent(t1, t2 cpu.TimesStat) float64 {
	busy1, total1 := cpuTotals(t1)
	busy2, total2 := cpuTotals(t2)
	if total2 <= total1 {
		return 0
	}
	if busy2 <= busy1 {
		return 0
	}
	pct := (busy2 - busy1) / (total2 - total1) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// ─── Memory ───────────────────────────────────────────────────────────────────

// SampleMemory reads virtual memory and swap once each.
func (s *Sampler) SampleMemory(ctx context.Context) (models.MemoryStats, error) {
	vm, err := s.src.VirtualMemory(ctx)
	if err != nil {
		return models.MemoryStats{}, fmt.Errorf("virtual memory: %w", err)
	}
	swap, err := s.src.SwapMemory(ctx)
	if err != nil {
		return models.MemoryStats{}, fmt.Errorf("swap memory: %w", err)
	}
	return models.MemoryStats{
		Total:     models.ToMB(vm.Total),
		Used:      models.ToMB(vm.Used),
		Available: models.ToMB(vm.Available),
		Usage:     vm.UsedPercent,
		SwapUsage: swap.UsedPercent,
	}, nil
}

// ─── Network ──────────────────────────────────────────────────────────────────

// SampleNetwork reads cumulative counters since boot. No delta is taken.
func (s *Sampler) SampleNetwork(ctx context.Context) (models.NetworkStats, error) {
	counters, err := s.src.NetCounters(ctx)
	if err != nil {
		return models.NetworkStats{}, fmt.Errorf("net counters: %w", err)
	}
	return models.NetworkStats{
		BytesSent:      models.ToMB(counters.BytesSent),
		BytesRecv:      models.ToMB(counters.BytesRecv),
		PacketsSent:    counters.PacketsSent,
		PacketsRecv:    counters.PacketsRecv,
		PacketsDropIn:  counters.Dropin,
		PacketsDropOut: counters.Dropout,
	}, nil
}

// ─── Disk ─────────────────────────────────────────────────────────────────────

// SampleDisk reports every mounted partition. A partition that cannot be
// stat'ed (e.g. unmounted since enumeration) is skipped.
func (s *Sampler) SampleDisk(ctx context.Context) ([]models.DiskPartitionStats, error) {
	parts, err := s.src.Partitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("disk partitions: %w", err)
	}

	out := make([]models.DiskPartitionStats, 0, len(parts))
	for _, p := range parts {
		usage, err := s.src.DiskUsage(ctx, p.Mountpoint)
		if err != nil {
			s.log.Debug("skipping partition", "mountpoint", p.Mountpoint, "error", err)
			continue
		}
		out = append(out, models.DiskPartitionStats{
			Name:  p.Mountpoint,
			Total: models.ToMB(usage.Total),
			Used:  models.ToMB(usage.Used),
			Free:  models.ToMB(usage.Free),
			Usage: usage.UsedPercent,
		})
	}
	return out, nil
}
