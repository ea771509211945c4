package sampler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
)

// ErrNoCounters is returned when the OS reports an empty counter set.
var ErrNoCounters = errors.New("no counters reported")

// Source is the OS facility the Sampler reads from. Every method is a single
// read with no memory of earlier calls.
type Source interface {
	// CPUTimes returns cumulative CPU times aggregated over all cores.
	CPUTimes(ctx context.Context) (cpu.TimesStat, error)
	// CPUCount returns the number of logical CPUs.
	CPUCount(ctx context.Context) (int, error)
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error)
	// NetCounters returns cumulative I/O counters summed over all interfaces.
	NetCounters(ctx context.Context) (psnet.IOCountersStat, error)
	// Partitions lists mounted physical partitions.
	Partitions(ctx context.Context) ([]disk.PartitionStat, error)
	DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error)
	Hostname(ctx context.Context) (string, error)
}

// hostSource reads the local host through gopsutil.
type hostSource struct{}

// NewHostSource returns a Source backed by the running host.
func NewHostSource() Source {
	return hostSource{}
}

func (hostSource) CPUTimes(ctx context.Context) (cpu.TimesStat, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return cpu.TimesStat{}, err
	}
	if len(times) == 0 {
		return cpu.TimesStat{}, fmt.Errorf("cpu times: %w", ErrNoCounters)
	}
	return times[0], nil
}

func (hostSource) CPUCount(ctx context.Context) (int, error) {
	return cpu.CountsWithContext(ctx, true)
}

func (hostSource) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (hostSource) SwapMemory(ctx context.Context) (*mem.SwapMemoryStat, error) {
	return mem.SwapMemoryWithContext(ctx)
}

func (hostSource) NetCounters(ctx context.Context) (psnet.IOCountersStat, error) {
	stats, err := psnet.IOCountersWithContext(ctx, false) // aggregate all interfaces
	if err != nil {
		return psnet.IOCountersStat{}, err
	}
	if len(stats) == 0 {
		return psnet.IOCountersStat{}, fmt.Errorf("net io counters: %w", ErrNoCounters)
	}
	return stats[0], nil
}

func (hostSource) Partitions(ctx context.Context) ([]disk.PartitionStat, error) {
	return disk.PartitionsWithContext(ctx, false)
}

func (hostSource) DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}

// Hostname returns the kernel node name.
func (hostSource) Hostname(context.Context) (string, error) {
	return os.Hostname()
}
