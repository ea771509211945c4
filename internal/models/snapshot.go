// Package models defines the JSON snapshot documents served by HostProbe.
package models

// ResourceSnapshot is a point-in-time view of host utilization.
// A fresh value is built for every request and discarded after encoding.
type ResourceSnapshot struct {
	DeviceName string               `json:"device_name"`
	CPU        CpuStats             `json:"cpu"`
	Memory     MemoryStats          `json:"memory"`
	Network    NetworkStats         `json:"network"`
	Disk       []DiskPartitionStats `json:"disk"`
}

// CpuStats reports busy percentage over the sampling window.
type CpuStats struct {
	Usage float64 `json:"usage"` // percent 0-100
	Count int     `json:"count"` // logical CPUs
	Error string  `json:"error,omitempty"`
}

// MemoryStats reports virtual memory in whole megabytes.
type MemoryStats struct {
	Total     uint64  `json:"total"`
	Used      uint64  `json:"used"`
	Available uint64  `json:"available"`
	Usage     float64 `json:"usage"`      // percent 0-100
	SwapUsage float64 `json:"swap_usage"` // percent 0-100
	Error     string  `json:"error,omitempty"`
}

// NetworkStats holds cumulative counters since boot, summed over all interfaces.
type NetworkStats struct {
	BytesSent      uint64 `json:"bytes_sent"` // MB
	BytesRecv      uint64 `json:"bytes_recv"` // MB
	PacketsSent    uint64 `json:"packets_sent"`
	PacketsRecv    uint64 `json:"packets_recv"`
	PacketsDropIn  uint64 `json:"packets_dropin"`
	PacketsDropOut uint64 `json:"packets_dropout"`
	Error          string `json:"error,omitempty"`
}

// DiskPartitionStats describes one mounted partition, sizes in whole megabytes.
type DiskPartitionStats struct {
	Name  string  `json:"name"` // mount point
	Total uint64  `json:"total"`
	Used  uint64  `json:"used"`
	Free  uint64  `json:"free"`
	Usage float64 `json:"usage"` // percent 0-100
}

// BytesPerMB is the divisor used for every megabyte figure.
const BytesPerMB = 1024 * 1024

// ToMB truncates a byte count to whole megabytes.
func ToMB(b uint64) uint64 {
	return b / BytesPerMB
}
