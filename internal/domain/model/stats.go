package model

// SystemStats is a snapshot of host and account statistics.
type SystemStats struct {
	Host              HostStats
	IncomingBandwidth uint64 // total bytes received by the core
	OutgoingBandwidth uint64
	TotalUsers        int
	UsersByStatus     map[AccountStatus]int
}

// HostStats is the part of SystemStats read from the host.
type HostStats struct {
	CPUCores            int
	CPUUsage            float64 // percent
	MemTotal            uint64
	MemUsed             uint64
	IncomingBytesPerSec uint64
	OutgoingBytesPerSec uint64
}

// Usage is the core-wide bandwidth counter.
type Usage struct {
	Uplink   uint64
	Downlink uint64
}
