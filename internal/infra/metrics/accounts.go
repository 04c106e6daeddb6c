package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"proxy-admin-bot/internal/domain/model"
)

func init() {
	register(
		accountsTotal,
		hostCPUUsage,
		hostMemUsedBytes,
	)
}

var (
	accountsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "accounts_total",
			Help: "Current number of proxy accounts by status.",
		},
		[]string{"status"},
	)

	hostCPUUsage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "host_cpu_usage_percent",
			Help: "CPU usage of the host running the core.",
		},
	)

	hostMemUsedBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "host_memory_used_bytes",
			Help: "Memory in use on the host running the core.",
		},
	)
)

func SetAccountsTotal(counts map[model.AccountStatus]int) {
	for _, status := range model.AllStatuses {
		accountsTotal.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}

func SetHostStats(h model.HostStats) {
	hostCPUUsage.Set(h.CPUUsage)
	hostMemUsedBytes.Set(float64(h.MemUsed))
}
