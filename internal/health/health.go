// Package health reports on the database and the optional backing
// services, plus host resource usage for the detailed probe.
package health

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Check returns nil when a dependency is reachable.
type Check func(ctx context.Context) error

type HealthChecker struct {
	db       Check
	optional map[string]Check
	started  time.Time
}

type HealthStatus struct {
	Status       string                      `json:"status"`
	Database     DependencyHealth            `json:"database"`
	Dependencies map[string]DependencyHealth `json:"dependencies,omitempty"`
}

type DependencyHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type DetailedStatus struct {
	HealthStatus
	Uptime     string    `json:"uptime"`
	Goroutines int       `json:"goroutines"`
	Host       HostStats `json:"host"`
}

type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
	DiskPercent   float64 `json:"disk_percent"`
}

func NewHealthChecker(db Check) *HealthChecker {
	return &HealthChecker{db: db, optional: map[string]Check{}, started: time.Now()}
}

// AddOptional registers a dependency whose failure degrades the service
// without making it unhealthy.
func (h *HealthChecker) AddOptional(name string, check Check) {
	h.optional[name] = check
}

func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:   StatusHealthy,
		Database: probe(ctx, h.db),
	}
	if status.Database.Status != StatusHealthy {
		status.Status = StatusUnhealthy
	}

	if len(h.optional) > 0 {
		status.Dependencies = make(map[string]DependencyHealth, len(h.optional))
		names := make([]string, 0, len(h.optional))
		for name := range h.optional {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			dep := probe(ctx, h.optional[name])
			status.Dependencies[name] = dep
			if dep.Status != StatusHealthy && status.Status == StatusHealthy {
				status.Status = StatusDegraded
			}
		}
	}
	return status
}

// CheckDetailed adds host CPU, memory and disk usage. Samples that fail to
// read are reported as zero.
func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	detailed := DetailedStatus{
		HealthStatus: h.CheckBasic(ctx),
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Goroutines:   runtime.NumGoroutine(),
	}

	if cpuPercents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		detailed.Host.CPUPercent = round1(cpuPercents[0])
	}
	if memStats, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		detailed.Host.MemoryUsed = formatBytes(memStats.Used)
		detailed.Host.MemoryTotal = formatBytes(memStats.Total)
		detailed.Host.MemoryPercent = round1(memStats.UsedPercent)
	}
	if diskStats, err := disk.UsageWithContext(ctx, "/"); err == nil {
		detailed.Host.DiskUsed = formatBytes(diskStats.Used)
		detailed.Host.DiskTotal = formatBytes(diskStats.Total)
		detailed.Host.DiskPercent = round1(diskStats.UsedPercent)
	}
	return detailed
}

func probe(ctx context.Context, check Check) DependencyHealth {
	if check == nil {
		return DependencyHealth{Status: StatusUnhealthy}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DependencyHealth{Status: StatusUnhealthy, ResponseTime: responseTime}
	}
	return DependencyHealth{Status: StatusHealthy, ResponseTime: responseTime}
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
