package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemProducer reports host resource usage
type SystemProducer struct {
	diskPath string

	cpuPercent func(ctx context.Context) (float64, error)
	memory     func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	loadAvg    func(ctx context.Context) (*load.AvgStat, error)
	diskUsage  func(ctx context.Context, path string) (*disk.UsageStat, error)
	uptime     func(ctx context.Context) (uint64, error)
}

// NewSystemProducer creates a producer backed by gopsutil
func NewSystemProducer(diskPath string) *SystemProducer {
	if diskPath == "" {
		diskPath = "/"
	}

	return &SystemProducer{
		diskPath:   diskPath,
		cpuPercent: totalCPUPercent,
		memory:     mem.VirtualMemoryWithContext,
		loadAvg:    load.AvgWithContext,
		diskUsage:  disk.UsageWithContext,
		uptime:     host.UptimeWithContext,
	}
}

type systemStats struct {
	Name          string   `json:"name,omitempty"`
	CPUPercent    float64  `json:"cpu_percent"`
	MemoryPercent float64  `json:"memory_percent"`
	MemoryTotal   uint64   `json:"memory_total"`
	MemoryFree    uint64   `json:"memory_available"`
	Load1         *float64 `json:"load1,omitempty"`
	Load5         *float64 `json:"load5,omitempty"`
	Load15        *float64 `json:"load15,omitempty"`
	DiskPercent   *float64 `json:"disk_percent,omitempty"`
	UptimeSeconds uint64   `json:"uptime_seconds,omitempty"`
}

// Produce samples cpu and memory, plus load, disk and uptime where the platform supports them
func (p *SystemProducer) Produce(ctx context.Context, name string) (string, error) {
	cpuPct, err := p.cpuPercent(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read cpu usage: %w", err)
	}

	vm, err := p.memory(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read memory usage: %w", err)
	}

	stats := systemStats{
		Name:          name,
		CPUPercent:    cpuPct,
		MemoryPercent: vm.UsedPercent,
		MemoryTotal:   vm.Total,
		MemoryFree:    vm.Available,
	}

	// Optional readings, not available on every platform
	if avg, err := p.loadAvg(ctx); err == nil && avg != nil {
		stats.Load1, stats.Load5, stats.Load15 = &avg.Load1, &avg.Load5, &avg.Load15
	}
	if du, err := p.diskUsage(ctx, p.diskPath); err == nil && du != nil {
		stats.DiskPercent = &du.UsedPercent
	}
	if up, err := p.uptime(ctx); err == nil {
		stats.UptimeSeconds = up
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return "", fmt.Errorf("failed to encode system stats: %w", err)
	}

	return string(data), nil
}

func totalCPUPercent(ctx context.Context) (float64, error) {
	// interval 0 compares against the previous call instead of sleeping
	pcts, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, fmt.Errorf("no cpu samples")
	}
	return pcts[0], nil
}
