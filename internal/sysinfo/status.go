package sysinfo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

type statusSnapshot struct {
	CPUPercent  float64
	MemPercent  float64
	MemUsed     uint64
	MemTotal    uint64
	DiskPercent float64
	DiskUsed    uint64
	DiskTotal   uint64
	Uptime      time.Duration
	Processes   int
}

// Status renders the plain-text overview served at system://status.
func (m *Monitor) Status(ctx context.Context) (string, error) {
	snapshot, err := m.statusSnapshot(ctx)
	if err != nil {
		return "", err
	}
	return renderStatus(snapshot), nil
}

func (m *Monitor) statusSnapshot(ctx context.Context) (statusSnapshot, error) {
	var s statusSnapshot

	total, err := cpu.PercentWithContext(ctx, m.opts.StatusCPUInterval, false)
	if err != nil {
		return s, fmt.Errorf("failed to sample CPU usage: %w", err)
	}
	if len(total) > 0 {
		s.CPUPercent = total[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("failed to read virtual memory: %w", err)
	}
	s.MemPercent, s.MemUsed, s.MemTotal = vm.UsedPercent, vm.Used, vm.Total

	usage, err := disk.UsageWithContext(ctx, m.opts.StatusDiskPath)
	if err != nil {
		return s, fmt.Errorf("failed to read disk usage of %s: %w", m.opts.StatusDiskPath, err)
	}
	s.DiskPercent, s.DiskUsed, s.DiskTotal = usage.UsedPercent, usage.Used, usage.Total

	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("failed to read uptime: %w", err)
	}
	s.Uptime = time.Duration(uptime) * time.Second

	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("failed to list processes: %w", err)
	}
	s.Processes = len(pids)

	return s, nil
}

func renderStatus(s statusSnapshot) string {
	var b strings.Builder
	b.WriteString("System Status Overview\n")
	b.WriteString("=====================\n")
	fmt.Fprintf(&b, "CPU Usage: %.1f%%\n", s.CPUPercent)
	fmt.Fprintf(&b, "Memory: %.1f%% used (%.1f GB / %.1f GB)\n",
		s.MemPercent, float64(s.MemUsed)/bytesPerGB, float64(s.MemTotal)/bytesPerGB)
	fmt.Fprintf(&b, "Disk: %.1f%% used (%.1f GB / %.1f GB)\n",
		s.DiskPercent, float64(s.DiskUsed)/bytesPerGB, float64(s.DiskTotal)/bytesPerGB)
	fmt.Fprintf(&b, "Uptime: %s\n", formatUptime(s.Uptime))
	fmt.Fprintf(&b, "Processes: %d\n", s.Processes)
	return b.String()
}

// formatUptime renders d as "N days, H:MM:SS", omitting the day part when
// it is zero.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	clock := fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	switch days {
	case 0:
		return clock
	case 1:
		return "1 day, " + clock
	default:
		return fmt.Sprintf("%d days, %s", days, clock)
	}
}
