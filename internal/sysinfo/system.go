package sysinfo

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
)

type SystemInfo struct {
	OS        OSInfo   `json:"os"`
	GoVersion string   `json:"go_version"`
	Hostname  string   `json:"hostname"`
	BootTime  string   `json:"boot_time"`
	CPUCount  CPUCount `json:"cpu_count"`
}

type OSInfo struct {
	System    string `json:"system"`
	Platform  string `json:"platform"`
	Release   string `json:"release"`
	Version   string `json:"version"`
	Machine   string `json:"machine"`
	Processor string `json:"processor"`
}

// CPUCount holds nil counts when the platform cannot report them.
type CPUCount struct {
	Physical *int `json:"physical"`
	Logical  *int `json:"logical"`
}

// SystemInfo describes the host operating system and hardware.
func (m *Monitor) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read host info: %w", err)
	}

	machine := info.KernelArch
	if machine == "" {
		machine = runtime.GOARCH
	}

	return &SystemInfo{
		OS: OSInfo{
			System:    info.OS,
			Platform:  info.Platform,
			Release:   info.KernelVersion,
			Version:   info.PlatformVersion,
			Machine:   machine,
			Processor: m.processorModel(ctx),
		},
		GoVersion: runtime.Version(),
		Hostname:  info.Hostname,
		BootTime:  time.Unix(int64(info.BootTime), 0).Format(time.RFC3339),
		CPUCount: CPUCount{
			Physical: m.cpuCount(ctx, false),
			Logical:  m.cpuCount(ctx, true),
		},
	}, nil
}

func (m *Monitor) processorModel(ctx context.Context) string {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 {
		m.logger.Debug().Err(err).Msg("CPU model not available")
		return ""
	}
	return infos[0].ModelName
}

func (m *Monitor) cpuCount(ctx context.Context, logical bool) *int {
	n, err := cpu.CountsWithContext(ctx, logical)
	if err != nil || n == 0 {
		m.logger.Debug().Err(err).Bool("logical", logical).Msg("CPU count not available")
		return nil
	}
	return &n
}
