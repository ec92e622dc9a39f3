package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
)

const frequencyUnavailable = "CPU frequency not available in this environment"

type CPUUsage struct {
	TotalPercent  float64      `json:"total_percent"`
	PerCPUPercent []float64    `json:"per_cpu_percent"`
	Frequency     CPUFrequency `json:"frequency"`
	// LoadAverage is the 1, 5 and 15 minute load, nil where unsupported.
	LoadAverage []float64 `json:"load_average"`
}

// CPUFrequency is reported in MHz.
type CPUFrequency struct {
	Current *float64 `json:"current"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Note    string   `json:"note,omitempty"`
}

var errNegativeInterval = errors.New("interval must not be negative")

// CPUUsage samples CPU utilisation over interval. The call blocks for the
// whole interval.
func (m *Monitor) CPUUsage(ctx context.Context, interval time.Duration) (*CPUUsage, error) {
	if interval < 0 {
		return nil, errNegativeInterval
	}

	m.logger.Debug().Dur("interval", interval).Msg("Sampling CPU usage")

	perCPU, err := cpu.PercentWithContext(ctx, interval, true)
	if err != nil {
		return nil, fmt.Errorf("failed to sample CPU usage: %w", err)
	}

	return &CPUUsage{
		TotalPercent:  round(mean(perCPU), 1),
		PerCPUPercent: perCPU,
		Frequency:     m.cpuFrequency(ctx),
		LoadAverage:   m.loadAverage(ctx),
	}, nil
}

func (m *Monitor) cpuFrequency(ctx context.Context) CPUFrequency {
	infos, err := cpu.InfoWithContext(ctx)
	if err != nil || len(infos) == 0 || infos[0].Mhz == 0 {
		m.logger.Debug().Err(err).Msg("CPU frequency not available")
		return CPUFrequency{Note: frequencyUnavailable}
	}

	current := infos[0].Mhz
	lowest, highest := current, current
	for _, info := range infos[1:] {
		if info.Mhz < lowest {
			lowest = info.Mhz
		}
		if info.Mhz > highest {
			highest = info.Mhz
		}
	}
	return CPUFrequency{Current: &current, Min: &lowest, Max: &highest}
}

func (m *Monitor) loadAverage(ctx context.Context) []float64 {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Msg("Load average not available")
		return nil
	}
	return []float64{avg.Load1, avg.Load5, avg.Load15}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
