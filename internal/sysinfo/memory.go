package sysinfo

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/mem"
)

type MemoryInfo struct {
	RAM  RAMStats  `json:"ram"`
	Swap SwapStats `json:"swap"`
}

type RAMStats struct {
	Total       uint64  `json:"total"`
	Available   uint64  `json:"available"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	Percent     float64 `json:"percent"`
	TotalGB     float64 `json:"total_gb"`
	AvailableGB float64 `json:"available_gb"`
}

type SwapStats struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
	TotalGB float64 `json:"total_gb"`
}

func (m *Monitor) MemoryInfo(ctx context.Context) (*MemoryInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read virtual memory: %w", err)
	}
	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read swap memory: %w", err)
	}

	return &MemoryInfo{
		RAM: RAMStats{
			Total:       vm.Total,
			Available:   vm.Available,
			Used:        vm.Used,
			Free:        vm.Free,
			Percent:     round(vm.UsedPercent, 1),
			TotalGB:     toGB(vm.Total),
			AvailableGB: toGB(vm.Available),
		},
		Swap: SwapStats{
			Total:   swap.Total,
			Used:    swap.Used,
			Free:    swap.Free,
			Percent: round(swap.UsedPercent, 1),
			TotalGB: toGB(swap.Total),
		},
	}, nil
}
