package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/disk"
)

// DiskUsage reports one partition. Figures are absent when the partition
// could not be read, in which case Error says why.
type DiskUsage struct {
	Device     string `json:"device"`
	Mountpoint string `json:"mountpoint"`
	*DiskFigures
	Error string `json:"error,omitempty"`
}

type DiskFigures struct {
	Filesystem string  `json:"filesystem"`
	Total      uint64  `json:"total"`
	Used       uint64  `json:"used"`
	Free       uint64  `json:"free"`
	Percent    float64 `json:"percent"`
	TotalGB    float64 `json:"total_gb"`
	FreeGB     float64 `json:"free_gb"`
}

// DiskUsage lists usage for every mounted physical partition.
func (m *Monitor) DiskUsage(ctx context.Context) ([]DiskUsage, error) {
	partitions, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	usages := make([]DiskUsage, 0, len(partitions))
	for _, partition := range partitions {
		entry := DiskUsage{
			Device:     partition.Device,
			Mountpoint: partition.Mountpoint,
		}

		usage, err := disk.UsageWithContext(ctx, partition.Mountpoint)
		if err != nil {
			m.logger.Debug().Err(err).Str("mountpoint", partition.Mountpoint).Msg("Partition usage not readable")
			entry.Error = describeDiskError(err)
			usages = append(usages, entry)
			continue
		}

		entry.DiskFigures = &DiskFigures{
			Filesystem: partition.Fstype,
			Total:      usage.Total,
			Used:       usage.Used,
			Free:       usage.Free,
			Percent:    round(usage.UsedPercent, 1),
			TotalGB:    toGB(usage.Total),
			FreeGB:     toGB(usage.Free),
		}
		usages = append(usages, entry)
	}
	return usages, nil
}

func describeDiskError(err error) string {
	if errors.Is(err, os.ErrPermission) {
		return "Permission denied"
	}
	return err.Error()
}
