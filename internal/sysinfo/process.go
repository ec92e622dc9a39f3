package sysinfo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

type ProcessSummary struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Status        string  `json:"status"`
}

// ListProcesses returns up to limit processes ordered by sortBy ("cpu" and
// "memory" descending, "name" ascending). Other sort keys keep the order
// reported by the OS. Processes that exit or deny access while being read
// are skipped.
func (m *Monitor) ListProcesses(ctx context.Context, sortBy string, limit int) ([]ProcessSummary, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	summaries := make([]ProcessSummary, 0, len(procs))
	skipped := 0
	for _, p := range procs {
		summary, err := summarizeProcess(ctx, p)
		if err != nil {
			skipped++
			continue
		}
		summaries = append(summaries, summary)
	}

	m.logger.Debug().
		Int("processes", len(summaries)).
		Int("skipped", skipped).
		Str("sort_by", sortBy).
		Msg("Processes listed")

	sortProcesses(summaries, sortBy)
	return limitProcesses(summaries, limit), nil
}

func summarizeProcess(ctx context.Context, p *process.Process) (ProcessSummary, error) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return ProcessSummary{}, err
	}

	// CPU and memory figures are best effort, as for a process we may not inspect.
	cpuPercent, _ := p.CPUPercentWithContext(ctx)
	memPercent, _ := p.MemoryPercentWithContext(ctx)

	return ProcessSummary{
		PID:           p.Pid,
		Name:          name,
		CPUPercent:    round(cpuPercent, 1),
		MemoryPercent: round(float64(memPercent), 2),
		Status:        processStatus(ctx, p),
	}, nil
}

func processStatus(ctx context.Context, p *process.Process) string {
	status, err := p.StatusWithContext(ctx)
	if err != nil || len(status) == 0 {
		return "unknown"
	}
	return status[0]
}

func sortProcesses(procs []ProcessSummary, sortBy string) {
	switch sortBy {
	case "cpu":
		sort.SliceStable(procs, func(i, j int) bool { return procs[i].CPUPercent > procs[j].CPUPercent })
	case "memory":
		sort.SliceStable(procs, func(i, j int) bool { return procs[i].MemoryPercent > procs[j].MemoryPercent })
	case "name":
		sort.SliceStable(procs, func(i, j int) bool {
			return strings.ToLower(procs[i].Name) < strings.ToLower(procs[j].Name)
		})
	}
}

// limitProcesses truncates to limit entries. A negative limit drops that
// many entries from the end.
func limitProcesses(procs []ProcessSummary, limit int) []ProcessSummary {
	if limit < 0 {
		limit += len(procs)
		if limit < 0 {
			limit = 0
		}
	}
	if limit < len(procs) {
		return procs[:limit]
	}
	return procs
}

type KillResult struct {
	Success bool   `json:"success"`
	PID     int    `json:"pid"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// KillProcess sends SIGTERM to pid, or SIGKILL when force is set. Failures
// are reported in the result rather than as an error.
func (m *Monitor) KillProcess(ctx context.Context, pid int, force bool) *KillResult {
	log := m.logger.With().Int("pid", pid).Bool("force", force).Logger()

	if !validPID(pid) {
		return &KillResult{PID: pid, Error: fmt.Sprintf("Invalid PID %d", pid)}
	}

	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return &KillResult{PID: pid, Error: fmt.Sprintf("No process found with PID %d", pid)}
	}

	name, err := p.NameWithContext(ctx)
	if err != nil {
		return &KillResult{PID: pid, Error: describeProcessError(err, pid, "Access denied to terminate process %d")}
	}

	if force {
		err = p.KillWithContext(ctx)
	} else {
		err = p.TerminateWithContext(ctx)
	}
	if err != nil {
		log.Warn().Err(err).Str("name", name).Msg("Failed to signal process")
		return &KillResult{PID: pid, Error: describeProcessError(err, pid, "Access denied to terminate process %d")}
	}

	log.Info().Str("name", name).Msg("Process signalled")
	return &KillResult{
		Success: true,
		PID:     pid,
		Name:    name,
		Message: fmt.Sprintf("Process %d (%s) terminated successfully", pid, name),
	}
}

type ProcessDetails struct {
	PID        int           `json:"pid"`
	Name       string        `json:"name"`
	Status     string        `json:"status"`
	CreateTime string        `json:"create_time"`
	CPUPercent float64       `json:"cpu_percent"`
	MemoryInfo ProcessMemory `json:"memory_info"`
	NumThreads int32         `json:"num_threads"`
	PPID       int32         `json:"ppid"`
	Cmdline    []string      `json:"cmdline"`
	Cwd        *string       `json:"cwd"`
	Username   *string       `json:"username"`
}

type ProcessMemory struct {
	RSS     uint64  `json:"rss"`
	VMS     uint64  `json:"vms"`
	Percent float64 `json:"percent"`
}

// ToolError is the result shape of a tool that failed in a way the caller
// should see as data.
type ToolError struct {
	Error string `json:"error"`
}

// ProcessInfo returns *ProcessDetails, or a ToolError when the process does
// not exist or cannot be inspected.
func (m *Monitor) ProcessInfo(ctx context.Context, pid int) interface{} {
	if !validPID(pid) {
		return ToolError{Error: fmt.Sprintf("No process found with PID %d", pid)}
	}

	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return ToolError{Error: fmt.Sprintf("No process found with PID %d", pid)}
	}

	details, err := m.processDetails(ctx, p)
	if err != nil {
		m.logger.Debug().Err(err).Int("pid", pid).Msg("Failed to inspect process")
		return ToolError{Error: describeProcessError(err, pid, "Access denied to process %d")}
	}
	return details
}

func (m *Monitor) processDetails(ctx context.Context, p *process.Process) (*ProcessDetails, error) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return nil, err
	}
	created, err := p.CreateTimeWithContext(ctx)
	if err != nil {
		return nil, err
	}
	memInfo, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return nil, err
	}
	memPercent, err := p.MemoryPercentWithContext(ctx)
	if err != nil {
		return nil, err
	}
	cpuPercent, err := p.PercentWithContext(ctx, m.opts.ProcessCPUInterval)
	if err != nil {
		return nil, err
	}

	threads, _ := p.NumThreadsWithContext(ctx)
	ppid, _ := p.PpidWithContext(ctx)
	cmdline, _ := p.CmdlineSliceWithContext(ctx)
	if cmdline == nil {
		cmdline = []string{}
	}

	return &ProcessDetails{
		PID:        int(p.Pid),
		Name:       name,
		Status:     processStatus(ctx, p),
		CreateTime: time.UnixMilli(created).Format(time.RFC3339),
		CPUPercent: round(cpuPercent, 1),
		MemoryInfo: ProcessMemory{
			RSS:     memInfo.RSS,
			VMS:     memInfo.VMS,
			Percent: round(float64(memPercent), 2),
		},
		NumThreads: threads,
		PPID:       ppid,
		Cmdline:    cmdline,
		Cwd:        optionalString(p.CwdWithContext(ctx)),
		Username:   optionalString(p.UsernameWithContext(ctx)),
	}, nil
}

func optionalString(value string, err error) *string {
	if err != nil {
		return nil
	}
	return &value
}

// validPID rejects values that would address process groups or overflow.
func validPID(pid int) bool {
	return pid > 0 && pid <= math.MaxInt32
}

func describeProcessError(err error, pid int, deniedFormat string) string {
	switch {
	case errors.Is(err, process.ErrorProcessNotRunning), errors.Is(err, os.ErrNotExist):
		return fmt.Sprintf("No process found with PID %d", pid)
	case errors.Is(err, os.ErrPermission):
		return fmt.Sprintf(deniedFormat, pid)
	default:
		return err.Error()
	}
}
