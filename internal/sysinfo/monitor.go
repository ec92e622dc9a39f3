// Package sysinfo collects host metrics and exposes them as MCP tools and
// resources.
package sysinfo

import (
	"context"
	"math"
	"time"

	"github.com/iafnetworkspa/sysmon-mcp/internal/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const bytesPerGB = 1024 * 1024 * 1024

// StatusURI is the resource serving the plain-text status overview.
const StatusURI = "system://status"

// Options tunes the collectors.
type Options struct {
	// StatusCPUInterval is the CPU sampling window of the status overview.
	StatusCPUInterval time.Duration
	// StatusDiskPath is the filesystem summarized by the status overview.
	StatusDiskPath string
	// ProcessCPUInterval is the CPU sampling window of get_process_info.
	ProcessCPUInterval time.Duration
	// EnableKill registers the kill_process tool.
	EnableKill bool
}

// Monitor gathers system metrics on demand. It keeps no state between calls.
type Monitor struct {
	opts   Options
	logger zerolog.Logger
}

func NewMonitor(opts Options) *Monitor {
	if opts.StatusDiskPath == "" {
		opts.StatusDiskPath = "/"
	}
	return &Monitor{
		opts:   opts,
		logger: log.With().Str("component", "sysinfo").Logger(),
	}
}

type noArgs struct{}

type CPUUsageArgs struct {
	Interval float64 `json:"interval" jsonschema:"default=1.0" jsonschema_description:"Time interval in seconds for measuring CPU usage"`
}

type ListProcessesArgs struct {
	SortBy string `json:"sort_by" jsonschema:"default=cpu" jsonschema_description:"Sort order: cpu, memory or name"`
	Limit  int    `json:"limit" jsonschema:"default=20" jsonschema_description:"Maximum number of processes to return"`
}

type KillProcessArgs struct {
	PID   int  `json:"pid" jsonschema_description:"Process ID to terminate"`
	Force bool `json:"force" jsonschema:"default=false" jsonschema_description:"Send SIGKILL instead of SIGTERM"`
}

type ProcessInfoArgs struct {
	PID int `json:"pid" jsonschema_description:"Process ID to inspect"`
}

// Tools returns the monitoring tools in the order they are advertised.
func (m *Monitor) Tools() []mcp.ToolEntry {
	tools := []mcp.ToolEntry{
		mcp.NewTool("get_system_info",
			"Get comprehensive system information including OS, hardware, and environment.",
			func(ctx context.Context, _ noArgs) (interface{}, error) {
				return m.SystemInfo(ctx)
			}),
		mcp.NewTool("get_cpu_usage",
			"Get current CPU usage statistics.",
			func(ctx context.Context, args CPUUsageArgs) (interface{}, error) {
				return m.CPUUsage(ctx, secondsToDuration(args.Interval))
			}),
		mcp.NewTool("get_memory_info",
			"Get memory (RAM and swap) usage statistics.",
			func(ctx context.Context, _ noArgs) (interface{}, error) {
				return m.MemoryInfo(ctx)
			}),
		mcp.NewTool("get_disk_usage",
			"Get disk usage information for all mounted partitions.",
			func(ctx context.Context, _ noArgs) (interface{}, error) {
				return m.DiskUsage(ctx)
			}),
		mcp.NewTool("list_processes",
			"List running processes sorted by resource usage.",
			func(ctx context.Context, args ListProcessesArgs) (interface{}, error) {
				return m.ListProcesses(ctx, args.SortBy, args.Limit)
			}),
	}

	if m.opts.EnableKill {
		tools = append(tools, mcp.NewTool("kill_process",
			"Terminate a process by its PID.",
			func(ctx context.Context, args KillProcessArgs) (interface{}, error) {
				return m.KillProcess(ctx, args.PID, args.Force), nil
			}))
	}

	return append(tools,
		mcp.NewTool("get_network_stats",
			"Get network interface statistics and connections.",
			func(ctx context.Context, _ noArgs) (interface{}, error) {
				return m.NetworkStats(ctx)
			}),
		mcp.NewTool("get_process_info",
			"Get detailed information about a specific process.",
			func(ctx context.Context, args ProcessInfoArgs) (interface{}, error) {
				return m.ProcessInfo(ctx, args.PID), nil
			}),
	)
}

// Resources returns the monitoring resources.
func (m *Monitor) Resources() []mcp.ResourceEntry {
	return []mcp.ResourceEntry{
		mcp.NewResource(StatusURI, "Get a comprehensive system status overview.", m.Status),
	}
}

// Register adds all tools and resources of the monitor to the registries.
func (m *Monitor) Register(tools *mcp.ToolRegistry, resources *mcp.ResourceRegistry) {
	tools.Register(m.Tools()...)
	resources.Register(m.Resources()...)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func toGB(bytes uint64) float64 {
	return round(float64(bytes)/bytesPerGB, 2)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
