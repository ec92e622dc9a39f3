package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iafnetworkspa/sysmon-mcp/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		ServerName:     "SystemMonitor",
		LogLevel:       "info",
		LogFormat:      config.LogFormatJSON,
		StatusDiskPath: "/",
		EnableKill:     false,
	}
}

func TestSetupLogger_JSON(t *testing.T) {
	previous, previousLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(previousLevel)
	})

	var buf bytes.Buffer
	setupLogger(testConfig(), &buf)
	log.Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.NotEmpty(t, entry["instance"])
}

func TestSetupLogger_Level(t *testing.T) {
	previous, previousLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = previous
		zerolog.SetGlobalLevel(previousLevel)
	})

	cfg := testConfig()
	cfg.LogLevel = "error"

	var buf bytes.Buffer
	setupLogger(cfg, &buf)
	log.Info().Msg("suppressed")
	assert.Empty(t, buf.String())
}

func TestNewServer_ServesMonitorTools(t *testing.T) {
	server := newServer(testConfig())

	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
	}, "\n")
	var out bytes.Buffer
	require.NoError(t, server.Serve(context.Background(), strings.NewReader(input), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var initialize struct {
		Result struct {
			ServerInfo struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &initialize))
	assert.Equal(t, "SystemMonitor", initialize.Result.ServerInfo.Name)
	assert.Equal(t, "1.0.0", initialize.Result.ServerInfo.Version)

	var tools struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &tools))
	assert.Len(t, tools.Result.Tools, 7)

	assert.Contains(t, lines[2], `"uri":"system://status"`)
}

func TestLoadConfig_FlagOverride(t *testing.T) {
	t.Setenv("SYSMON_LOG_LEVEL", "")

	cfg, err := loadConfig("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())

	_, err = loadConfig("chatty")
	assert.Error(t, err)
}
