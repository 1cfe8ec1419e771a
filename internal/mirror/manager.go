// Package mirror reads, merges, and rewrites the mirror configuration of
// external tools (uv's package index list, Docker's registry mirrors) for a
// resolved network region, preserving unrelated settings in each file.
//
// Writes are atomic at the file level (write-to-temp then rename) but take
// no cross-process lock: concurrent invocations against the same file are
// last-writer-wins.
package mirror

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/missionpack/regionctl/internal/config"
	"github.com/missionpack/regionctl/internal/region"
)

// Tool names used as keys in UpdateAll results.
const (
	ToolUV     = "uv"
	ToolDocker = "docker"
)

// Manager applies mirror configuration for one already-resolved region.
type Manager struct {
	cfg    *config.Config
	region region.Region
	logger *slog.Logger

	uvConfigPath           string
	dockerConfigPath       string
	systemDockerConfigPath string
	pipConfigCmd           []string
}

// NewManager creates a Manager targeting the current user's tool configs.
func NewManager(cfg *config.Config, r region.Region, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:                    cfg,
		region:                 r,
		logger:                 logger,
		systemDockerConfigPath: "/etc/docker/daemon.json",
		pipConfigCmd:           []string{"pip", "config", "list"},
	}
	if home, err := os.UserHomeDir(); err == nil {
		m.uvConfigPath = filepath.Join(home, ".config", "uv", "uv.toml")
		m.dockerConfigPath = filepath.Join(home, ".docker", "config.json")
	} else {
		logger.Warn("cannot resolve home directory", "error", err)
	}
	return m
}

// Region returns the region this manager was resolved for.
func (m *Manager) Region() region.Region {
	return m.region
}

// UpdateAll runs both writers independently. A failure in one tool never
// blocks the other; each failure is logged and reported as false in the
// result map, keyed by tool name.
func (m *Manager) UpdateAll() map[string]bool {
	results := map[string]bool{ToolUV: true, ToolDocker: true}

	if err := m.UpdateUV(); err != nil {
		m.logger.Error("failed to update uv mirror", "error", err)
		results[ToolUV] = false
	}
	if err := m.UpdateDocker(); err != nil {
		m.logger.Error("failed to update docker mirror", "error", err)
		results[ToolDocker] = false
	}

	m.logger.Info("mirror update finished", "uv", results[ToolUV], "docker", results[ToolDocker])
	return results
}
