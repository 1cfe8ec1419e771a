// Package installer provides the Docker install command tables per
// operating system and network region, plus helpers to check for an
// existing installation and run the selected commands.
package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/missionpack/regionctl/internal/region"
)

// ErrUnsupportedPlatform indicates no install command set exists for the
// host operating system.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// installCommands maps GOOS and region to the install command sequence. The
// unknown region uses the china commands, matching the detection bias: when
// in doubt, prefer the setup that works behind the restricted network.
var installCommands = map[string]map[region.Region][]string{
	"darwin": {
		region.China:   {"brew install --cask docker"},
		region.Global:  {"brew install --cask docker"},
		region.Unknown: {"brew install --cask docker"},
	},
	"linux": {
		region.China: {
			"curl -fsSL https://get.docker.com -o get-docker.sh",
			"sed -i 's/download.docker.com/mirrors.aliyun.com\\/docker-ce/g' get-docker.sh",
			"sh get-docker.sh",
			"rm get-docker.sh",
			"sudo systemctl enable docker",
			"sudo systemctl start docker",
		},
		region.Global: {
			"curl -fsSL https://get.docker.com -o get-docker.sh",
			"sh get-docker.sh",
			"rm get-docker.sh",
			"sudo systemctl enable docker",
			"sudo systemctl start docker",
		},
		region.Unknown: {
			"curl -fsSL https://get.docker.com -o get-docker.sh",
			"sed -i 's/download.docker.com/mirrors.aliyun.com\\/docker-ce/g' get-docker.sh",
			"sh get-docker.sh",
			"rm get-docker.sh",
			"sudo systemctl enable docker",
			"sudo systemctl start docker",
		},
	},
	"windows": {
		region.China: {
			"echo Download Docker Desktop from https://mirrors.aliyun.com/docker-toolbox/windows/docker-desktop/",
			"echo After installing, configure a registry mirror per https://developer.aliyun.com/article/1294592",
		},
		region.Global: {
			"echo Download Docker Desktop from https://www.docker.com/products/docker-desktop/",
		},
		region.Unknown: {
			"echo Download Docker Desktop from https://mirrors.aliyun.com/docker-toolbox/windows/docker-desktop/",
			"echo After installing, configure a registry mirror per https://developer.aliyun.com/article/1294592",
		},
	},
}

// Commands returns the install command sequence for an operating system and
// region.
func Commands(goos string, r region.Region) ([]string, error) {
	byRegion, ok := installCommands[goos]
	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: darwin, linux, windows)", ErrUnsupportedPlatform, goos)
	}
	cmds, ok := byRegion[r]
	if !ok {
		cmds = byRegion[region.China]
	}
	return cmds, nil
}

// CanAutoExecute reports whether the install commands may be run directly
// on this operating system. Windows installs are manual.
func CanAutoExecute(goos string) bool {
	return goos == "linux" || goos == "darwin"
}

// Installed reports whether a docker binary responds to --version.
func Installed() bool {
	_, err := Version()
	return err == nil
}

// Version returns the output of `docker --version`.
func Version() (string, error) {
	out, err := exec.Command("docker", "--version").Output()
	if err != nil {
		return "", fmt.Errorf("querying docker version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Run executes the install commands sequentially through the shell,
// stopping at the first failure.
func Run(ctx context.Context, commands []string, logger *slog.Logger) error {
	for _, c := range commands {
		logger.Info("executing install step", "command", c)

		cmd := exec.CommandContext(ctx, "sh", "-c", c)
		out, err := cmd.CombinedOutput()
		if err != nil {
			logger.Error("install step failed", "command", c, "error", err, "output", string(out))
			return fmt.Errorf("running %q: %w", c, err)
		}
		if len(out) > 0 {
			logger.Debug("install step output", "command", c, "output", string(out))
		}
	}
	return nil
}
