package mirror

import (
	"context"
	"os/exec"
	"regexp"

	"github.com/missionpack/regionctl/internal/config"
	"github.com/missionpack/regionctl/internal/region"
)

// Status is a read-only snapshot of the configured and recommended mirrors.
// Unreadable sub-configs show up as empty strings, never as errors.
type Status struct {
	Region            region.Region
	UVMirror          string
	PipMirror         string
	DockerMirror      string
	RecommendedUV     string
	RecommendedDocker string
}

var pipIndexURLPattern = regexp.MustCompile(`global\.index-url=['"]([^'"]+)['"]`)

// Status collects the current mirror state from disk without mutating
// anything. Every read degrades to "unset" on failure.
func (m *Manager) Status(ctx context.Context) Status {
	st := Status{
		Region:            m.region,
		RecommendedUV:     m.cfg.DefaultMirror(config.KindPip, m.region),
		RecommendedDocker: m.cfg.DefaultMirror(config.KindDocker, m.region),
	}

	st.UVMirror = defaultIndexURL(m.readUVConfig())
	if st.UVMirror == "" {
		st.PipMirror = m.currentPipMirror(ctx)
	}
	st.DockerMirror = m.currentDockerMirror()

	return st
}

// currentPipMirror falls back to pip's own config when uv has no index
// configured, scraping the index-url out of `pip config list` output.
func (m *Manager) currentPipMirror(ctx context.Context) string {
	if len(m.pipConfigCmd) == 0 {
		return ""
	}

	out, err := exec.CommandContext(ctx, m.pipConfigCmd[0], m.pipConfigCmd[1:]...).Output()
	if err != nil {
		m.logger.Debug("pip config not readable", "error", err)
		return ""
	}

	match := pipIndexURLPattern.FindSubmatch(out)
	if match == nil {
		return ""
	}
	return string(match[1])
}

// currentDockerMirror reads the user-level Docker config, then the
// system-level daemon config (read-only) when the user one has no mirror.
func (m *Manager) currentDockerMirror() string {
	if m.dockerConfigPath != "" {
		if mirror := firstRegistryMirror(m.readDockerConfig(m.dockerConfigPath)); mirror != "" {
			return mirror
		}
	}
	if m.systemDockerConfigPath != "" {
		return firstRegistryMirror(m.readDockerConfig(m.systemDockerConfigPath))
	}
	return ""
}
