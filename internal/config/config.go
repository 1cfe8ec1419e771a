package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/missionpack/regionctl/internal/region"
)

// ErrUnreadable indicates the mirrors file exists but could not be parsed.
// A missing file is not an error: it means no mirrors are configured.
var ErrUnreadable = errors.New("mirror config unreadable")

// MirrorKind identifies which tool a mirror entry targets.
type MirrorKind string

const (
	// KindPip selects the Python package-index mirrors (uv/pip).
	KindPip MirrorKind = "pip"
	// KindDocker selects the container registry mirrors.
	KindDocker MirrorKind = "docker"
)

// RegionMirrors holds the candidate mirrors and the distinguished default
// for one kind within one region.
type RegionMirrors struct {
	Mirrors []string `yaml:"mirrors,omitempty"`
	Default string   `yaml:"default,omitempty"`
}

// KindMirrors maps each region to its mirrors for one kind.
type KindMirrors struct {
	China  RegionMirrors `yaml:"china,omitempty"`
	Global RegionMirrors `yaml:"global,omitempty"`
}

// Config is the full mirrors document. It is a plain value: callers load it
// once, pass it where needed, and call Load again for a fresh copy instead
// of sharing mutable global state.
type Config struct {
	Pip    KindMirrors `yaml:"pip"`
	Docker KindMirrors `yaml:"docker"`
}

// DefaultConfig returns the built-in mirror set used when no mirrors file
// is present on the host.
func DefaultConfig() *Config {
	return &Config{
		Pip: KindMirrors{
			China: RegionMirrors{
				Mirrors: []string{
					"https://pypi.tuna.tsinghua.edu.cn/simple",
					"https://mirrors.aliyun.com/pypi/simple",
					"https://pypi.mirrors.ustc.edu.cn/simple",
				},
				Default: "https://pypi.tuna.tsinghua.edu.cn/simple",
			},
			Global: RegionMirrors{
				Mirrors: []string{"https://pypi.org/simple"},
				Default: "https://pypi.org/simple",
			},
		},
		Docker: KindMirrors{
			China: RegionMirrors{
				Mirrors: []string{
					"https://docker.m.daocloud.io",
					"https://dockerproxy.com",
				},
				Default: "https://docker.m.daocloud.io",
			},
			// No global default: an empty value means "use no mirror" and
			// the registry writer removes any configured mirror.
			Global: RegionMirrors{},
		},
	}
}

// Load reads a mirrors file. An absent file yields an empty config and no
// error; a present but malformed file fails with ErrUnreadable.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnreadable, path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrUnreadable, path, err)
	}
	return &cfg, nil
}

// Save writes the whole document back, replacing the file. Callers merge
// their changes into the in-memory value first; there is no field-level
// patch operation at this layer.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling mirror config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing mirror config: %w", err)
	}
	return nil
}

// FindConfigFile searches for a mirrors file in standard locations.
func FindConfigFile() (string, error) {
	searchPaths := []string{
		"mirrors.yaml",
		"/etc/regionctl/mirrors.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths,
			filepath.Join(home, ".config", "regionctl", "mirrors.yaml"),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no mirrors file found (searched: %v)", searchPaths)
}

// DefaultMirror resolves the default mirror for a kind and region. The
// fallback chain is exact region, then Global, then empty.
func (c *Config) DefaultMirror(kind MirrorKind, r region.Region) string {
	km := c.forKind(kind)
	if exact := km.forRegion(r); exact.Default != "" {
		return exact.Default
	}
	return km.Global.Default
}

// Mirrors resolves the candidate mirror list for a kind and region with the
// same fallback chain as DefaultMirror.
func (c *Config) Mirrors(kind MirrorKind, r region.Region) []string {
	km := c.forKind(kind)
	if exact := km.forRegion(r); len(exact.Mirrors) > 0 {
		return exact.Mirrors
	}
	return km.Global.Mirrors
}

func (c *Config) forKind(kind MirrorKind) KindMirrors {
	switch kind {
	case KindDocker:
		return c.Docker
	default:
		return c.Pip
	}
}

// forRegion maps Unknown (and anything unrecognized) to Global so that the
// fallback chain collapses to the Global entry.
func (k KindMirrors) forRegion(r region.Region) RegionMirrors {
	if r == region.China {
		return k.China
	}
	return k.Global
}
