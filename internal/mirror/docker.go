package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/missionpack/regionctl/internal/config"
)

const registryMirrorsKey = "registry-mirrors"

// UpdateDocker sets the registry mirror in the user's Docker config. A
// non-empty resolved mirror replaces the registry-mirrors value with exactly
// that single entry; an empty one removes the key entirely ("use no
// mirror"). Sibling keys in the file are preserved verbatim.
func (m *Manager) UpdateDocker() error {
	if m.dockerConfigPath == "" {
		return fmt.Errorf("docker config path not resolved")
	}

	mirrorURL := m.cfg.DefaultMirror(config.KindDocker, m.region)
	doc := m.readDockerConfig(m.dockerConfigPath)

	if mirrorURL == "" {
		if _, ok := doc[registryMirrorsKey]; ok {
			delete(doc, registryMirrorsKey)
			m.logger.Info("removed docker registry mirror configuration", "path", m.dockerConfigPath)
		}
	} else {
		raw, err := json.Marshal([]string{mirrorURL})
		if err != nil {
			return fmt.Errorf("marshaling registry mirrors: %w", err)
		}
		doc[registryMirrorsKey] = raw
		m.logger.Info("docker registry mirror updated", "url", mirrorURL, "path", m.dockerConfigPath)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling docker config: %w", err)
	}
	if err := writeFileAtomic(m.dockerConfigPath, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing docker config: %w", err)
	}
	return nil
}

// readDockerConfig loads a Docker config file into a raw-keyed document so
// that keys this tool does not own round-trip untouched. Absent or
// malformed files degrade to an empty document with a logged warning.
func (m *Manager) readDockerConfig(path string) map[string]json.RawMessage {
	doc := map[string]json.RawMessage{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("cannot read existing docker config, starting fresh",
				"path", path, "error", err)
		}
		return doc
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		m.logger.Warn("existing docker config is not valid JSON, starting fresh",
			"path", path, "error", err)
		return map[string]json.RawMessage{}
	}
	return doc
}

// firstRegistryMirror extracts the first configured registry mirror, or "".
func firstRegistryMirror(doc map[string]json.RawMessage) string {
	raw, ok := doc[registryMirrorsKey]
	if !ok {
		return ""
	}
	var mirrors []string
	if err := json.Unmarshal(raw, &mirrors); err != nil || len(mirrors) == 0 {
		return ""
	}
	return mirrors[0]
}
