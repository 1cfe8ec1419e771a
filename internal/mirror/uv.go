package mirror

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/missionpack/regionctl/internal/config"
)

// UpdateUV points uv's default package index at the mirror resolved for the
// manager's region. The existing uv.toml is merged, not replaced: the entry
// flagged default gets its URL rewritten in place (or one is appended when
// none exists), and every other index entry and unrelated key survives
// untouched. At most one entry carries the default flag afterwards.
func (m *Manager) UpdateUV() error {
	if m.uvConfigPath == "" {
		return fmt.Errorf("uv config path not resolved")
	}

	mirrorURL := m.cfg.DefaultMirror(config.KindPip, m.region)
	doc := m.readUVConfig()
	setDefaultIndex(doc, mirrorURL)

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling uv config: %w", err)
	}
	if err := writeFileAtomic(m.uvConfigPath, data, 0o644); err != nil {
		return fmt.Errorf("writing uv config: %w", err)
	}

	m.logger.Info("uv mirror updated", "url", mirrorURL, "path", m.uvConfigPath)
	return nil
}

// readUVConfig loads the existing uv.toml into a generic document. An absent
// or malformed file degrades to an empty document with a logged warning so
// the write can proceed from a clean slate.
func (m *Manager) readUVConfig() map[string]any {
	doc := map[string]any{}

	data, err := os.ReadFile(m.uvConfigPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("cannot read existing uv config, starting fresh",
				"path", m.uvConfigPath, "error", err)
		}
		return doc
	}

	if err := toml.Unmarshal(data, &doc); err != nil {
		m.logger.Warn("existing uv config is not valid TOML, starting fresh",
			"path", m.uvConfigPath, "error", err)
		return map[string]any{}
	}
	return doc
}

// setDefaultIndex rewrites the default-flagged [[index]] entry's URL in
// place, appending a new default entry when none is flagged.
func setDefaultIndex(doc map[string]any, url string) {
	entries, _ := doc["index"].([]any)

	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if isDefault, _ := entry["default"].(bool); isDefault {
			entry["url"] = url
			doc["index"] = entries
			return
		}
	}

	doc["index"] = append(entries, map[string]any{
		"url":     url,
		"default": true,
	})
}

// defaultIndexURL extracts the URL of the default-flagged entry, or "".
func defaultIndexURL(doc map[string]any) string {
	entries, _ := doc["index"].([]any)
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if isDefault, _ := entry["default"].(bool); isDefault {
			u, _ := entry["url"].(string)
			return u
		}
	}
	return ""
}
