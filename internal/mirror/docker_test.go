package mirror

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/missionpack/regionctl/internal/region"
)

func readDockerFile(t *testing.T, path string) map[string]json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading docker config: %v", err)
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parsing written docker config: %v", err)
	}
	return doc
}

func TestUpdateDocker_SetsSingleMirror(t *testing.T) {
	m := newTestManager(t, region.China)

	if err := m.UpdateDocker(); err != nil {
		t.Fatalf("UpdateDocker returned error: %v", err)
	}

	doc := readDockerFile(t, m.dockerConfigPath)
	var mirrors []string
	if err := json.Unmarshal(doc[registryMirrorsKey], &mirrors); err != nil {
		t.Fatalf("parsing registry-mirrors: %v", err)
	}
	if len(mirrors) != 1 {
		t.Fatalf("mirror count = %d, want exactly 1", len(mirrors))
	}
	if mirrors[0] != "https://docker.m.daocloud.io" {
		t.Errorf("mirror = %q, want the china docker default", mirrors[0])
	}
}

func TestUpdateDocker_ReplacesExistingList(t *testing.T) {
	m := newTestManager(t, region.China)

	existing := `{
  "registry-mirrors": ["https://a.example.com", "https://b.example.com"],
  "auths": {"registry.example.com": {"auth": "c2VjcmV0"}},
  "psFormat": "table {{.ID}}"
}`
	if err := os.WriteFile(m.dockerConfigPath, []byte(existing), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if err := m.UpdateDocker(); err != nil {
		t.Fatalf("UpdateDocker returned error: %v", err)
	}

	doc := readDockerFile(t, m.dockerConfigPath)

	var mirrors []string
	if err := json.Unmarshal(doc[registryMirrorsKey], &mirrors); err != nil {
		t.Fatalf("parsing registry-mirrors: %v", err)
	}
	if len(mirrors) != 1 || mirrors[0] != "https://docker.m.daocloud.io" {
		t.Errorf("mirrors = %v, want single-element replace", mirrors)
	}

	// Sibling keys must survive the rewrite.
	var auths map[string]map[string]string
	if err := json.Unmarshal(doc["auths"], &auths); err != nil {
		t.Fatalf("parsing preserved auths: %v", err)
	}
	if auths["registry.example.com"]["auth"] != "c2VjcmV0" {
		t.Errorf("auths not preserved: %v", auths)
	}
	var psFormat string
	if err := json.Unmarshal(doc["psFormat"], &psFormat); err != nil || psFormat != "table {{.ID}}" {
		t.Errorf("psFormat not preserved: %q (err %v)", psFormat, err)
	}
}

func TestUpdateDocker_EmptyMirrorRemovesKey(t *testing.T) {
	// Global region resolves to an empty docker mirror in the default config.
	m := newTestManager(t, region.Global)

	existing := `{
  "registry-mirrors": ["https://docker.m.daocloud.io"],
  "psFormat": "table {{.ID}}"
}`
	if err := os.WriteFile(m.dockerConfigPath, []byte(existing), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if err := m.UpdateDocker(); err != nil {
		t.Fatalf("UpdateDocker returned error: %v", err)
	}

	doc := readDockerFile(t, m.dockerConfigPath)
	if _, ok := doc[registryMirrorsKey]; ok {
		t.Error("registry-mirrors key still present, want removed entirely")
	}
	if _, ok := doc["psFormat"]; !ok {
		t.Error("sibling key removed along with the mirror")
	}
}

func TestUpdateDocker_EmptyMirrorOnCleanConfig(t *testing.T) {
	m := newTestManager(t, region.Global)

	if err := m.UpdateDocker(); err != nil {
		t.Fatalf("UpdateDocker returned error: %v", err)
	}

	doc := readDockerFile(t, m.dockerConfigPath)
	if _, ok := doc[registryMirrorsKey]; ok {
		t.Error("registry-mirrors key present on a config that never had one")
	}
}

func TestUpdateDocker_MalformedExistingStartsFresh(t *testing.T) {
	m := newTestManager(t, region.China)
	if err := os.WriteFile(m.dockerConfigPath, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if err := m.UpdateDocker(); err != nil {
		t.Fatalf("UpdateDocker returned error: %v", err)
	}

	doc := readDockerFile(t, m.dockerConfigPath)
	var mirrors []string
	if err := json.Unmarshal(doc[registryMirrorsKey], &mirrors); err != nil {
		t.Fatalf("parsing registry-mirrors: %v", err)
	}
	if len(mirrors) != 1 {
		t.Errorf("mirror count = %d, want 1", len(mirrors))
	}
}

func TestUpdateAll_IndependentFailures(t *testing.T) {
	m := newTestManager(t, region.China)
	// Break the uv target by making its path a directory; docker must still
	// be applied.
	if err := os.Mkdir(m.uvConfigPath, 0o755); err != nil {
		t.Fatalf("creating blocking directory: %v", err)
	}

	results := m.UpdateAll()
	if results[ToolUV] {
		t.Error("uv result = true, want failure")
	}
	if !results[ToolDocker] {
		t.Error("docker result = false, want success despite uv failure")
	}

	if _, err := os.Stat(m.dockerConfigPath); err != nil {
		t.Errorf("docker config was not written: %v", err)
	}
}
