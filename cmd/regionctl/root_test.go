package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/missionpack/regionctl/internal/config"
	"github.com/missionpack/regionctl/internal/region"
	"github.com/missionpack/regionctl/internal/store"
)

func setTestGlobals(t *testing.T) {
	t.Helper()
	origCfg, origLogger, origDBPath := globalCfg, logger, dbPath
	globalCfg = config.DefaultConfig()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	dbPath = filepath.Join(t.TempDir(), "history.db")
	t.Cleanup(func() {
		globalCfg, logger, dbPath = origCfg, origLogger, origDBPath
	})
}

func testCommand(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	_ = w.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured stdout: %v", err)
	}
	_ = r.Close()
	return string(data)
}

func TestConfigShowRun(t *testing.T) {
	setTestGlobals(t)

	out := captureStdout(t, func() {
		if err := configShowRun(testCommand(t), nil); err != nil {
			t.Errorf("configShowRun returned error: %v", err)
		}
	})

	if !strings.Contains(out, "https://pypi.tuna.tsinghua.edu.cn/simple") {
		t.Errorf("expected china pip default in output, got:\n%s", out)
	}
	if !strings.Contains(out, "https://pypi.org/simple") {
		t.Errorf("expected global pip default in output, got:\n%s", out)
	}
	if !strings.Contains(out, "https://docker.m.daocloud.io") {
		t.Errorf("expected china docker default in output, got:\n%s", out)
	}
}

func TestConfigShowRun_InvalidRegion(t *testing.T) {
	setTestGlobals(t)

	origRegion := configShowRegion
	configShowRegion = "mars"
	t.Cleanup(func() { configShowRegion = origRegion })

	err := configShowRun(testCommand(t), nil)
	if err == nil {
		t.Fatal("configShowRun with invalid region returned nil error")
	}
	if !errors.Is(err, region.ErrInvalidRegion) {
		t.Errorf("error = %v, want ErrInvalidRegion", err)
	}
}

func TestUpdateRun_ExclusiveFlags(t *testing.T) {
	setTestGlobals(t)

	origUV, origDocker := updateUVOnly, updateDockerOnly
	updateUVOnly, updateDockerOnly = true, true
	t.Cleanup(func() { updateUVOnly, updateDockerOnly = origUV, origDocker })

	err := updateRun(testCommand(t), nil)
	if err == nil {
		t.Fatal("updateRun with both --uv-only and --docker-only returned nil error")
	}
	if !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("error = %v, want mutual-exclusion message", err)
	}
}

func TestHistoryRun(t *testing.T) {
	setTestGlobals(t)

	st, err := store.New(dbPath, logger)
	if err != nil {
		t.Fatalf("creating history store: %v", err)
	}
	d := &store.Detection{Region: "global", GlobalSuccessRate: 0.8, ChinaSuccessRate: 0.2}
	if err := st.RecordDetection(d); err != nil {
		t.Fatalf("recording detection: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	out := captureStdout(t, func() {
		if err := historyRun(testCommand(t), nil); err != nil {
			t.Errorf("historyRun returned error: %v", err)
		}
	})

	if !strings.Contains(out, "global") {
		t.Errorf("expected recorded region in output, got:\n%s", out)
	}
	if !strings.Contains(out, "80%") {
		t.Errorf("expected success rate in output, got:\n%s", out)
	}
}

func TestHistoryRun_Empty(t *testing.T) {
	setTestGlobals(t)

	out := captureStdout(t, func() {
		if err := historyRun(testCommand(t), nil); err != nil {
			t.Errorf("historyRun returned error: %v", err)
		}
	})

	if !strings.Contains(out, "No detections recorded yet.") {
		t.Errorf("expected empty message, got:\n%s", out)
	}
}

// TestPersistentPreRun_MalformedMirrorConfig: a present-but-broken mirrors
// file must only fail the commands that consume it; read-only and
// detection commands fall back to the built-in defaults.
func TestPersistentPreRun_MalformedMirrorConfig(t *testing.T) {
	malformed := filepath.Join(t.TempDir(), "mirrors.yaml")
	if err := os.WriteFile(malformed, []byte("pip: [broken"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"status degrades", []string{"status"}, false},
		{"detect degrades", []string{"detect"}, false},
		{"history degrades", []string{"history"}, false},
		{"docker check degrades", []string{"docker", "check"}, false},
		{"update fails", []string{"update"}, true},
		{"config fails", []string{"config"}, true},
		{"config show fails", []string{"config", "show"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origCfg, origCfgPath, origLogger, origQuiet := globalCfg, cfgPath, logger, quiet
			t.Cleanup(func() {
				globalCfg, cfgPath, logger, quiet = origCfg, origCfgPath, origLogger, origQuiet
			})

			root := NewRootCmd()
			sub, _, err := root.Find(tt.args)
			if err != nil {
				t.Fatalf("finding subcommand %v: %v", tt.args, err)
			}

			// Registering the flags resets the globals, so point at the
			// fixture afterwards.
			cfgPath = malformed
			quiet = true
			globalCfg = nil

			err = root.PersistentPreRunE(sub, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("PersistentPreRunE returned nil error, want failure")
				}
				if !errors.Is(err, config.ErrUnreadable) {
					t.Errorf("error = %v, want ErrUnreadable", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("PersistentPreRunE returned error: %v", err)
			}
			if globalCfg == nil {
				t.Fatal("globalCfg not populated after degradation")
			}
			if got := globalCfg.DefaultMirror(config.KindPip, region.China); got != "https://pypi.tuna.tsinghua.edu.cn/simple" {
				t.Errorf("degraded config pip china default = %q, want built-in default", got)
			}
		})
	}
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	want := []string{"detect", "status", "update", "docker", "history", "config"}
	for _, name := range want {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}
