package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/missionpack/regionctl/internal/mirror"
	"github.com/missionpack/regionctl/internal/region"
)

var (
	updateRegion     string
	updateUVOnly     bool
	updateDockerOnly bool
)

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Apply mirror configuration for the detected or declared region",
		Long: `Rewrite the uv package index and the Docker registry mirror for the
current network region. The region is auto-detected unless --region is
given. Each tool's config is merged, not replaced: unrelated entries and
keys are preserved.

The two writers run independently; a failure in one does not block the
other, but any failure makes the command exit non-zero.`,
		Example: `  regionctl update
  regionctl update --region china
  regionctl update --uv-only
  regionctl update --region global --docker-only`,
		RunE: updateRun,
	}

	cmd.Flags().StringVarP(&updateRegion, "region", "r", "", "force a region (china, global, unknown) instead of detecting")
	cmd.Flags().BoolVar(&updateUVOnly, "uv-only", false, "only update the uv package index")
	cmd.Flags().BoolVar(&updateDockerOnly, "docker-only", false, "only update the docker registry mirror")

	return cmd
}

func updateRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if globalCfg == nil {
		return fmt.Errorf("mirror config not loaded")
	}
	if updateUVOnly && updateDockerOnly {
		return fmt.Errorf("--uv-only and --docker-only are mutually exclusive")
	}

	prober := region.NewProber(logger)
	if !prober.CheckConnectivity(ctx) {
		return region.ErrNoConnectivity
	}

	r, err := resolveRegion(cmd, prober, updateRegion)
	if err != nil {
		return err
	}

	mgr := mirror.NewManager(globalCfg, r, logger)

	switch {
	case updateUVOnly:
		if err := mgr.UpdateUV(); err != nil {
			return fmt.Errorf("failed to update uv mirror: %w", err)
		}
	case updateDockerOnly:
		if err := mgr.UpdateDocker(); err != nil {
			return fmt.Errorf("failed to update docker mirror: %w", err)
		}
	default:
		results := mgr.UpdateAll()
		var failed []string
		for tool, ok := range results {
			if !ok {
				failed = append(failed, tool)
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("mirror update failed for: %v", failed)
		}
	}

	fmt.Println("Mirror configuration updated")
	return nil
}

// resolveRegion parses a declared region or falls back to detection,
// recording detected results in the history database.
func resolveRegion(cmd *cobra.Command, prober *region.Prober, declared string) (region.Region, error) {
	if declared != "" {
		r, err := region.ParseRegion(declared)
		if err != nil {
			return "", err
		}
		return r, nil
	}

	st := openHistoryStore()
	if st != nil {
		defer st.Close()
	}

	r, china, global := prober.DetectStats(cmd.Context())
	fmt.Printf("Detected network region: %s\n", r)
	recordDetection(st, r, china, global)
	return r, nil
}
