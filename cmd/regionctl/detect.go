package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/missionpack/regionctl/internal/region"
)

const detectCacheTTL = 10 * time.Minute

var detectCached bool

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect the current network region",
		Long: `Probe a fixed set of in-country and global domains concurrently and
classify the host network. Unless global reachability is dominant (success
rate above 60%), the network is classified as china, even when in-country
reachability is itself poor.

Each detection is recorded in the local history database; --cached reuses a
recent record instead of probing again.`,
		Example: `  regionctl detect
  regionctl detect --cached`,
		RunE: detectRun,
	}

	cmd.Flags().BoolVar(&detectCached, "cached", false, "reuse a detection from the last 10 minutes instead of probing")

	return cmd
}

func detectRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st := openHistoryStore()
	if st != nil {
		defer st.Close()
	}

	if detectCached && st != nil {
		d, err := st.LatestDetection()
		if err != nil {
			logger.Warn("failed to read detection history", "error", err)
		} else if d != nil && time.Since(d.DetectedAt) < detectCacheTTL {
			fmt.Printf("Network region: %s (detected %s ago)\n",
				d.Region, time.Since(d.DetectedAt).Round(time.Second))
			return nil
		}
	}

	prober := region.NewProber(logger)
	if !prober.CheckConnectivity(ctx) {
		return region.ErrNoConnectivity
	}

	r, china, global := prober.DetectStats(ctx)
	fmt.Printf("Network region: %s\n", r)

	recordDetection(st, r, china, global)
	return nil
}
