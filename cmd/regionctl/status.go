package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/missionpack/regionctl/internal/mirror"
	"github.com/missionpack/regionctl/internal/region"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configured and recommended mirrors",
		Long: `Show the currently configured uv/pip and Docker mirrors alongside the
values recommended for the detected network region. Read-only: nothing is
written, and unreadable tool configs show up as "unset" rather than failing
the report.`,
		Example: `  regionctl status`,
		RunE:    statusRun,
	}
}

func statusRun(cmd *cobra.Command, args []string) error {
	if globalCfg == nil {
		return fmt.Errorf("mirror config not loaded")
	}

	prober := region.NewProber(logger)
	r := prober.Detect(cmd.Context())

	mgr := mirror.NewManager(globalCfg, r, logger)
	st := mgr.Status(cmd.Context())

	fmt.Println("Mirror Status")
	fmt.Println("=============")
	fmt.Println("")
	fmt.Printf("%-24s %s\n", "Network region", st.Region)
	fmt.Println(strings.Repeat("-", 60))

	current := st.UVMirror
	if current == "" && st.PipMirror != "" {
		current = fmt.Sprintf("unset (pip config: %s)", st.PipMirror)
	}
	fmt.Printf("%-24s %s\n", "uv index", orUnset(current))
	fmt.Printf("%-24s %s\n", "recommended uv index", orUnset(st.RecommendedUV))
	fmt.Printf("%-24s %s\n", "docker mirror", orUnset(st.DockerMirror))
	fmt.Printf("%-24s %s\n", "recommended docker", orUnset(st.RecommendedDocker))
	fmt.Println("")

	return nil
}
