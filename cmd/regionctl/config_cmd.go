package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/missionpack/regionctl/internal/config"
	"github.com/missionpack/regionctl/internal/region"
)

var configShowRegion string

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the mirror source configuration",
		Long: `Inspect the mirrors file (or the built-in defaults when none exists):
the candidate mirrors and the default per tool and region.`,
		Example: `  regionctl config show
  regionctl config show --region china`,
		RunE: configShowRun,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show resolved mirror values",
		RunE:  configShowRun,
	}
	show.Flags().StringVarP(&configShowRegion, "region", "r", "", "limit output to one region (china, global)")

	cmd.AddCommand(show)
	return cmd
}

func configShowRun(cmd *cobra.Command, args []string) error {
	if globalCfg == nil {
		return fmt.Errorf("mirror config not loaded")
	}

	regions := []region.Region{region.China, region.Global}
	if configShowRegion != "" {
		r, err := region.ParseRegion(configShowRegion)
		if err != nil {
			return err
		}
		regions = []region.Region{r}
	}

	source := cfgPath
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Printf("Mirror source: %s\n\n", source)

	for _, r := range regions {
		fmt.Printf("Region: %s\n", r)
		fmt.Println(strings.Repeat("-", 60))
		printKind(globalCfg, config.KindPip, r)
		printKind(globalCfg, config.KindDocker, r)
		fmt.Println("")
	}

	return nil
}

func printKind(cfg *config.Config, kind config.MirrorKind, r region.Region) {
	fmt.Printf("  %-8s default: %s\n", kind, orUnset(cfg.DefaultMirror(kind, r)))
	for _, m := range cfg.Mirrors(kind, r) {
		fmt.Printf("  %-8s mirror:  %s\n", "", m)
	}
}
