package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/missionpack/regionctl/internal/installer"
	"github.com/missionpack/regionctl/internal/region"
)

var (
	dockerInstallRegion string
	dockerInstallYes    bool
)

func newDockerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docker",
		Short: "Check for and install the Docker runtime",
		Long: `Check whether Docker is installed, and print (or run) the install
commands appropriate for this operating system and network region.`,
		Example: `  regionctl docker check
  regionctl docker install
  regionctl docker install --region china --yes`,
	}

	cmd.AddCommand(newDockerCheckCmd(), newDockerInstallCmd())
	return cmd
}

func newDockerCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check whether Docker is installed",
		RunE:  dockerCheckRun,
	}
}

func newDockerInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install Docker for this platform and region",
		Long: `Print the Docker install command sequence for this operating system and
network region, optionally executing it with --yes (linux and macOS only).
The china command set routes the install script through an in-country
mirror; the unknown region follows the china set.`,
		Example: `  regionctl docker install
  regionctl docker install --region global
  regionctl docker install --yes`,
		RunE: dockerInstallRun,
	}

	cmd.Flags().StringVarP(&dockerInstallRegion, "region", "r", "", "force a region (china, global, unknown) instead of detecting")
	cmd.Flags().BoolVarP(&dockerInstallYes, "yes", "y", false, "execute the install commands (linux and macOS only)")

	return cmd
}

func dockerCheckRun(cmd *cobra.Command, args []string) error {
	if !installer.Installed() {
		fmt.Println("Docker is not installed")
		return nil
	}

	version, err := installer.Version()
	if err != nil {
		// Version raced the presence check; report installed anyway.
		fmt.Println("Docker is installed")
		return nil
	}
	fmt.Printf("Docker is installed: %s\n", version)
	return nil
}

func dockerInstallRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if installer.Installed() {
		fmt.Println("Docker is already installed, nothing to do")
		return nil
	}

	prober := region.NewProber(logger)
	if !prober.CheckConnectivity(ctx) {
		return region.ErrNoConnectivity
	}

	r, err := resolveRegion(cmd, prober, dockerInstallRegion)
	if err != nil {
		return err
	}

	commands, err := installer.Commands(runtime.GOOS, r)
	if err != nil {
		return err
	}

	fmt.Printf("Docker install commands (%s, %s):\n\n", runtime.GOOS, r)
	fmt.Printf("%-6s %s\n", "Step", "Command")
	fmt.Println(strings.Repeat("-", 70))
	for i, c := range commands {
		fmt.Printf("%-6d %s\n", i+1, c)
	}
	fmt.Println("")

	if !dockerInstallYes {
		return nil
	}
	if !installer.CanAutoExecute(runtime.GOOS) {
		fmt.Println("Automatic install is not supported on this platform; run the commands manually")
		return nil
	}

	if err := installer.Run(ctx, commands, logger); err != nil {
		return fmt.Errorf("docker install failed: %w", err)
	}
	fmt.Println("Docker installed")
	return nil
}
