package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyLimit int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past region detections",
		Long: `List past region detections with the probe success rates that produced
each classification, most recent first.`,
		Example: `  regionctl history
  regionctl history --limit 5`,
		RunE: historyRun,
	}

	cmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of records to show")

	return cmd
}

func historyRun(cmd *cobra.Command, args []string) error {
	st := openHistoryStore()
	if st == nil {
		return fmt.Errorf("detection history unavailable")
	}
	defer st.Close()

	detections, err := st.ListDetections(historyLimit)
	if err != nil {
		return fmt.Errorf("listing detections: %w", err)
	}

	if len(detections) == 0 {
		fmt.Println("No detections recorded yet.")
		return nil
	}

	fmt.Println("Detection History")
	fmt.Println("=================")
	fmt.Println("")
	fmt.Printf("%-8s %12s %14s %s\n", "Region", "China rate", "Global rate", "Detected at")
	fmt.Println(strings.Repeat("-", 60))

	for _, d := range detections {
		fmt.Printf("%-8s %11.0f%% %13.0f%% %s\n",
			d.Region,
			d.ChinaSuccessRate*100,
			d.GlobalSuccessRate*100,
			d.DetectedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}
	fmt.Println("")

	return nil
}
