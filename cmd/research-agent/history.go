// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past research runs",
	Long: `History lists recorded runs, newest first. Use --run with a run ID to
show that run's stage timeline instead.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := engineConfig()
	sink := openSink(cfg.Persist, os.Stderr)
	if sink == nil {
		fmt.Println("Run history is disabled.")
		return nil
	}
	defer sink.Close()

	runID, _ := cmd.Flags().GetString("run")
	if runID != "" {
		timeline, err := sink.Timeline(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if len(timeline) == 0 {
			return fmt.Errorf("no run with ID %q", runID)
		}
		formatTimeline(timeline)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := sink.History(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %-40s  %-5s  %-4s\n", "Run", "Completed", "Question", "Conf", "Srcs")
	fmt.Println(strings.Repeat("-", 112))
	for _, r := range runs {
		fmt.Printf("%-36s  %-19s  %-40s  %-5.2f  %-4d\n",
			r.RunID, r.CompletedAt.Format("2006-01-02 15:04:05"), truncate(r.Question, 40), r.Confidence, r.SourcesFound)
	}
	fmt.Printf("\n%d run(s)\n", len(runs))
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum runs to list")
	historyCmd.Flags().String("run", "", "show the timeline for one run ID")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(historyCmd)
}
