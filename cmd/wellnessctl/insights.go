package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	insightsCmd := &cobra.Command{Use: "insights", Short: "Insight operations"}

	// generate
	var wide bool
	generateCmd := &cobra.Command{
		Use:   "generate USER_ID",
		Short: "Distill unprocessed sources into insights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := fmt.Sprintf("%s/v0/users/%s/insights/generate", apiFlag, args[0])
			if wide {
				url += "?includeLowSignal=true"
			}
			data, err := doPostJSON(url, nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	generateCmd.Flags().BoolVarP(&wide, "wide", "w", false, "Re-read low-signal sources")
	insightsCmd.AddCommand(generateCmd)

	// list
	var limit int
	listCmd := &cobra.Command{
		Use:   "list USER_ID",
		Short: "List insights, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/v0/users/%s/insights?limit=%d", apiFlag, args[0], limit))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum rows to return")
	insightsCmd.AddCommand(listCmd)

	rootCmd.AddCommand(insightsCmd)
}
