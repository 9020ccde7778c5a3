package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	reportsCmd := &cobra.Command{Use: "reports", Short: "Report operations"}

	// generate
	var reportType, periodStart, periodEnd string
	generateCmd := &cobra.Command{
		Use:   "generate USER_ID",
		Short: "Generate a report over a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reportType == "" || periodStart == "" || periodEnd == "" {
				return fmt.Errorf("--type, --from and --to required")
			}
			data, err := doPostJSON(fmt.Sprintf("%s/v0/users/%s/reports", apiFlag, args[0]), map[string]string{
				"type":        reportType,
				"periodStart": periodStart,
				"periodEnd":   periodEnd,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	generateCmd.Flags().StringVar(&reportType, "type", "", "weekly_summary | monthly_progress | therapist_packet")
	generateCmd.Flags().StringVar(&periodStart, "from", "", "Period start, RFC 3339")
	generateCmd.Flags().StringVar(&periodEnd, "to", "", "Period end, RFC 3339")
	reportsCmd.AddCommand(generateCmd)

	// list
	listCmd := &cobra.Command{
		Use:   "list USER_ID",
		Short: "List reports, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/v0/users/%s/reports", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	reportsCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get USER_ID REPORT_ID",
		Short: "Get a report by ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/v0/users/%s/reports/%s", apiFlag, args[0], args[1]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	reportsCmd.AddCommand(getCmd)

	rootCmd.AddCommand(reportsCmd)
}
