package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	checkinsCmd := &cobra.Command{Use: "checkins", Short: "Daily check-in operations"}

	// record
	var responses []string
	recordCmd := &cobra.Command{
		Use:   "record USER_ID",
		Short: "Record today's check-in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(responses) == 0 {
				return fmt.Errorf("at least one --response key=value required")
			}
			parsed := map[string]string{}
			for _, r := range responses {
				k, v, ok := splitKV(r)
				if !ok {
					return fmt.Errorf("response %q must be key=value", r)
				}
				parsed[k] = v
			}
			data, err := doPostJSON(fmt.Sprintf("%s/v0/users/%s/checkins", apiFlag, args[0]),
				map[string]interface{}{"responses": parsed})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	recordCmd.Flags().StringArrayVarP(&responses, "response", "r", nil, "Prompt response key=value (repeatable)")
	checkinsCmd.AddCommand(recordCmd)

	// list
	var limit int
	listCmd := &cobra.Command{
		Use:   "list USER_ID",
		Short: "List check-ins, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/v0/users/%s/checkins?limit=%d", apiFlag, args[0], limit))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum rows to return")
	checkinsCmd.AddCommand(listCmd)

	// eligibility
	eligibilityCmd := &cobra.Command{
		Use:   "eligibility USER_ID",
		Short: "Show whether a check-in is allowed today and at what depth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/v0/users/%s/checkins/eligibility", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	checkinsCmd.AddCommand(eligibilityCmd)

	rootCmd.AddCommand(checkinsCmd)
}

func splitKV(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], i > 0
		}
	}
	return "", "", false
}
