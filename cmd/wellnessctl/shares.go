package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	sharesCmd := &cobra.Command{Use: "shares", Short: "Report share operations"}

	// create
	var ttl string
	createCmd := &cobra.Command{
		Use:   "create USER_ID REPORT_ID",
		Short: "Mint a share token for a report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload interface{}
			if ttl != "" {
				payload = map[string]string{"ttl": ttl}
			}
			data, err := doPostJSON(fmt.Sprintf("%s/v0/users/%s/reports/%s/shares", apiFlag, args[0], args[1]), payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	createCmd.Flags().StringVar(&ttl, "ttl", "", "Token lifetime such as 24h (defaults to server policy)")
	sharesCmd.AddCommand(createCmd)

	// list
	listCmd := &cobra.Command{
		Use:   "list USER_ID REPORT_ID",
		Short: "List shares for a report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/v0/users/%s/reports/%s/shares", apiFlag, args[0], args[1]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	sharesCmd.AddCommand(listCmd)

	// revoke
	revokeCmd := &cobra.Command{
		Use:   "revoke USER_ID REPORT_ID SHARE_ID",
		Short: "Revoke a share",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doPostJSON(fmt.Sprintf("%s/v0/users/%s/reports/%s/shares/%s/revoke", apiFlag, args[0], args[1], args[2]), nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	sharesCmd.AddCommand(revokeCmd)

	// fetch a shared report anonymously
	fetchCmd := &cobra.Command{
		Use:   "fetch TOKEN",
		Short: "Fetch a shared report by token (no credentials)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			saved := tokenFlag
			tokenFlag = ""
			defer func() { tokenFlag = saved }()
			data, err := doGet(fmt.Sprintf("%s/v0/shared/%s", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	sharesCmd.AddCommand(fetchCmd)

	rootCmd.AddCommand(sharesCmd)
}
