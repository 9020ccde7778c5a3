package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	stateCmd := &cobra.Command{Use: "state", Short: "Lifecycle state operations"}

	getCmd := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Show the current lifecycle phase and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet(fmt.Sprintf("%s/v0/users/%s/state", apiFlag, args[0]))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	stateCmd.AddCommand(getCmd)

	evaluateCmd := &cobra.Command{
		Use:   "evaluate USER_ID",
		Short: "Re-evaluate phase transitions now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doPostJSON(fmt.Sprintf("%s/v0/users/%s/state/evaluate", apiFlag, args[0]), nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	stateCmd.AddCommand(evaluateCmd)

	rootCmd.AddCommand(stateCmd)
}
