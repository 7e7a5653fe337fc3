/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"id"},
	Short:   "Prints who you are logged in as.",
	Long:    `Prints the identity stored with the current access token, if it is still valid.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		cred, err := vc.uc.WhoAmI(ctx)
		if err != nil {
			return err
		}
		fmt.Println(describeCredential(cred))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
