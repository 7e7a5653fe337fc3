/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// pwdCmd represents the pwd command
var pwdCmd = &cobra.Command{
	Use:   "pwd",
	Short: "Prints the current room.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if cfg.CurrentRoom == 0 {
			fmt.Println("No current room, use cd ROOM_ID")
			return
		}
		fmt.Println(cfg.CurrentRoom)
	},
}

func init() {
	rootCmd.AddCommand(pwdCmd)
}
