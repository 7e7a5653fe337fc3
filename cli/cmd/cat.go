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

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:               "history [room_id]",
	Aliases:           []string{"cat"},
	Short:             "Prints the message history of a room.",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: roomCompletionFunc,
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := roomArg(args, 0)
		if err != nil {
			return err
		}
		last, _ := cmd.Flags().GetInt("last")

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		messages, err := vc.uc.History(ctx, roomID)
		if err != nil {
			return err
		}
		if last > 0 && len(messages) > last {
			messages = messages[len(messages)-last:]
		}
		for _, m := range messages {
			fmt.Println(formatMessage(m, false))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("last", "n", 0, "Print only the last N messages")
}
