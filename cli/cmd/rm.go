/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ponyo877/vivachat/client/domain"
)

// rmCmd represents the rm command
var rmCmd = &cobra.Command{
	Use:   "rm <message_id...>",
	Short: "Deletes messages.",
	Long: `Deletes one or more messages. Members of the room see them replaced by
"message deleted".`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil || id <= 0 {
				fmt.Fprintf(os.Stderr, "Invalid message id %q\n", arg)
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
			err = vc.api.DeleteMessage(ctx, domain.MessageID(id))
			cancel()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error deleting message %d: %v\n", id, err)
				continue
			}
			fmt.Printf("Deleted: %d\n", id)
		}
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
