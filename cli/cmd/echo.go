/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:     "send [-r room_id] <text...>",
	Aliases: []string{"echo"},
	Short:   "Sends a text message to a room.",
	Long: `Sends a text message through the REST API. The words are joined with
spaces. Without --room the current room is used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := roomFlag(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		m, err := vc.uc.SendText(ctx, roomID, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(formatMessage(m, false))
		return nil
	},
}

// roomFlag reads --room, falling back to the current room.
func roomFlag(cmd *cobra.Command) (int64, error) {
	id, _ := cmd.Flags().GetInt64("room")
	if id > 0 {
		return id, nil
	}
	return roomArg(nil, 0)
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().Int64P("room", "r", 0, "Room id (defaults to the current room)")
}
