/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ponyo877/vivachat/client/repository"
)

// cdCmd represents the cd command
var cdCmd = &cobra.Command{
	Use:   "cd [room_id]",
	Short: "Changes the current room.",
	Long: `Changes the room that commands use when no room id is given.
Without an argument, clears the current room.
The choice is stored in the configuration file.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: roomCompletionFunc,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return setCurrentRoom(0)
		}
		roomID, err := roomArg(args, 0)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		snap, err := vc.api.FetchSnapshot(ctx, roomID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("room does not exist: %d", roomID)
		}
		if err != nil {
			return err
		}
		if err := setCurrentRoom(roomID); err != nil {
			return err
		}
		fmt.Printf("Current room: %s (id %d)\n", snap.Room.Name, roomID)
		return nil
	},
}

func setCurrentRoom(id int64) error {
	viper.Set(currentRoomKey, id)
	cfg.CurrentRoom = id
	return writeConfig()
}

func init() {
	rootCmd.AddCommand(cdCmd)
}
