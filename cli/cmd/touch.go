/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// joinCmd represents the join command
var joinCmd = &cobra.Command{
	Use:   "join <code> --pin <pin>",
	Short: "Joins a room by code and PIN.",
	Long: `Registers this device as a member of the room with the given code and
makes it the current room.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pin, _ := cmd.Flags().GetString("pin")

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		snap, err := vc.uc.JoinRoom(ctx, args[0], pin)
		if err != nil {
			return err
		}
		r := snap.Room
		fmt.Printf("Joined %s (id %d), %d/%d users\n", r.Name, r.ID, r.CurrentUsers, r.MaxUsers)
		if err := setCurrentRoom(r.ID); err != nil {
			fmt.Fprintln(os.Stderr, "Error saving current room:", err)
		}
		return nil
	},
}

// leaveCmd represents the leave command
var leaveCmd = &cobra.Command{
	Use:               "leave [room_id]",
	Short:             "Leaves a room and gives up its membership.",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: roomCompletionFunc,
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := roomArg(args, 0)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		if err := vc.uc.LeaveRoom(ctx, roomID); err != nil {
			return err
		}
		fmt.Printf("Left room %d\n", roomID)
		if roomID == cfg.CurrentRoom {
			if err := setCurrentRoom(0); err != nil {
				fmt.Fprintln(os.Stderr, "Error saving current room:", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(leaveCmd)
	joinCmd.Flags().String("pin", "", "Room PIN")
	_ = joinCmd.MarkFlagRequired("pin")
}
