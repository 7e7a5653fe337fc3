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

	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/usecase"
)

// mkroomCmd represents the mkroom command
var mkroomCmd = &cobra.Command{
	Use:     "mkroom <name>",
	Aliases: []string{"mkdir"},
	Short:   "Creates a new room (admins only).",
	Long: `Creates a room and prints its join code and PIN. Share both with the
people who should join. The PIN is shown only once.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := usecase.CreateRoomInput{Name: args[0]}
		in.Description, _ = cmd.Flags().GetString("description")
		in.Pin, _ = cmd.Flags().GetString("pin")
		in.MaxUsers, _ = cmd.Flags().GetInt("max-users")
		in.MaxFileSizeMB, _ = cmd.Flags().GetInt("max-file-mb")
		if multimedia, _ := cmd.Flags().GetBool("multimedia"); multimedia {
			in.Type = domain.RoomTypeMultimedia
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		room, pin, err := vc.uc.CreateRoom(ctx, in)
		if err != nil {
			return err
		}
		fmt.Printf("Room created: %s (id %d)\n", room.Name, room.ID)
		fmt.Printf("  code: %s\n", room.Code)
		if pin != "" {
			fmt.Printf("  pin:  %s\n", pin)
		}
		fmt.Printf("  type: %s\n", strings.ToLower(string(room.Type)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mkroomCmd)
	mkroomCmd.Flags().StringP("description", "d", "", "Room description")
	mkroomCmd.Flags().String("pin", "", "PIN to require on join (generated when empty)")
	mkroomCmd.Flags().Int("max-users", 20, "Maximum number of members")
	mkroomCmd.Flags().Bool("multimedia", false, "Allow file messages")
	mkroomCmd.Flags().Int("max-file-mb", 10, "Upload limit for multimedia rooms, in MB")
}
