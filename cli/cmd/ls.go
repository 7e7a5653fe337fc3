/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// roomsCmd represents the rooms command
var roomsCmd = &cobra.Command{
	Use:     "rooms",
	Aliases: []string{"ls"},
	Short:   "Lists chat rooms.",
	Long: `Lists the public rooms on the server. With --mine, lists only the rooms
you have joined. The current room (see cd) is marked with '*'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mine, _ := cmd.Flags().GetBool("mine")

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		rooms, err := vc.uc.ListRooms(ctx, mine)
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			fmt.Println("No rooms.")
			return nil
		}
		fmt.Printf("  %-6s %-8s %-10s %7s %-6s %s\n", "ID", "CODE", "TYPE", "USERS", "STATE", "NAME")
		for _, r := range rooms {
			mark := " "
			if r.ID == cfg.CurrentRoom {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, formatRoom(r))
		}
		return nil
	},
}

// roomCompletionFunc suggests the ids of the rooms the user has joined.
func roomCompletionFunc(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || vc == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	rooms, err := vc.uc.ListRooms(ctx, true)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, r := range rooms {
		id := strconv.FormatInt(r.ID, 10)
		if strings.HasPrefix(id, toComplete) {
			out = append(out, id+"\t"+r.Name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(roomsCmd)
	roomsCmd.Flags().BoolP("mine", "m", false, "Only rooms you have joined")
}
