/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ponyo877/vivachat/client/usecase"
)

// uploadCmd represents the upload command
var uploadCmd = &cobra.Command{
	Use:     "upload [-r room_id] <file>",
	Aliases: []string{"cp"},
	Short:   "Sends a file to a multimedia room.",
	Long: `Uploads a local file as a file message. The room must accept files
and the file must fit the room's size limit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := roomFlag(cmd)
		if err != nil {
			return err
		}
		caption, _ := cmd.Flags().GetString("caption")

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
		defer cancel()

		s := vc.newSession(ctx)
		defer s.Close(context.Background())
		if err := s.Enter(ctx, roomID); err != nil {
			return err
		}
		if _, err := waitView(ctx, s, func(v usecase.View) bool { return v.Loaded }); err != nil {
			return fmt.Errorf("room did not load: %w", err)
		}

		err = s.SendFile(ctx, usecase.FileUpload{
			Name:    filepath.Base(args[0]),
			Size:    info.Size(),
			Caption: caption,
			Content: f,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Sent %s (%s)\n", filepath.Base(args[0]), humanSize(info.Size()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().Int64P("room", "r", 0, "Room id (defaults to the current room)")
	uploadCmd.Flags().StringP("caption", "c", "", "Caption shown with the file")
}
