/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/ponyo877/vivachat/client/domain"
)

// grepCmd represents the grep command
var grepCmd = &cobra.Command{
	Use:               "grep <pattern> [room_id]",
	Short:             "Searches the messages of a room.",
	Long:              `Prints the messages of a room whose text, sender or attachment names match a regular expression.`,
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: roomCompletionFunc,
	RunE: func(cmd *cobra.Command, args []string) error {
		ignoreCase, _ := cmd.Flags().GetBool("ignore-case")
		re, err := compilePattern(args[0], ignoreCase)
		if err != nil {
			return err
		}
		roomID, err := roomArg(args, 1)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		messages, err := vc.uc.History(ctx, roomID)
		if err != nil {
			return err
		}
		for _, m := range grepMessages(messages, re) {
			fmt.Println(formatMessage(m, false))
		}
		return nil
	},
}

func compilePattern(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return re, nil
}

// grepMessages keeps the messages matching re. Deleted messages never match.
func grepMessages(messages []domain.Message, re *regexp.Regexp) []domain.Message {
	var out []domain.Message
	for _, m := range messages {
		if m.IsDeleted {
			continue
		}
		if re.MatchString(m.Content) || re.MatchString(m.SenderNickname) {
			out = append(out, m)
			continue
		}
		for _, a := range m.Attachments {
			if re.MatchString(a.DisplayName()) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(grepCmd)
	grepCmd.Flags().BoolP("ignore-case", "i", false, "Ignore case distinctions")
}
