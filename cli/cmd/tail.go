/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/usecase"
)

// tailCmd represents the tail command
var tailCmd = &cobra.Command{
	Use:   "tail [room_id]",
	Short: "Follows a room's messages live.",
	Long: `Joins a room over the real-time connection, prints its recent messages
and keeps printing new, edited and deleted messages as they happen.
Typing and presence changes are printed too. Stop with Ctrl+C.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: roomCompletionFunc,
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := roomArg(args, 0)
		if err != nil {
			return err
		}
		last, _ := cmd.Flags().GetInt("lines")
		stats, _ := cmd.Flags().GetBool("stats")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		stopMetrics := vc.serveMetrics()
		defer stopMetrics()
		if stats {
			defer func() {
				if err := vc.writeStats(cmd.ErrOrStderr()); err != nil {
					fmt.Fprintf(os.Stderr, "Error printing stats: %v\n", err)
				}
			}()
		}

		s := vc.newSession(ctx)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.Close(closeCtx)
		}()
		if err := s.Enter(ctx, roomID); err != nil {
			return err
		}

		f := newFollower(last)
		for {
			select {
			case <-ctx.Done():
				return nil
			case n := <-s.Notices():
				fmt.Fprintln(os.Stderr, formatNotice(n))
			case v := <-s.Updates():
				for _, line := range f.diff(v) {
					fmt.Println(line)
				}
			}
		}
	},
}

// follower turns successive views into the lines that changed.
type follower struct {
	last    int
	primed  bool
	printed map[domain.MessageID]string
	state   domain.SessionState
	typing  string
	members string
}

func newFollower(last int) *follower {
	return &follower{last: last, printed: make(map[domain.MessageID]string)}
}

func (f *follower) diff(v usecase.View) []string {
	var out []string
	if v.State != f.state {
		f.state = v.State
		out = append(out, fmt.Sprintf("-- %s", v.State))
	}
	if !v.Loaded {
		return out
	}

	messages := v.Messages
	if !f.primed {
		f.primed = true
		if f.last > 0 && len(messages) > f.last {
			for _, m := range messages[:len(messages)-f.last] {
				f.printed[m.ID] = formatMessage(m, false)
			}
		}
	}
	for _, m := range messages {
		line := formatMessage(m, false)
		prev, seen := f.printed[m.ID]
		switch {
		case !seen:
			out = append(out, line)
		case prev != line:
			out = append(out, "~ "+line)
		}
		f.printed[m.ID] = line
	}

	if v.TypingText != f.typing {
		f.typing = v.TypingText
		if v.TypingText != "" {
			out = append(out, "-- "+v.TypingText)
		}
	}
	if members := strings.Join(v.Presence, ", "); members != f.members {
		f.members = members
		out = append(out, "-- online: "+members)
	}
	return out
}

func formatNotice(n usecase.Notice) string {
	if n.Detail == "" {
		return fmt.Sprintf("[%s] %s", n.Level, n.Title)
	}
	return fmt.Sprintf("[%s] %s: %s", n.Level, n.Title, n.Detail)
}

func init() {
	rootCmd.AddCommand(tailCmd)
	tailCmd.Flags().IntP("lines", "n", 20, "Number of recent messages to print first (0 for all)")
	tailCmd.Flags().Bool("stats", false, "Print the session metrics on exit")
}
