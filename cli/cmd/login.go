/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ponyo877/vivachat/client/domain"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login (--guest NICKNAME | --user USERNAME --password PASSWORD)",
	Short: "Logs in as a guest or an admin user.",
	Long: `Logs in and stores the access token locally. Guests pick a nickname;
admins log in with a username and password.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		guest, _ := cmd.Flags().GetString("guest")
		user, _ := cmd.Flags().GetString("user")
		password, _ := cmd.Flags().GetString("password")
		if (guest == "") == (user == "") {
			return errors.New("use either --guest or --user")
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		var (
			cred domain.Credential
			err  error
		)
		if guest != "" {
			cred, err = vc.uc.GuestLogin(ctx, guest)
		} else {
			if password == "" {
				return errors.New("--password is required with --user")
			}
			cred, err = vc.uc.Login(ctx, user, password)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", describeCredential(cred))
		return nil
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logs out and forgets the stored token.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		if err := vc.uc.Logout(ctx); err != nil {
			// The local token is gone even when the server could not be told.
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		fmt.Println("Logged out")
	},
}

func describeCredential(c domain.Credential) string {
	kind := "admin"
	if c.IsGuest {
		kind = "guest"
	}
	s := fmt.Sprintf("%s (%s, id %d)", c.DisplayName, kind, c.UserID)
	if !c.ExpiresAt.IsZero() {
		s += ", token valid until " + c.ExpiresAt.Local().Format(time.DateTime)
	}
	return s
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)

	loginCmd.Flags().String("guest", "", "Log in as a guest with this nickname")
	loginCmd.Flags().StringP("user", "u", "", "Admin username")
	loginCmd.Flags().StringP("password", "p", "", "Admin password")
}
