package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hnamyud/bookingclient/pkg/jwt"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and establish a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginEmail == "" {
			return errors.New("--email is required")
		}
		password := loginPassword
		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return err
			}
			password = strings.TrimSpace(line)
		}

		sessions, client, err := buildStack()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		raw, err := client.Login(ctx, loginEmail, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
			return err
		}

		// The login response carries the access token and user identity
		// alongside backend-defined extras; pull out what the store needs.
		var payload struct {
			Token string `json:"token"`
			Data  struct {
				AccessToken string          `json:"access_token"`
				User        json.RawMessage `json:"user"`
			} `json:"data"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("unexpected login response: %w", err)
		}
		accessToken := payload.Data.AccessToken
		if accessToken == "" {
			accessToken = payload.Token
		}

		sessions.Login(ctx, accessToken, payload.Data.User, false, false, nil)
		fmt.Printf("Logged in as %s\n", loginEmail)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session locally and invalidate the refresh cookie",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, _, err := buildStack()
		if err != nil {
			return err
		}

		future := sessions.Logout(cmd.Context())
		// The local session is already gone; give the backend call a
		// moment instead of killing the process under it.
		if err := future.AwaitWithTimeout(5 * time.Second); err != nil {
			fmt.Fprintln(os.Stderr, "Backend logout still pending; local session cleared anyway")
		}
		fmt.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session after silent re-authentication",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, _, err := buildStack()
		if err != nil {
			return err
		}

		sess := sessions.Init(cmd.Context())
		if !sess.IsAuthenticated {
			fmt.Println("Not logged in")
			return nil
		}

		if sub, err := jwt.Subject(sess.AccessToken); err == nil {
			fmt.Printf("Subject: %s\n", sub)
		}
		if len(sess.User) > 0 {
			fmt.Printf("User: %s\n", string(sess.User))
		}
		fmt.Printf("Admin: %v  Moderator: %v\n", sess.IsAdmin, sess.IsModerator)
		if len(sess.AdminPermissions) > 0 {
			fmt.Printf("Permissions: %s\n", strings.Join(sess.AdminPermissions, ", "))
		}
		if exp, ok := sessions.TokenExpiresAt(); ok {
			fmt.Printf("Token expires: %s\n", exp.Format(time.RFC3339))
		}
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run the silent re-authentication protocol",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, _, err := buildStack()
		if err != nil {
			return err
		}

		sess := sessions.Init(cmd.Context())
		if !sess.IsAuthenticated {
			fmt.Println("Refresh failed; session is anonymous")
			return nil
		}
		fmt.Println("Session refreshed")
		return nil
	},
}

var csrfCmd = &cobra.Command{
	Use:   "csrf",
	Short: "Fetch and print an anti-forgery token",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := buildStack()
		if err != nil {
			return err
		}

		client.EnsureCSRFToken(cmd.Context())
		token := client.CSRFToken()
		if token == "" {
			return errors.New("token issuance failed")
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password (prompted when omitted)")
}
