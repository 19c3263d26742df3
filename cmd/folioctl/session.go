package main

import (
	"errors"
	"fmt"
	"time"

	"folio/internal/auth"
	"folio/internal/config"
	serviceAuth "folio/internal/service/auth"
	"folio/internal/session"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		cfg := config.Load()
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required to sign in")
		}

		tokens, err := auth.NewPasswordClient(cfg.SupabaseURL, cfg.SupabaseAnonKey).
			SignIn(cmd.Context(), auth.Credentials{Email: email, Password: password})
		if err != nil {
			return err
		}

		verifier, err := auth.NewJWTVerifier(cmd.Context(), cfg.SupabaseJWKSURL, cliLogger(cmd))
		if err != nil {
			return err
		}
		defer verifier.Close()

		claims, err := verifier.VerifyToken(tokens.AccessToken)
		if err != nil {
			return fmt.Errorf("verify access token: %w", err)
		}

		sess := auth.SessionFromClaims(claims, tokens.AccessToken, serviceAuth.NewSessionAuthorizer(cfg.AdminUserIDs))
		if sess.ExpiresAt.IsZero() && tokens.ExpiresIn > 0 {
			sess.ExpiresAt = time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
		}

		store := session.NewFileStore(cfg.SessionFile)
		if err := store.Save(sess); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "Signed in as %s (admin: %t)\n", sess.User.Email, sess.Admin)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := session.NewFileStore(config.Load().SessionFile)
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(out(cmd), "Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := session.NewFileStore(config.Load().SessionFile)
		sess, err := store.Load()
		if errors.Is(err, session.ErrNoSession) {
			fmt.Fprintln(out(cmd), "Not signed in")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out(cmd), "User:  %s (%s)\n", sess.User.Email, sess.User.ID)
		fmt.Fprintf(out(cmd), "Admin: %t\n", sess.IsAdmin())
		if sess.Expired(time.Now()) {
			fmt.Fprintln(out(cmd), "Token: expired, run folioctl login")
		} else if !sess.ExpiresAt.IsZero() {
			fmt.Fprintf(out(cmd), "Token: valid until %s\n", sess.ExpiresAt.Format(time.RFC3339))
		}
		return nil
	},
}
