package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/location-checkin/internal/middleware"
	"github.com/iliyamo/location-checkin/internal/model"
	"github.com/iliyamo/location-checkin/internal/utils"
)

// newTokenCommand issues a bearer token signed with JWT_SECRET, for local
// development against the API.
func newTokenCommand() *cobra.Command {
	var (
		id     model.Identity
		scopes []string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			if id.ID == "" || id.Email == "" {
				return errors.New("--sub and --email are required")
			}
			tok, err := utils.NewAccessToken(secret, id, scopes, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&id.ID, "sub", "", "subject (user id)")
	flags.StringVar(&id.Email, "email", "", "email address")
	flags.StringVar(&id.Name, "name", "", "display name")
	flags.StringSliceVar(&scopes, "scope", []string{middleware.ScopeCheckIn}, "granted scopes")
	flags.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
