package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"chantier-rapports/internal/auth"
)

type tokenFlags struct {
	subject string
	name    string
	role    string
	ttl     time.Duration
	secret  string
}

func newTokenCmd() *cobra.Command {
	flags := &tokenFlags{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Émet un jeton JWT pour l'API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.subject == "" {
				return fmt.Errorf("required flag --subject not set")
			}
			if !auth.IsKnownRole(flags.role) {
				return fmt.Errorf("unknown role %q", flags.role)
			}

			secret := flags.secret
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("JWT_SECRET not set")
			}

			name := flags.name
			if name == "" {
				name = flags.subject
			}

			token, err := auth.NewTokenManager(secret, flags.ttl).IssueToken(flags.subject, name, flags.role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.subject, "subject", "", "Identifiant de l'utilisateur (required)")
	cmd.Flags().StringVar(&flags.name, "name", "", "Nom affiché, auteur par défaut des rapports")
	cmd.Flags().StringVar(&flags.role, "role", auth.RoleLecteur, "Rôle : admin, chef_chantier, agent, lecteur")
	cmd.Flags().DurationVar(&flags.ttl, "ttl", 12*time.Hour, "Durée de validité")
	cmd.Flags().StringVar(&flags.secret, "secret", "", "Secret HMAC, JWT_SECRET par défaut")
	return cmd
}
