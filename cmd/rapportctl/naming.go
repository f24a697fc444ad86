package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"chantier-rapports/pkg/models"
	"chantier-rapports/pkg/rapport"
)

type keyFlags struct {
	chantier string
	typ      string
	date     string
}

func (f *keyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.chantier, "chantier", "", "Nom du chantier (required)")
	cmd.Flags().StringVar(&f.typ, "type", "", "Type de rapport (required)")
	cmd.Flags().StringVar(&f.date, "date", "", "Date YYYY-MM-DD (required)")
}

func (f *keyFlags) key() (rapport.Key, error) {
	if f.chantier == "" {
		return rapport.Key{}, fmt.Errorf("required flag --chantier not set")
	}
	if f.typ == "" {
		return rapport.Key{}, fmt.Errorf("required flag --type not set")
	}
	if f.date == "" {
		return rapport.Key{}, fmt.Errorf("required flag --date not set")
	}
	if rapport.Sanitize(f.chantier) == "" {
		return rapport.Key{}, fmt.Errorf("chantier %q has no letter or digit", f.chantier)
	}
	if rapport.Sanitize(f.typ) == "" {
		return rapport.Key{}, fmt.Errorf("type %q has no letter or digit", f.typ)
	}

	date, err := rapport.ParseDate(f.date)
	if err != nil {
		return rapport.Key{}, err
	}
	key := rapport.Key{Chantier: f.chantier, Type: f.typ, Date: date}
	if err := key.Validate(); err != nil {
		return rapport.Key{}, err
	}
	return key, nil
}

func newPathCmd() *cobra.Command {
	flags := &keyFlags{}
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Affiche le chemin de stockage d'un rapport",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := flags.key()
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(models.NewNamingPreview(key))
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.StoragePath())
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Affiche tous les noms dérivés en JSON")
	return cmd
}

func newTitleCmd() *cobra.Command {
	flags := &keyFlags{}

	cmd := &cobra.Command{
		Use:   "title",
		Short: "Affiche le titre d'un rapport",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := flags.key()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.DisplayTitle())
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newParseTitleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-title <titre>",
		Short: "Décompose un titre Chantier/Type/YYYYMMDD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, ok := rapport.ParseTitle(args[0])
			if !ok {
				return fmt.Errorf("invalid rapport title %q", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chantier: %s\n", title.Chantier)
			fmt.Fprintf(out, "type:     %s\n", title.TypeLabel)
			fmt.Fprintf(out, "date:     %s\n", title.DateKey)
			return nil
		},
	}
}
