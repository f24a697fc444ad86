package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"

	"chantier-rapports/internal/storage"
	"chantier-rapports/internal/storage/provisioner"
	"chantier-rapports/pkg/rapport"
	pkgstorage "chantier-rapports/pkg/storage"
)

// storageEnv reprend la partie stockage de la configuration du serveur
type storageEnv struct {
	Storage     pkgstorage.StorageConfig
	Provisioner provisioner.Config
	Upload      provisioner.RetryPolicy `env-prefix:"UPLOAD_"`
}

// openStorage est remplacée dans les tests
var openStorage = func(ctx context.Context) (*storage.StorageService, func() error, error) {
	var env storageEnv
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, nil, fmt.Errorf("failed to read storage config: %w", err)
	}

	store, err := storage.NewStorage(ctx, &env.Storage)
	if err != nil {
		return nil, nil, err
	}

	prov := provisioner.New(store, env.Provisioner)
	return storage.NewStorageService(store, prov, env.Upload), store.Close, nil
}

func newProvisionCmd() *cobra.Command {
	flags := &keyFlags{}
	var dir string

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Crée les dossiers d'un rapport ou un dossier explicite",
		Long: `Sans --dir, provisionne les dossiers PDF et photos du rapport
désigné par --chantier, --type et --date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dirs []string
			if dir != "" {
				dirs = []string{strings.Trim(dir, "/")}
			} else {
				key, err := flags.key()
				if err != nil {
					return err
				}
				dirs = []string{key.Dir(), key.PhotoDir()}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			service, closeFn, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			degraded := false
			for _, d := range dirs {
				outcome := service.ProvisionFolders(ctx, d)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", d, outcome.Status)
				if !outcome.OK() {
					degraded = true
					fmt.Fprintf(cmd.OutOrStdout(), "  reason: %s\n", outcome.Reason)
					for _, f := range outcome.Failed {
						fmt.Fprintf(cmd.OutOrStdout(), "  failed: %s\n", f)
					}
				}
			}

			if degraded {
				return fmt.Errorf("some folders could not be provisioned")
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&dir, "dir", "", "Dossier à créer avec tous ses parents")
	return cmd
}

func newTreeCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Liste les fichiers du stockage par dossier",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.Contains(prefix, "..") {
				return fmt.Errorf("invalid prefix %q", prefix)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			service, closeFn, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			tree, err := service.Tree(ctx, prefix)
			if err != nil {
				return err
			}

			dirs := make([]string, 0, len(tree))
			for d := range tree {
				dirs = append(dirs, d)
			}
			sort.Strings(dirs)

			out := cmd.OutOrStdout()
			for _, d := range dirs {
				fmt.Fprintf(out, "%s/\n", d)
				for _, f := range tree[d] {
					fmt.Fprintf(out, "  %s\n", f)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", rapport.Root+"/", "Préfixe à lister")
	return cmd
}
