package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rapportctl",
		Short: "Outils d'exploitation des rapports de chantier",
		Long: `rapportctl dérive les noms des rapports, provisionne les dossiers
du stockage et émet des jetons d'accès pour l'API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newPathCmd())
	rootCmd.AddCommand(newTitleCmd())
	rootCmd.AddCommand(newParseTitleCmd())
	rootCmd.AddCommand(newProvisionCmd())
	rootCmd.AddCommand(newTreeCmd())
	rootCmd.AddCommand(newTokenCmd())

	return rootCmd
}
