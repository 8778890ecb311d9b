package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/landreg/cadastre/internal/interfaces/cli/migrate"
	"github.com/landreg/cadastre/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cadastre",
		Short: "Cadastre - land registration service",
		Long:  `Cadastre runs the parcel registration wizard, the maker-checker approval workflow and the ownership registry.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
