// Command strata scaffolds repository and service source files for an
// application built on the strata base library.
package main

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zoobzio/strata/internal/scaffold"
)

func main() {
	// Project-local .env may carry STRATA_* overrides; absence is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "strata",
		Short:         "Repository/service scaffolding for strata projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	makeCmd := &cobra.Command{
		Use:   "make",
		Short: "Generate source artifacts",
	}

	var modelName string
	var force bool
	makeRepositoryCmd := &cobra.Command{
		Use:   "repository NAME",
		Short: "Generate repository and service files for an entity",
		Long: `Generates four files for the entity: a repository interface, its SQL
implementation, a service interface, and its implementation. In provider
binding mode the constructors are also registered in each package's
provider.go, above the binding marker.

NAME must be UpperCamelCase, e.g. User or OrderItem.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := osfs.New(workDir())

			cfg, err := scaffold.LoadConfig(fs)
			if err != nil {
				return err
			}

			gen := scaffold.NewGenerator(fs, cfg, cmd.OutOrStdout())
			_, err = gen.MakeRepository(args[0], scaffold.Options{
				Model: modelName,
				Force: force,
			})
			return err
		},
	}
	makeRepositoryCmd.Flags().StringVar(&modelName, "model", "", "model type name when it differs from NAME")
	makeRepositoryCmd.Flags().BoolVar(&force, "force", false, "overwrite existing artifacts")

	makeCmd.AddCommand(makeRepositoryCmd)
	root.AddCommand(makeCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func workDir() string {
	if dir := os.Getenv("STRATA_DIR"); dir != "" {
		return dir
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
