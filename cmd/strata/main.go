package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strata-cms/strata"
	"github.com/strata-cms/strata/config"
	"github.com/strata-cms/strata/database"
	"github.com/strata-cms/strata/layout"
	"github.com/strata-cms/strata/migrate"
	"github.com/strata-cms/strata/schema"
)

var (
	configFile string
	schemaDir  string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "strata",
		Short:         "Manage the strata content database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: env only)")
	root.PersistentFlags().StringVarP(&schemaDir, "schemas", "s", "", "schema directory (overrides config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(validateCmd(), planCmd(), migrateCmd(), ddlCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadSettings() (config.Settings, error) {
	settings, err := config.Load(configFile)
	if err != nil {
		return config.Settings{}, err
	}
	if schemaDir != "" {
		settings.SchemaDir = schemaDir
	}
	return settings, nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and link the schema directory, reporting any errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			registry, err := schema.Load(settings.SchemaDir)
			if err != nil {
				return err
			}
			tables, err := layout.FromRegistry(registry)
			if err != nil {
				return err
			}
			fmt.Printf("OK: %d document types, %d tables\n", registry.Len(), len(tables))
			return nil
		},
	}
}

func planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the DDL that migrate would apply, without applying it",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			registry, err := schema.Load(settings.SchemaDir)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := database.Connect(ctx, settings.DatabaseConfig())
			if err != nil {
				return err
			}
			defer db.Close()

			scripts, err := migrate.New(db, registry).Plan(ctx)
			if err != nil {
				return err
			}
			if len(scripts) == 0 {
				fmt.Println("Database is up to date.")
				return nil
			}
			for _, script := range scripts {
				fmt.Printf("-- table %s\n", script.Table)
				for _, ddl := range script.DDLs {
					fmt.Printf("%s;\n\n", ddl)
				}
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create every missing table derived from the schema directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			core, err := strata.Open(cmd.Context(), settings.SchemaDir, settings.DatabaseConfig(),
				strata.WithLogger(log))
			if err != nil {
				return err
			}
			return core.Close()
		},
	}
}

func ddlCmd() *cobra.Command {
	var schemaName string

	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print the full creation script for the schema directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			registry, err := schema.Load(settings.SchemaDir)
			if err != nil {
				return err
			}
			script, err := strata.DDL(registry, schemaName)
			if err != nil {
				return err
			}
			fmt.Print(script)
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaName, "schema", "public", "target database schema")
	return cmd
}
