package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/labbookdb/labbookdb/internal/cli/ui"
	"github.com/labbookdb/labbookdb/internal/orm/schema"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "labbookdb",
		Short: "Laboratory records database",
		Long: color.CyanString(`labbookdb - relational laboratory records

Records animals, cages, treatments, protocols and measurements in a
relational store. Existing records are addressed with identifier
expressions such as:

  Animal:external_ids.AnimalExternalIdentifier:database.ETH/AIC&#&identifier.5682`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default ./labbookdb.yaml or ~/.config/labbookdb/labbookdb.yaml)")
	flags.String("db", "", "SQLite database path (env LDB_PATH)")
	flags.String("driver", "", "Database driver: sqlite or postgres (env LDB_DRIVER)")
	flags.String("dsn", "", "PostgreSQL connection string (env LDB_DSN)")
	flags.String("log-level", "", "Log level: debug, info, warn or error (env LDB_LOG_LEVEL)")
	flags.Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewAddCommand())
	rootCmd.AddCommand(NewAppendCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewShowCommand())
	rootCmd.AddCommand(NewQueryCommand())
	rootCmd.AddCommand(NewSchemaCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the labbookdb version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			fields := ui.NewFieldList(out, color.NoColor)
			fields.Add("labbookdb version", Version)
			fields.Add("Git commit", GitCommit)
			fields.Add("Build date", BuildDate)
			fields.Add("Go version", goVer)
			fields.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		ui.WriteError(rootCmd.ErrOrStderr(), ui.DescribeError(err, schema.Labbook(), color.NoColor))
		return err
	}
	return nil
}
