package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/drummonds/pageshot/config"
	"github.com/drummonds/pageshot/internal/build"
)

// cli carries the settings of one invocation from the root command to its subcommands
type cli struct {
	cfgFile  string
	settings *viper.Viper
}

func newRootCmd() *cobra.Command {
	app := &cli{}

	rootCmd := &cobra.Command{
		Use:   "pageshot",
		Short: "Convert PDF documents into per-page images",
		Long: `pageshot converts every PDF document under a directory into one image per page.

Documents are converted in parallel by a fixed pool of workers, and the pages of
each document are rendered in parallel under a page limit that bounds memory use.

Settings come from flags, PAGESHOT_* environment variables, an optional config
file and .env files, in that order of precedence.`,
		Version:       build.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.NewViper(app.cfgFile)
			if err != nil {
				return err
			}
			if err := bindFlags(settings, cmd.Flags()); err != nil {
				return err
			}
			app.settings = settings
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(
		&app.cfgFile, "config", "", "config file (yaml, toml or json)",
	)
	rootCmd.PersistentFlags().BoolP(config.KeyVerbose, "v", false, "debug logging and the full error list")
	rootCmd.PersistentFlags().BoolP(config.KeyQuiet, "q", false, "only log warnings and errors")

	rootCmd.AddCommand(
		newConvertCmd(app),
		newInspectCmd(app),
		newRunsCmd(app),
		newServeCmd(app),
		newVersionCmd(),
	)
	return rootCmd
}

// bindFlags makes every flag of the running command a viper key of the same name
func bindFlags(settings *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || f.Name == "help" || f.Name == "version" || bindErr != nil {
			return
		}
		if err := settings.BindPFlag(f.Name, f); err != nil {
			bindErr = fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

// load builds the configuration and sets up logging for the running command
func (app *cli) load(inputDir, outputDir string) (config.Config, error) {
	cfg, err := config.Load(app.settings, inputDir, outputDir)
	if err != nil {
		return cfg, err
	}
	injectGlobals(config.SetupLogging(cfg))
	return cfg, nil
}

// addHistoryFlags registers the run history flags shared by convert, runs and serve
func addHistoryFlags(flags *pflag.FlagSet) {
	flags.String(config.KeyHistoryDB, "", "run history database: sqlite file or postgres DSN (empty disables history)")
	flags.String(config.KeyDatabaseType, "sqlite", "run history database type: sqlite or postgres")
}
