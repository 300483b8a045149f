// Command descriptor builds the asset descriptor read by the renderer out of the
// exported game assets.
//
//	descriptor skins     # one skin per directory under ./resources
//	descriptor bones     # numbered definitions under the exported bones
//	descriptor monsters  # monster names and skins from the reference table
//	descriptor verify    # check skinIds against skins
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelindar/skin-descriptor/internal/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout, os.Stderr)
	if err := app.command().ExecuteContext(ctx); err != nil {
		app.logger.Error().Err(err).Msg("descriptor failed")
		stop()
		os.Exit(1)
	}
}

// app holds the state shared by every command
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	stdout  io.Writer
	stderr  io.Writer
	file    string // YAML job file
	verbose bool   // Log every asset
	quiet   bool   // Do not print the descriptor
	watch   bool   // Keep running and rebuild on change
	cache   int    // Number of decoded definitions kept between runs
}

// newApp creates the application writing to the given outputs
func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		logger: newLogger(stderr, false),
		cache:  4096,
	}
}

// command creates the root command along with every job
func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "descriptor",
		Short:         "Aggregate exported asset definitions into asset-descriptor.json",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.logger = newLogger(a.stderr, a.verbose)
			cfg, err := config.Load(a.file)
			if err != nil {
				return err
			}

			a.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.file, "config", "c", "", "YAML job file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log every asset")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "do not print the descriptor once written")
	flags.BoolVarP(&a.watch, "watch", "w", false, "keep running and rebuild when inputs change")
	flags.IntVar(&a.cache, "cache", a.cache, "number of decoded definitions kept in memory between rebuilds")

	root.AddCommand(
		a.jobCommand("skins", "Describe one skin per subdirectory of the root", planSkins,
			"root", "suffix", "exclude"),
		a.jobCommand("bones", "Describe the numbered definitions found in every subdirectory of the root", planBones,
			"root", "exclude"),
		a.jobCommand("monsters", "List monster names and skins from the reference table", planMonsters,
			"localization", "references", "base"),
		a.verifyCommand(),
	)
	return root
}

// newLogger creates a console logger
func newLogger(out io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.TimeOnly,
	}).Level(level).With().Timestamp().Logger()
}
