package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	descriptor "github.com/kelindar/skin-descriptor"
	"github.com/kelindar/skin-descriptor/internal/config"
	"github.com/spf13/cobra"
)

// plan is what a single run of a job aggregates
type plan struct {
	source  descriptor.Source
	options []descriptor.Option
	format  descriptor.Format
}

// planFn prepares a run of a job, loading its side tables
type planFn func(job config.Job) (plan, error)

// planSkins describes one skin per subdirectory of the root
func planSkins(job config.Job) (plan, error) {
	format, err := descriptor.ParseFormat(job.Format)
	if err != nil {
		return plan{}, err
	}

	return plan{
		source: descriptor.DirectoryListing{
			Root:    job.Root,
			Suffix:  job.Suffix,
			Exclude: job.Exclude,
		},
		format: format,
	}, nil
}

// planBones describes the numbered definitions of every subdirectory of the root
func planBones(job config.Job) (plan, error) {
	format, err := descriptor.ParseFormat(job.Format)
	if err != nil {
		return plan{}, err
	}

	return plan{
		source: descriptor.FilenameConvention{
			Root:    job.Root,
			Exclude: job.Exclude,
		},
		format: format,
	}, nil
}

// planMonsters names every monster of the reference table, extending the
// existing descriptor
func planMonsters(job config.Job) (plan, error) {
	format, err := descriptor.ParseFormat(job.Format)
	if err != nil {
		return plan{}, err
	}

	base, err := descriptor.Load(job.Base)
	if err != nil {
		return plan{}, err
	}

	names, err := descriptor.LoadLocalization(job.Localization)
	if err != nil {
		return plan{}, err
	}

	refs, err := descriptor.LoadReferences(job.References)
	if err != nil {
		return plan{}, err
	}

	return plan{
		source: refs,
		options: []descriptor.Option{
			descriptor.WithBase(base),
			descriptor.WithLocalization(names),
		},
		format: format,
	}, nil
}

// jobCommand creates the command running a job. Only the listed flags are
// registered, each overriding the matching field of the job configuration.
func (a *app) jobCommand(name, short string, prepare planFn, fields ...string) *cobra.Command {
	var overrides config.Job
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job, err := a.cfg.Job(name)
			if err != nil {
				return err
			}

			job.Merge(overrides)
			return a.run(cmd.Context(), name, *job, prepare)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&overrides.Output, "output", "o", "", "descriptor file to write")
	flags.StringVarP(&overrides.Format, "format", "f", "", "output format, compact or indent")
	for _, field := range fields {
		switch field {
		case "root":
			flags.StringVarP(&overrides.Root, "root", "r", "", "directory holding the exported assets")
		case "suffix":
			flags.StringVar(&overrides.Suffix, "suffix", "", "suffix of the definition file in each skin directory")
		case "exclude":
			flags.StringSliceVarP(&overrides.Exclude, "exclude", "x", nil, "glob pattern of entries to skip, relative to the root")
		case "localization":
			flags.StringVar(&overrides.Localization, "localization", "", "localization table")
		case "references":
			flags.StringVar(&overrides.References, "references", "", "reference table")
		case "base":
			flags.StringVar(&overrides.Base, "base", "", "descriptor to extend")
		}
	}

	return cmd
}

// run executes a job once, or keeps rebuilding it in watch mode
func (a *app) run(ctx context.Context, name string, job config.Job, prepare planFn) error {
	agg, err := descriptor.NewAggregator(
		descriptor.WithLogger(a.logger.With().Str("job", name).Logger()),
		descriptor.WithCache(max(a.cache, 1)),
	)
	if err != nil {
		return err
	}

	build := func() error {
		return a.build(agg, job, prepare)
	}

	if !a.watch {
		return build()
	}

	if err := build(); err != nil {
		a.logger.Error().Err(err).Str("job", name).Msg("build failed")
	}

	return watch(ctx, a.logger, inputs(job), job.Output, build)
}

// build aggregates, writes and prints the descriptor of a job. Nothing is
// written when the aggregation fails.
func (a *app) build(agg *descriptor.Aggregator, job config.Job, prepare planFn) error {
	if job.Output == "" {
		return errors.New("no output file configured")
	}

	p, err := prepare(job)
	if err != nil {
		return err
	}

	out, err := agg.Aggregate(p.source, p.options...)
	if err != nil {
		return err
	}

	if err := out.WriteFile(job.Output, p.format); err != nil {
		return err
	}

	a.logger.Info().
		Str("output", job.Output).
		Stringer("format", p.format).
		Int("skinIds", len(out.SkinIDs)).
		Msg("descriptor written")
	if a.quiet {
		return nil
	}

	data, err := out.Encode(descriptor.FormatCompact)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(a.stdout, string(data))
	return err
}

// inputs returns the paths a job reads, without its own output
func inputs(job config.Job) []string {
	output := filepath.Clean(job.Output)
	var paths []string
	for _, path := range []string{job.Root, job.Localization, job.References, job.Base} {
		if path != "" && filepath.Clean(path) != output {
			paths = append(paths, path)
		}
	}
	return paths
}

// verifyCommand creates the command checking an existing descriptor
func (a *app) verifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [descriptor]",
		Short: "Check that every listed skin has animations and every skin is listed",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Skins.Output
			if len(args) == 1 {
				path = args[0]
			}

			out, err := descriptor.Load(path)
			if err != nil {
				return err
			}

			if err := out.Verify(); err != nil {
				fmt.Fprintln(a.stdout, err.Error())
				return fmt.Errorf("descriptor '%s' is inconsistent", path)
			}

			a.logger.Info().
				Str("descriptor", path).
				Int("skinIds", len(out.SkinIDs)).
				Int("skins", out.Len()).
				Msg("descriptor is consistent")
			return nil
		},
	}
}
