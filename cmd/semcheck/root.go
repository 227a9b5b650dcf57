package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"go.uber.org/zap"

	"github.com/viant/semcheck/analyzer"
	"github.com/viant/semcheck/compiledb"
	"github.com/viant/semcheck/spec"
	"github.com/viant/semcheck/trace"
)

var (
	compilationDatabase string
	mavlinkDefinitions  string
	priorTypes          string
	lmcpDefinitions     string
	unitDefinitions     string
	jobs                int
	verbose             bool

	bugColor          = color.New(color.FgRed, color.Bold)
	inconsistentColor = color.New(color.FgYellow, color.Bold)
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&compilationDatabase, "compilation-database", "c", "", "directory containing the compilation database")
	flags.StringVarP(&mavlinkDefinitions, "mavlink-definitions", "m", "", "path to XML file containing the MAVLink spec")
	flags.StringVarP(&priorTypes, "prior-types", "p", "", "path to JSON file describing previously known types")
	flags.StringVar(&lmcpDefinitions, "lmcp-definitions", "", "path to an LMCP MDM file describing message units")
	flags.StringVar(&unitDefinitions, "units", "", "path to a YAML file extending the unit dimension table")
	flags.IntVarP(&jobs, "jobs", "j", 0, "number of parallel workers (0 = hardware parallelism)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	for _, required := range []string{"compilation-database", "mavlink-definitions", "prior-types"} {
		if err := rootCmd.MarkFlagRequired(required); err != nil {
			panic(err)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "semcheck",
	Short: "Static analysis of unit and coordinate-frame bugs in UAV flight software",
	Long: `semcheck is a whole-program static analyzer for C/C++ flight software. It
infers the semantic type (coordinate frame, physical unit, SI dimension) of
every value, follows those types across function boundaries, and reports
frame fields used without a constraint check plus stores whose type
disagrees with a previously established one.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          run,
}

func run(cmd *cobra.Command, _ []string) error {
	log := zap.NewNop()
	if verbose {
		development, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		log = development
		defer func() { _ = log.Sync() }()
	}
	ctx := cmd.Context()
	fs := afs.New()

	index, err := spec.Load(ctx, fs, spec.Options{
		ProtocolURL: mavlinkDefinitions,
		PriorURL:    priorTypes,
		LMCPURL:     lmcpDefinitions,
		UnitsURL:    unitDefinitions,
	})
	if err != nil {
		return err
	}

	commands, err := compiledb.Load(ctx, fs, compilationDatabase)
	if err != nil {
		return err
	}

	a := analyzer.New(index, analyzer.WithJobs(jobs), analyzer.WithLogger(log))
	indices, err := a.Analyze(ctx, commands)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, fn := range indices.Unconstrained {
		fmt.Fprintf(out, "%s unconstrained MAV frame used in: %s\n", bugColor.Sprint("BUG:"), fn)
	}

	searcher := trace.NewSearcher(indices, index.Prior, index.Units.Len(), log)
	report := searcher.Search()
	for _, t := range report.Bugs {
		fmt.Fprintf(out, "%s %s\n", bugColor.Sprint("BUG:"), t)
	}
	for _, t := range report.InconsistentStores {
		fmt.Fprintf(out, "%s %s\n", inconsistentColor.Sprint("Inconsistent store:"), t)
	}
	return nil
}
