package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/paradoxlab/reversal/pkg/pipeline"
	"github.com/paradoxlab/reversal/pkg/simpson"
	"github.com/paradoxlab/reversal/pkg/treeio"
)

// reportCommand creates the report command for printing census counts.
func (c *CLI) reportCommand() *cobra.Command {
	var (
		scenarioPath string
		maxDen       int64
		strict       bool
		output       string
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "report [tree.json]",
		Short: "Print the integer population census of a tree",
		Long: `Print the integer population census of a tree.

The report command denormalizes a reversal tree: every proportion is
snapped to an exact rational (with denominators capped by
--max-denominator) and the layers are scaled to the smallest shared
population size that makes every sub-population a whole number of
people.

The tree comes from a tree.json file (produced by 'generate') or is
built on the fly from a scenario (--scenario) when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}

			opts, err := loadScenarioOptions(scenarioPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-denominator") {
				opts.MaxDenominator = maxDen
			}
			if cmd.Flags().Changed("strict") {
				opts.Strict = strict
			}
			return c.runReport(cmd.Context(), input, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario TOML file (ignored when a tree.json is given)")
	cmd.Flags().Int64Var(&maxDen, "max-denominator", 0, "denominator cap for rational approximation")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on any precision loss")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runReport resolves the tree, denormalizes it, and emits the report.
func (c *CLI) runReport(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	tree, err := c.resolveTree(ctx, runner, input, opts)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Counting people...")
	spinner.Start()

	census, cacheHit, err := runner.CensusWithCacheInfo(ctx, tree, opts)
	if err != nil {
		spinner.StopWithError("Census failed")
		return err
	}
	spinner.Stop()

	for _, w := range census.Warnings {
		printWarning("%s", w)
	}

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer f.Close()
		if err := census.WriteReport(f); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		printSuccess("Census of %s people", census.Total.String())
		printStats(tree.Depth(), 0, cacheHit)
		printFile(output)
		return nil
	}

	printSuccess("Census of %s people", census.Total.String())
	printStats(tree.Depth(), 0, cacheHit)
	fmt.Print(census.Report())
	return nil
}

// resolveTree loads a tree from disk or builds one from the options.
func (c *CLI) resolveTree(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options) (*simpson.Tree, error) {
	if input != "" {
		tree, err := treeio.ReadTreeFile(input)
		if err != nil {
			return nil, fmt.Errorf("load tree %s: %w", input, err)
		}
		return tree, nil
	}

	prog := newProgress(c.Logger)
	tree, err := runner.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Generated %d layers", tree.Depth()))
	return tree, nil
}
