package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paradoxlab/reversal/pkg/pipeline"
	"github.com/paradoxlab/reversal/pkg/treeio"
)

// generateCommand creates the generate command for building reversal trees.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		scenarioPath string
		depth        int
		output       string
		noCache      bool
		refresh      bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build a reversal tree and save it as JSON",
		Long: `Build a reversal tree and save it as JSON.

The generate command expands a root layer into the requested number of
layers. Each layer splits every sub-population in two so that the
treatment/control comparison flips sign relative to the layer above.

The root layer and constants come from a scenario file (--scenario) or
from the built-in default: a 60% treatment group versus a 40% control
group. Results are cached locally for faster subsequent runs.

The resulting tree.json can be fed to 'report', 'render', and 'explore'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadScenarioOptions(scenarioPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("depth") {
				opts.Depth = depth
			}
			opts.Refresh = refresh
			return c.runGenerate(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario TOML file")
	cmd.Flags().IntVarP(&depth, "depth", "d", pipeline.DefaultDepth, "number of layers to generate")
	cmd.Flags().StringVarP(&output, "output", "o", "tree.json", "output file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "rebuild even if cached")

	return cmd
}

// runGenerate builds the tree and writes it to disk.
func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating %d layers...", opts.Depth))
	spinner.Start()

	tree, cacheHit, err := runner.BuildWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	spinner.Stop()

	if err := treeio.WriteTreeFile(tree, output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	columns := 0
	for _, l := range tree.Layers() {
		columns += 2 * l.Len()
	}

	printSuccess("Generated reversal tree")
	printStats(tree.Depth(), columns, cacheHit)
	printFile(output)
	printNextStep("Inspect the population counts", fmt.Sprintf("reversal report %s", output))
	return nil
}
