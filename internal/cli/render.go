package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paradoxlab/reversal/pkg/pipeline"
	"github.com/paradoxlab/reversal/pkg/render"
	"github.com/paradoxlab/reversal/pkg/render/nodelink"
	"github.com/paradoxlab/reversal/pkg/simpson"
)

// renderFormats are the formats the render command accepts. The pipeline
// produces svg, dot, json, and txt directly; png and pdf are converted
// from SVG on the way out.
var renderFormats = map[string]bool{
	pipeline.FormatSVG:  true,
	pipeline.FormatDOT:  true,
	pipeline.FormatJSON: true,
	pipeline.FormatTXT:  true,
	"png":               true,
	"pdf":               true,
}

// renderCommand creates the render command for generating artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		scenarioPath string
		formatsStr   string
		output       string
		layer        int
		detailed     bool
		diagram      bool
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "render [tree.json]",
		Short: "Generate SVG figures, DOT diagrams, or other artifacts",
		Long: `Generate SVG figures, DOT diagrams, or other artifacts.

By default the render command draws a stacked-bar figure of a layer:
bar width is the sub-population's share and bar height its recovery
rate, with the control group crosshatched. With --diagram the SVG, PNG,
and PDF formats show the binary sub-population tree via Graphviz
instead.

The tree comes from a tree.json file (produced by 'generate') or is
built on the fly from a scenario (--scenario) when no file is given.
Results are cached locally for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}

			formats := parseFormats(formatsStr)
			for _, f := range formats {
				if !renderFormats[f] {
					return fmt.Errorf("invalid format: %q (must be one of: svg, dot, json, txt, png, pdf)", f)
				}
			}

			opts, err := loadScenarioOptions(scenarioPath)
			if err != nil {
				return err
			}
			opts.Layer = layer
			opts.Detailed = detailed
			return c.runRender(cmd.Context(), input, opts, formats, output, diagram, noCache)
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario TOML file (ignored when a tree.json is given)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, json, txt, png, pdf (comma-separated)")
	cmd.Flags().StringVarP(&output, "output", "o", appName, "output base path (extension is appended per format)")
	cmd.Flags().IntVarP(&layer, "layer", "l", 0, "layer to draw in the figure (default: deepest)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include group rates in diagram node labels")
	cmd.Flags().BoolVar(&diagram, "diagram", false, "draw the sub-population tree instead of the layer figure")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runRender resolves the tree, renders the requested formats, and writes
// one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, formats []string, output string, diagram, noCache bool) error {
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

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	artifacts, cacheHit, err := c.renderAll(ctx, runner, tree, opts, formats, diagram)
	if err != nil {
		spinner.StopWithError("Rendering failed")
		return err
	}
	spinner.Stop()

	columns := 0
	for _, l := range tree.Layers() {
		columns += 2 * l.Len()
	}

	printSuccess("Rendered %d artifact(s)", len(artifacts))
	printStats(tree.Depth(), columns, cacheHit)
	for _, format := range formats {
		path := fmt.Sprintf("%s.%s", output, format)
		if err := writeArtifact(path, artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// renderAll produces every requested format. Pipeline formats go through
// the cached runner; png and pdf are converted from the corresponding SVG.
func (c *CLI) renderAll(ctx context.Context, runner *pipeline.Runner, tree *simpson.Tree, opts pipeline.Options, formats []string, diagram bool) (map[string][]byte, bool, error) {
	pipelineFormats := make([]string, 0, len(formats))
	needSVG := false
	for _, f := range formats {
		switch f {
		case "png", "pdf":
			needSVG = true
		default:
			pipelineFormats = append(pipelineFormats, f)
		}
	}
	if needSVG && !contains(pipelineFormats, pipeline.FormatSVG) && !diagram {
		pipelineFormats = append(pipelineFormats, pipeline.FormatSVG)
	}
	if diagram && !contains(pipelineFormats, pipeline.FormatDOT) {
		pipelineFormats = append(pipelineFormats, pipeline.FormatDOT)
	}

	opts.Formats = pipelineFormats
	if opts.NeedsCensus() {
		census, err := runner.Census(ctx, tree, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts, hit, err := runner.RenderWithCacheInfo(ctx, tree, census, opts)
		if err != nil {
			return nil, false, err
		}
		return c.finishRender(artifacts, formats, diagram, hit)
	}

	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, tree, nil, opts)
	if err != nil {
		return nil, false, err
	}
	return c.finishRender(artifacts, formats, diagram, hit)
}

// finishRender fills in the derived formats (diagram SVG, png, pdf).
func (c *CLI) finishRender(artifacts map[string][]byte, formats []string, diagram, cacheHit bool) (map[string][]byte, bool, error) {
	if diagram {
		dot := string(artifacts[pipeline.FormatDOT])
		svg, err := nodelink.RenderSVG(dot)
		if err != nil {
			return nil, false, fmt.Errorf("render diagram: %w", err)
		}
		artifacts[pipeline.FormatSVG] = svg
	}

	for _, f := range formats {
		switch f {
		case "png":
			png, err := render.ToPNG(artifacts[pipeline.FormatSVG], 2.0)
			if err != nil {
				return nil, false, err
			}
			artifacts["png"] = png
		case "pdf":
			pdf, err := render.ToPDF(artifacts[pipeline.FormatSVG])
			if err != nil {
				return nil, false, err
			}
			artifacts["pdf"] = pdf
		}
	}
	return artifacts, cacheHit, nil
}

// writeArtifact writes one artifact file, creating parent directories.
func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
