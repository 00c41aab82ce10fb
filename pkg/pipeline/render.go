package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/paradoxlab/reversal/pkg/census"
	apperrors "github.com/paradoxlab/reversal/pkg/errors"
	"github.com/paradoxlab/reversal/pkg/observability"
	"github.com/paradoxlab/reversal/pkg/render/figure"
	"github.com/paradoxlab/reversal/pkg/render/nodelink"
	"github.com/paradoxlab/reversal/pkg/simpson"
	"github.com/paradoxlab/reversal/pkg/treeio"
)

// RenderArtifacts produces the requested output formats from a built tree
// and (for the text report) its census. This is the uncached stage
// implementation; callers that want caching should go through [Runner.Render].
func RenderArtifacts(ctx context.Context, tree *simpson.Tree, c *census.Census, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)

	artifacts := make(map[string][]byte, len(opts.Formats))
	var err error
	for _, format := range opts.Formats {
		var data []byte
		data, err = renderFormat(tree, c, opts, format)
		if err != nil {
			break
		}
		artifacts[format] = data
	}

	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func renderFormat(tree *simpson.Tree, c *census.Census, opts Options, format string) ([]byte, error) {
	switch format {
	case FormatSVG:
		k := opts.Layer
		if k == 0 {
			k = tree.Depth()
		}
		// Groups keeps the treatment population on the left on every
		// layer even though the taller/shorter roles alternate.
		treatment, control, ok := tree.Groups(k)
		if !ok {
			return nil, apperrors.New(apperrors.CodeInvalidDepth,
				"layer %d does not exist in a depth-%d tree", k, tree.Depth())
		}
		return figure.RenderSVG(treatment, control,
			figure.WithSize(DefaultFigureWidth, DefaultFigureHeight),
			figure.WithTitle(fmt.Sprintf("layer %d", k))), nil

	case FormatDOT:
		return []byte(nodelink.ToDOT(tree, nodelink.Options{Detailed: opts.Detailed})), nil

	case FormatJSON:
		data, err := treeio.MarshalTree(tree)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "serialize tree")
		}
		return data, nil

	case FormatTXT:
		if c == nil {
			return nil, apperrors.New(apperrors.CodeInternal, "text report requires a census")
		}
		return []byte(c.Report()), nil

	default:
		return nil, ValidateFormat(format)
	}
}
