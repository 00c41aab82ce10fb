package pipeline

import (
	"context"
	"time"

	apperrors "github.com/paradoxlab/reversal/pkg/errors"
	"github.com/paradoxlab/reversal/pkg/observability"
	"github.com/paradoxlab/reversal/pkg/simpson"
)

// BuildTree expands the root layer into a full reversal tree.
// This is the uncached stage implementation; callers that want caching
// should go through [Runner.Build].
func BuildTree(ctx context.Context, opts Options) (*simpson.Tree, error) {
	if err := opts.ValidateForBuild(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnBuildStart(ctx, opts.Depth, opts.Root.Len())

	splitter, err := simpson.NewSplitter(opts.SplitConstants())
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidConstants, "create splitter")
	}

	tree, err := splitter.Build(*opts.Root, opts.Depth)
	observability.Pipeline().OnBuildComplete(ctx, opts.Depth, columnCount(tree), time.Since(start), err)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidLayer, "build tree")
	}

	opts.Logger.Debug("built tree", "depth", tree.Depth(), "columns", columnCount(tree))
	return tree, nil
}

// columnCount totals the columns across all layers: 4(2^k - 1) for a
// single-pair root of depth k.
func columnCount(t *simpson.Tree) int {
	if t == nil {
		return 0
	}
	n := 0
	for _, l := range t.Layers() {
		n += 2 * l.Len()
	}
	return n
}
