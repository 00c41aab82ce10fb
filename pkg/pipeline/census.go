package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/paradoxlab/reversal/pkg/census"
	apperrors "github.com/paradoxlab/reversal/pkg/errors"
	"github.com/paradoxlab/reversal/pkg/observability"
	"github.com/paradoxlab/reversal/pkg/simpson"
)

// DenormalizeTree computes the integer census for a built tree.
// This is the uncached stage implementation; callers that want caching
// should go through [Runner.Census].
func DenormalizeTree(ctx context.Context, tree *simpson.Tree, opts Options) (*census.Census, error) {
	if err := opts.ValidateForCensus(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Pipeline().OnDenormalizeStart(ctx, tree.Depth(), opts.MaxDenominator)

	c, err := census.Denormalize(tree, census.Options{
		MaxDenominator: opts.MaxDenominator,
		Strict:         opts.Strict,
	})
	warnings := 0
	if c != nil {
		warnings = len(c.Warnings)
	}
	observability.Pipeline().OnDenormalizeComplete(ctx, tree.Depth(), warnings, time.Since(start), err)
	if err != nil {
		code := apperrors.CodeInternal
		if errors.Is(err, census.ErrPrecisionLoss) {
			code = apperrors.CodePrecisionLoss
		}
		return nil, apperrors.Wrap(err, code, "denormalize tree")
	}

	for _, w := range c.Warnings {
		opts.Logger.Warn("precision loss", "detail", w)
	}
	opts.Logger.Debug("denormalized tree", "total", c.Total.String(), "warnings", warnings)
	return c, nil
}
