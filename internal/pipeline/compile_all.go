package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/DrTomLLC/T-Programming-Language/internal/source"
)

// CompileAll compiles every unit on parallel workers. Units are independent;
// the interner is the only shared state and results come back in input order.
// The returned error is the first internal lowering failure, if any. User
// diagnostics stay attached to their unit's Result.
func CompileAll(ctx context.Context, units []Unit, hooks Hooks, interner *source.Interner) ([]*Result, error) {
	results := make([]*Result, len(units))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := Compile(unit, hooks, interner)
			results[i] = r
			return r.Err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
