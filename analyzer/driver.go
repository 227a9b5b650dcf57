package analyzer

import (
	"context"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/viant/semcheck/compiledb"
	"github.com/viant/semcheck/cursor/cpp"
	"github.com/viant/semcheck/workdir"
)

// Analyze processes every translation unit of the compilation database and
// returns the populated global indices. Units are partitioned round-robin
// across a fixed pool of workers; each worker owns one provider and enters
// the unit's build directory before reading it so relative source paths
// resolve without disturbing sibling workers. A unit that cannot be entered,
// read or parsed is logged and skipped; the analysis never halts on one bad
// unit.
func (a *Analyzer) Analyze(ctx context.Context, commands []compiledb.Command) (*Indices, error) {
	indices := NewIndices(len(commands))
	workers := a.jobs
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(commands) && len(commands) > 0 {
		workers = len(commands)
	}
	factory := a.newProvider
	if factory == nil {
		factory = func() Provider { return cpp.New() }
	}

	g, gctx := errgroup.WithContext(ctx)
	for worker := 0; worker < workers; worker++ {
		g.Go(func(worker int) func() error {
			return func() error {
				if err := workdir.Pin(); err != nil {
					return err
				}
				provider := factory()
				for i := worker; i < len(commands); i += workers {
					select {
					case <-gctx.Done():
						return gctx.Err()
					default:
					}
					a.analyzeOne(provider, commands[i], i, len(commands), indices)
				}
				return nil
			}
		}(worker))
	}
	if err := g.Wait(); err != nil {
		return indices, err
	}
	return indices, nil
}

func (a *Analyzer) analyzeOne(provider Provider, cmd compiledb.Command, tu, total int, indices *Indices) {
	a.log.Info("analyzing translation unit",
		zap.Int("unit", tu+1),
		zap.Int("total", total),
		zap.String("file", cmd.File))

	release, err := workdir.Enter(cmd.Directory)
	if err != nil {
		a.log.Warn("unable to enter build directory, skipping",
			zap.String("directory", cmd.Directory), zap.Error(err))
		return
	}
	source, err := os.ReadFile(cmd.File)
	release()
	if err != nil {
		a.log.Warn("unable to read translation unit, skipping",
			zap.String("file", cmd.FullPath()), zap.Error(err))
		return
	}
	root, err := provider.Parse(cmd.File, source)
	if err != nil {
		a.log.Warn("error building translation unit, skipping",
			zap.String("file", cmd.FullPath()), zap.Error(err))
		return
	}
	a.AnalyzeTU(tu, root, indices)
}
