// Package analyzer hosts the flow-sensitive semantic-type analysis: the
// per-function abstract interpreter, the scope environment, the function
// summaries it produces, and the parallel driver that populates the shared
// indices across translation units.
package analyzer

import (
	"go.uber.org/zap"

	"github.com/viant/semcheck/cursor"
	"github.com/viant/semcheck/spec"
)

// Provider parses one translation unit into a cursor tree. Implementations
// are not required to be safe for concurrent use; the driver builds one per
// worker through the configured factory.
type Provider interface {
	Parse(filename string, source []byte) (cursor.Cursor, error)
}

// ProviderFactory builds a Provider for one worker.
type ProviderFactory func() Provider

// Analyzer coordinates the analysis of a set of translation units against a
// loaded spec index.
type Analyzer struct {
	index       *spec.Index
	interesting map[string]bool
	jobs        int
	log         *zap.Logger
	newProvider ProviderFactory
}

func New(index *spec.Index, options ...Option) *Analyzer {
	ret := &Analyzer{
		index:       index,
		interesting: index.InterestingWrites(),
		log:         zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(ret)
		}
	}
	return ret
}

// AnalyzeTU walks one already-parsed translation unit into indices. The
// parallel driver calls this per unit; tests drive it directly.
func (a *Analyzer) AnalyzeTU(tu int, root cursor.Cursor, indices *Indices) {
	w := newWalker(a.index, a.interesting, indices, tu, a.log)
	w.WalkTU(root)
}
