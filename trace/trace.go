// Package trace implements the interprocedural search for type-violating
// stores. Seeded by the functions that touch intrinsically typed values, it
// explores the call graph through function summaries, propagating argument
// types along calling contexts, and reports traces of function names that
// witness a bug.
package trace

import (
	"sort"
	"strconv"
	"strings"

	"github.com/minio/highwayhash"
	"go.uber.org/zap"

	"github.com/viant/semcheck/analyzer"
	"github.com/viant/semcheck/semtype"
)

// MaxDepth bounds the exploration depth; virtual calls that re-enter the
// same handlers fan out pathologically past this point.
const MaxDepth = 8

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Report carries the deduplicated traces of one search, rendered as
// "f1 -> f2 -> fn" strings.
type Report struct {
	// Bugs are traces ending in a store whose incoming type disagrees
	// with the variable's prior.
	Bugs []string

	// InconsistentStores are traces ending in a store whose type
	// disagrees with an earlier store into the same variable.
	InconsistentStores []string
}

// Searcher explores the summary graph. It is single-threaded; the driver
// joins all workers before the search begins, so the indices are frozen.
type Searcher struct {
	indices  *analyzer.Indices
	prior    map[string]semtype.SemType
	numUnits int
	log      *zap.Logger

	memo map[string]exploration

	// firstSeen records the first type stored into each variable across
	// the whole search; later disagreeing stores are inconsistencies.
	firstSeen map[string]semtype.SemType
}

type exploration struct {
	bugs         [][]string
	inconsistent [][]string
}

func NewSearcher(indices *analyzer.Indices, prior map[string]semtype.SemType, numUnits int, log *zap.Logger) *Searcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Searcher{
		indices:   indices,
		prior:     prior,
		numUnits:  numUnits,
		log:       log,
		memo:      map[string]exploration{},
		firstSeen: map[string]semtype.SemType{},
	}
}

// Search runs the exploration from every seed function. Seeds iterate in
// sorted order so the resulting trace sets are deterministic regardless of
// how many workers built the indices.
func (s *Searcher) Search() Report {
	seeds := make([]string, 0, len(s.indices.FunctionsWithIntrinsicVars))
	for fn := range s.indices.FunctionsWithIntrinsicVars {
		seeds = append(seeds, fn)
	}
	sort.Strings(seeds)

	var report Report
	seenBugs := map[string]bool{}
	seenInconsistent := map[string]bool{}
	for i, fn := range seeds {
		s.log.Info("exploring seed", zap.Int("seed", i+1), zap.Int("total", len(seeds)), zap.String("function", fn))
		args, ok := s.initialArgs(fn)
		if !ok {
			// A seed without a summary means the definition body was
			// never observed; nothing to explore.
			s.log.Warn("seed has no summary", zap.String("function", fn))
			continue
		}
		result := s.explore(fn, map[string]bool{}, args, 0)
		for _, t := range result.bugs {
			rendered := renderTrace(t)
			if !seenBugs[rendered] {
				seenBugs[rendered] = true
				report.Bugs = append(report.Bugs, rendered)
			}
		}
		for _, t := range result.inconsistent {
			rendered := renderTrace(t)
			if !seenInconsistent[rendered] {
				seenInconsistent[rendered] = true
				report.InconsistentStores = append(report.InconsistentStores, rendered)
			}
		}
	}
	return report
}

// initialArgs builds the seed argument tuple from the function's first
// summary: universal in frames and units, each tagged with the parameter's
// recorded source kind.
func (s *Searcher) initialArgs(fn string) ([]semtype.SemType, bool) {
	summaries := s.indices.Summaries(fn)
	if len(summaries) == 0 {
		return nil, false
	}
	first := summaries[0]
	args := make([]semtype.SemType, 0, first.NumParams)
	for i := 0; i < first.NumParams; i++ {
		kind, ok := first.ParamSourceKinds[i]
		if !ok {
			kind = semtype.SourceUnknown
		}
		args = append(args, semtype.Universal(s.numUnits, semtype.Source{Kind: kind, ParamNo: i}))
	}
	return args, true
}

func (s *Searcher) explore(fn string, visited map[string]bool, args []semtype.SemType, depth int) exploration {
	if depth > MaxDepth {
		return exploration{}
	}
	key := memoKey(fn, args)
	if cached, ok := s.memo[key]; ok {
		return cached
	}

	var result exploration
	visited[fn] = true
	for _, summary := range s.indices.Summaries(fn) {
		for _, qname := range sortedStoreNames(summary) {
			ti := summary.StoreToTypeInfo[qname]
			for _, source := range ti.Sources {
				if source.Kind == semtype.SourceParam && source.ParamNo >= 0 && source.ParamNo < len(args) {
					incoming := args[source.ParamNo]
					if prior, ok := s.prior[qname]; ok && !semtype.Equal(prior, incoming) {
						result.bugs = append(result.bugs, []string{fn})
					}
				}
				// Every store participates in inconsistency detection,
				// whatever its source.
				if previous, ok := s.firstSeen[qname]; ok {
					if !semtype.Equal(previous, ti) {
						result.inconsistent = append(result.inconsistent, []string{fn})
					}
				} else {
					s.firstSeen[qname] = ti
				}
			}
		}

		for _, callee := range sortedCallees(summary) {
			if visited[callee] {
				continue
			}
			sites := summary.CallingContext[callee]
			if len(sites) == 0 {
				continue
			}
			// One exploration per callee per summary: the first call site
			// stands in for all of them to bound the search.
			sub := s.explore(callee, visited, sites[0].Args, depth+1)
			for _, t := range sub.bugs {
				result.bugs = append(result.bugs, prepend(fn, t))
			}
			for _, t := range sub.inconsistent {
				result.inconsistent = append(result.inconsistent, prepend(fn, t))
			}
		}
	}
	delete(visited, fn)
	s.memo[key] = result
	return result
}

func prepend(fn string, t []string) []string {
	out := make([]string, 0, len(t)+1)
	out = append(out, fn)
	return append(out, t...)
}

func renderTrace(t []string) string {
	return strings.Join(t, " -> ")
}

// memoKey hashes the function name together with the canonical form of the
// argument tuple.
func memoKey(fn string, args []semtype.SemType) string {
	hash, err := highwayhash.New64(hashKey)
	if err != nil {
		// the key is a compile-time constant of the right length
		panic(err)
	}
	_, _ = hash.Write([]byte(fn))
	for _, arg := range args {
		_, _ = hash.Write([]byte{0})
		_, _ = hash.Write([]byte(arg.Key()))
	}
	return fn + "#" + strconv.FormatUint(hash.Sum64(), 16)
}

func sortedStoreNames(summary *analyzer.FunctionSummary) []string {
	names := make([]string, 0, len(summary.StoreToTypeInfo))
	for name := range summary.StoreToTypeInfo {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedCallees(summary *analyzer.FunctionSummary) []string {
	callees := make([]string, 0, len(summary.CallingContext))
	for callee := range summary.CallingContext {
		callees = append(callees, callee)
	}
	sort.Strings(callees)
	return callees
}
