package analyzer

import (
	"sync"

	"github.com/viant/semcheck/semtype"
)

// CallSite captures one observed call: the semantic types of its arguments
// in order.
type CallSite struct {
	Args []semtype.SemType
}

// FunctionSummary abstracts one function definition: whom it calls and with
// what argument types, how many parameters it takes and where their types
// come from, and which interesting qualified names it stores into.
type FunctionSummary struct {
	Callees          map[string]bool
	CallingContext   map[string][]CallSite
	NumParams        int
	ParamSourceKinds map[int]semtype.SourceKind
	StoreToTypeInfo  map[string]semtype.SemType
}

func NewFunctionSummary() *FunctionSummary {
	return &FunctionSummary{
		Callees:          map[string]bool{},
		CallingContext:   map[string][]CallSite{},
		ParamSourceKinds: map[int]semtype.SourceKind{},
		StoreToTypeInfo:  map[string]semtype.SemType{},
	}
}

// Indices are the shared global maps the parallel pass populates. A single
// coarse mutex guards every mutation; walk time dominates lock-hold time, so
// contention is not a concern.
type Indices struct {
	mu sync.Mutex

	// SummariesByTU maps a translation-unit index to that unit's
	// function summaries by name.
	SummariesByTU []map[string]*FunctionSummary

	// NameToTUs is the inverted index from function name to the units
	// that define it.
	NameToTUs map[string]map[int]bool

	// FunctionsWithIntrinsicVars holds every function that declared a
	// local or parameter of an intrinsically typed struct.
	FunctionsWithIntrinsicVars map[string]bool

	// SeenDefinitions dedups definitions across units by stable symbol
	// identifier; the first worker to claim an id owns the summary.
	SeenDefinitions map[string]bool

	// Unconstrained lists functions that dereferenced a frame-bearing
	// message without first checking its frame discriminator.
	Unconstrained []string
}

func NewIndices(numTUs int) *Indices {
	indices := &Indices{
		SummariesByTU:              make([]map[string]*FunctionSummary, numTUs),
		NameToTUs:                  map[string]map[int]bool{},
		FunctionsWithIntrinsicVars: map[string]bool{},
		SeenDefinitions:            map[string]bool{},
	}
	for i := range indices.SummariesByTU {
		indices.SummariesByTU[i] = map[string]*FunctionSummary{}
	}
	return indices
}

// claimDefinition marks usr as analyzed and reports whether the caller is
// first. Later claimants still walk the definition for their own unit's
// expansion of it, but must not commit a second summary.
func (x *Indices) claimDefinition(usr string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.SeenDefinitions[usr] {
		return false
	}
	x.SeenDefinitions[usr] = true
	return true
}

func (x *Indices) seen(usr string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.SeenDefinitions[usr]
}

func (x *Indices) addIntrinsicFunction(name string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.FunctionsWithIntrinsicVars[name] = true
}

func (x *Indices) addUnconstrained(name string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.Unconstrained = append(x.Unconstrained, name)
}

// commit stores a finished summary for (tu, name) and updates the inverted
// index.
func (x *Indices) commit(tu int, name string, summary *FunctionSummary) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.SummariesByTU[tu][name] = summary
	tus, ok := x.NameToTUs[name]
	if !ok {
		tus = map[int]bool{}
		x.NameToTUs[name] = tus
	}
	tus[tu] = true
}

// Summaries returns every summary recorded for name, ordered by unit index.
func (x *Indices) Summaries(name string) []*FunctionSummary {
	var result []*FunctionSummary
	tus, ok := x.NameToTUs[name]
	if !ok {
		return nil
	}
	for tu := 0; tu < len(x.SummariesByTU); tu++ {
		if !tus[tu] {
			continue
		}
		if summary, ok := x.SummariesByTU[tu][name]; ok {
			result = append(result, summary)
		}
	}
	return result
}
