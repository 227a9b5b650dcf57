package semtype

import (
	"sort"
	"strconv"
	"strings"
)

// SourceKind tags the provenance of a type fact.
type SourceKind int

const (
	// SourceParam marks a value that flowed in through a parameter.
	SourceParam SourceKind = iota
	// SourceVar marks a value copied from another variable.
	SourceVar
	// SourceIntrinsic marks a type derived directly from the protocol spec.
	SourceIntrinsic
	// SourceUnknown marks a value whose origin could not be established.
	SourceUnknown
)

func (k SourceKind) String() string {
	switch k {
	case SourceParam:
		return "param"
	case SourceVar:
		return "var"
	case SourceIntrinsic:
		return "intrinsic"
	default:
		return "unknown"
	}
}

// Source is a single provenance record. ParamNo is meaningful only for
// SourceParam; VarName only for SourceVar.
type Source struct {
	Kind    SourceKind
	ParamNo int
	VarName string
}

// SemType is the value the analyzer carries for each expression: the frames
// and units it may take on, an optional SI dimension, and the provenance
// chain explaining how the type was established.
type SemType struct {
	Frames  map[FrameID]bool
	Units   map[UnitID]bool
	Dim     *Dimension
	Sources []Source
}

// New returns an empty SemType (no frames, no units, no dimension).
func New() SemType {
	return SemType{Frames: map[FrameID]bool{}, Units: map[UnitID]bool{}}
}

// Universal returns the top element: every frame, every unit, no dimension.
func Universal(numUnits int, sources ...Source) SemType {
	t := SemType{Frames: AllFrames(), Units: make(map[UnitID]bool, numUnits)}
	for i := 0; i < numUnits; i++ {
		t.Units[UnitID(i)] = true
	}
	t.Sources = append(t.Sources, sources...)
	return t
}

// IntrinsicFromField builds the type of a message-struct field: all frames
// (the discriminator has not been checked yet), the field's declared unit,
// and dim as given by the caller (nil leaves the type without a dimension).
func IntrinsicFromField(unit UnitID, dim *Dimension, source Source) SemType {
	t := SemType{Frames: AllFrames(), Units: map[UnitID]bool{unit: true}, Dim: dim}
	t.Sources = append(t.Sources, source)
	return t
}

// Clone deep-copies a SemType so callers can mutate without aliasing.
func (t SemType) Clone() SemType {
	out := SemType{
		Frames:  make(map[FrameID]bool, len(t.Frames)),
		Units:   make(map[UnitID]bool, len(t.Units)),
		Sources: append([]Source(nil), t.Sources...),
	}
	for f := range t.Frames {
		out.Frames[f] = true
	}
	for u := range t.Units {
		out.Units[u] = true
	}
	if t.Dim != nil {
		d := *t.Dim
		out.Dim = &d
	}
	return out
}

// Merge unions other into t: frames and units union, sources append. The
// dimension survives only when both sides agree on it.
func (t *SemType) Merge(other SemType) {
	if t.Frames == nil {
		t.Frames = map[FrameID]bool{}
	}
	if t.Units == nil {
		t.Units = map[UnitID]bool{}
	}
	for f := range other.Frames {
		t.Frames[f] = true
	}
	for u := range other.Units {
		t.Units[u] = true
	}
	t.Sources = append(t.Sources, other.Sources...)
	if t.Dim != nil && other.Dim != nil && t.Dim.Equal(*other.Dim) {
		return
	}
	if t.Dim == nil && other.Dim == nil {
		return
	}
	// Disagreeing (or one-sided) dimensions lose precision.
	t.Dim = nil
}

// Equal compares two semantic types. When both carry a dimension the
// comparison is exactly dimensional, which lets "cm" match a prior declared
// as "centimeter". Otherwise it falls back to set equality on frames and
// units. Provenance never participates.
func Equal(a, b SemType) bool {
	if bothDimensional(a, b) {
		return a.Dim.Equal(*b.Dim)
	}
	return setsEqual(a, b)
}

func bothDimensional(a, b SemType) bool {
	return a.Dim != nil && b.Dim != nil
}

func setsEqual(a, b SemType) bool {
	if len(a.Frames) != len(b.Frames) || len(a.Units) != len(b.Units) {
		return false
	}
	for f := range a.Frames {
		if !b.Frames[f] {
			return false
		}
	}
	for u := range a.Units {
		if !b.Units[u] {
			return false
		}
	}
	return true
}

// Key renders a canonical representation of the type suitable for hashing
// and memoization. Provenance is excluded, matching Equal.
func (t SemType) Key() string {
	frames := make([]int, 0, len(t.Frames))
	for f := range t.Frames {
		frames = append(frames, int(f))
	}
	sort.Ints(frames)
	units := make([]int, 0, len(t.Units))
	for u := range t.Units {
		units = append(units, int(u))
	}
	sort.Ints(units)

	var sb strings.Builder
	sb.WriteByte('f')
	for _, f := range frames {
		sb.WriteString(strconv.Itoa(f))
		sb.WriteByte(',')
	}
	sb.WriteByte('u')
	for _, u := range units {
		sb.WriteString(strconv.Itoa(u))
		sb.WriteByte(',')
	}
	if t.Dim != nil {
		d := *t.Dim
		sb.WriteByte('d')
		for _, c := range d.Coefficients {
			sb.WriteString(strconv.Itoa(c))
			sb.WriteByte(':')
		}
		sb.WriteString(strconv.FormatInt(d.Num, 10))
		sb.WriteByte('/')
		sb.WriteString(strconv.FormatInt(d.Den, 10))
	}
	return sb.String()
}

// HasSourceKind reports whether any provenance record carries kind.
func (t SemType) HasSourceKind(kind SourceKind) bool {
	for _, s := range t.Sources {
		if s.Kind == kind {
			return true
		}
	}
	return false
}
