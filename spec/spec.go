package spec

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/semcheck/semtype"
)

// Index is the read-only view of the protocol spec and prior the analyzer
// consumes. It is built once before the parallel pass and never mutated
// afterwards.
type Index struct {
	// TypeToFrameField names, per message struct, the single field that
	// carries the frame discriminator.
	TypeToFrameField map[string]string

	// TypeToFieldUnits maps message structs to their unit-bearing fields.
	TypeToFieldUnits map[string]map[string]semtype.UnitID

	// Units interns unit spellings to dense ids.
	Units *semtype.UnitTable

	// Prior maps qualified variable (or accessor) names to externally
	// known semantic types.
	Prior map[string]semtype.SemType
}

func NewIndex() *Index {
	return &Index{
		TypeToFrameField: map[string]string{},
		TypeToFieldUnits: map[string]map[string]semtype.UnitID{},
		Units:            semtype.NewUnitTable(),
		Prior:            map[string]semtype.SemType{},
	}
}

// IsMessageType reports whether typeName is a struct the spec knows about,
// either through a frame field or through unit-bearing fields.
func (x *Index) IsMessageType(typeName string) bool {
	if _, ok := x.TypeToFrameField[typeName]; ok {
		return true
	}
	_, ok := x.TypeToFieldUnits[typeName]
	return ok
}

// HasFrameField reports whether typeName carries a frame discriminator.
func (x *Index) HasFrameField(typeName string) bool {
	_, ok := x.TypeToFrameField[typeName]
	return ok
}

// Options names the input documents of a Load.
type Options struct {
	ProtocolURL string
	PriorURL    string
	LMCPURL     string // optional
	UnitsURL    string // optional dimension-table extension
}

// Load reads and indexes all configured spec documents. Any failure here is
// a configuration error; the caller is expected to abort.
func Load(ctx context.Context, fs afs.Service, options Options) (*Index, error) {
	index := NewIndex()

	if options.UnitsURL != "" {
		data, err := fs.DownloadWithURL(ctx, options.UnitsURL)
		if err != nil {
			return nil, fmt.Errorf("failed to read unit definitions %v: %w", options.UnitsURL, err)
		}
		if err := semtype.ExtendDimensionTable(data); err != nil {
			return nil, err
		}
	}

	data, err := fs.DownloadWithURL(ctx, options.ProtocolURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocol spec %v: %w", options.ProtocolURL, err)
	}
	if err := index.LoadProtocol(data); err != nil {
		return nil, err
	}

	if options.LMCPURL != "" {
		data, err = fs.DownloadWithURL(ctx, options.LMCPURL)
		if err != nil {
			return nil, fmt.Errorf("failed to read LMCP spec %v: %w", options.LMCPURL, err)
		}
		if err = index.LoadLMCP(data); err != nil {
			return nil, err
		}
	}

	data, err = fs.DownloadWithURL(ctx, options.PriorURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read prior types %v: %w", options.PriorURL, err)
	}
	if err = index.LoadPrior(data); err != nil {
		return nil, err
	}
	return index, nil
}
