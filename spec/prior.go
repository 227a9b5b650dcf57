package spec

import (
	"encoding/json"
	"fmt"

	"github.com/viant/semcheck/semtype"
)

type priorEntry struct {
	VariableName string `json:"VariableName"`
	SemanticInfo struct {
		CoordinateFrames []string `json:"CoordinateFrames"`
		Units            []string `json:"Units"`
	} `json:"SemanticInfo"`
}

// LoadPrior parses the JSON prior and merges it into the index's prior map.
// Frame names resolve through the frame enum (unknown names degrade to the
// sentinel); unit spellings resolve through the unit table (unknown
// spellings take the distinguished unknown id). When an entry names exactly
// one unit whose spelling has a known SI form, the prior type also carries
// that dimension so equality can be dimensional.
func (x *Index) LoadPrior(data []byte) error {
	var entries []priorEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse prior types: %w", err)
	}
	for _, entry := range entries {
		if entry.VariableName == "" {
			return fmt.Errorf("prior entry without VariableName")
		}
		ti := semtype.New()
		for _, frame := range entry.SemanticInfo.CoordinateFrames {
			ti.Frames[semtype.FrameByName(frame)] = true
		}
		for _, unit := range entry.SemanticInfo.Units {
			ti.Units[x.Units.Lookup(unit)] = true
		}
		if len(entry.SemanticInfo.Units) == 1 {
			if dim, ok := semtype.StringToDimension(entry.SemanticInfo.Units[0]); ok {
				ti.Dim = &dim
			}
		}
		ti.Sources = append(ti.Sources, semtype.Source{Kind: semtype.SourceIntrinsic, ParamNo: -1})
		x.Prior[entry.VariableName] = ti
	}
	return nil
}

// InterestingWrites returns the set of qualified names whose stores the
// walker should record, i.e. every variable named by the prior.
func (x *Index) InterestingWrites() map[string]bool {
	writes := make(map[string]bool, len(x.Prior))
	for name := range x.Prior {
		writes[name] = true
	}
	return writes
}
