package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/viant/semcheck/cursor/cpp"
	"github.com/viant/semcheck/semtype"
	"github.com/viant/semcheck/spec"
)

const testProtocol = `<?xml version="1.0"?>
<mavlink>
  <messages>
    <message id="330" name="OBSTACLE_DISTANCE">
      <field type="uint8_t" name="frame" enum="MAV_FRAME">frame</field>
      <field type="uint16_t" name="min_distance" units="cm">min</field>
      <field type="uint16_t" name="max_distance" units="cm">max</field>
    </message>
  </messages>
</mavlink>`

const testPrior = `[
  {"VariableName": "Copter::alt_in_cm",
   "SemanticInfo": {"CoordinateFrames": ["MAV_FRAME_GLOBAL"], "Units": ["cm"]}}
]`

func testIndex(t *testing.T) *spec.Index {
	t.Helper()
	index := spec.NewIndex()
	require.NoError(t, index.LoadProtocol([]byte(testProtocol)))
	require.NoError(t, index.LoadPrior([]byte(testPrior)))
	return index
}

// analyzeSource runs the walker over a single in-memory translation unit.
func analyzeSource(t *testing.T, index *spec.Index, source string) *Indices {
	t.Helper()
	indices := NewIndices(1)
	root, err := cpp.New().Parse("test.cpp", []byte(source))
	require.NoError(t, err)
	New(index, WithLogger(zap.NewNop())).AnalyzeTU(0, root, indices)
	return indices
}

func TestUnconstrainedFrameUse(t *testing.T) {
	indices := analyzeSource(t, testIndex(t), `
void f() {
	mavlink_obstacle_distance_t dist;
	int closest = dist.min_distance;
}
`)
	assert.Equal(t, []string{"f"}, indices.Unconstrained)
	assert.True(t, indices.FunctionsWithIntrinsicVars["f"])
	require.Contains(t, indices.SummariesByTU[0], "f")
}

func TestFrameConstraintSuppressesBug(t *testing.T) {
	indices := analyzeSource(t, testIndex(t), `
void f() {
	mavlink_obstacle_distance_t dist;
	int closest = 0;
	if (dist.frame == 0) {
		closest = dist.min_distance;
	}
}
`)
	assert.Empty(t, indices.Unconstrained)
	assert.True(t, indices.FunctionsWithIntrinsicVars["f"])
}

func TestSwitchOnFrameCountsAsConstraint(t *testing.T) {
	indices := analyzeSource(t, testIndex(t), `
void f() {
	mavlink_obstacle_distance_t dist;
	int closest = 0;
	switch (dist.frame) {
	case 0:
		closest = dist.min_distance;
		break;
	}
}
`)
	assert.Empty(t, indices.Unconstrained)
}

func TestConstraintOnOtherFieldDoesNotCount(t *testing.T) {
	indices := analyzeSource(t, testIndex(t), `
void f() {
	mavlink_obstacle_distance_t dist;
	int closest = 0;
	if (dist.min_distance == 0) {
		closest = dist.max_distance;
	}
}
`)
	assert.Equal(t, []string{"f"}, indices.Unconstrained)
}

func TestInterproceduralCallAndStore(t *testing.T) {
	index := testIndex(t)
	indices := analyzeSource(t, index, `
class Copter {
public:
	int alt_in_cm;
	void f();
	void g(int x);
};

void Copter::f() {
	mavlink_obstacle_distance_t dist;
	g(dist.min_distance);
}

void Copter::g(int x) {
	alt_in_cm = x;
}
`)
	f := indices.SummariesByTU[0]["f"]
	require.NotNil(t, f)
	require.Len(t, f.CallingContext["g"], 1)
	args := f.CallingContext["g"][0].Args
	require.Len(t, args, 1)
	cm := index.Units.Lookup("cm")
	assert.True(t, args[0].Units[cm], "the argument carries the field's unit")
	assert.True(t, args[0].HasSourceKind(semtype.SourceIntrinsic))

	g := indices.SummariesByTU[0]["g"]
	require.NotNil(t, g)
	assert.Equal(t, 1, g.NumParams)
	assert.Equal(t, semtype.SourceUnknown, g.ParamSourceKinds[0])

	store, ok := g.StoreToTypeInfo["Copter::alt_in_cm"]
	require.True(t, ok, "the store into the prior-known member is recorded")
	require.Len(t, store.Sources, 1)
	assert.Equal(t, semtype.SourceParam, store.Sources[0].Kind)
	assert.Equal(t, 0, store.Sources[0].ParamNo)
}

func TestIntrinsicParameterExpansion(t *testing.T) {
	index := testIndex(t)
	indices := analyzeSource(t, index, `
void handle(mavlink_obstacle_distance_t msg, int limit) {
	report(msg.min_distance, limit);
}
`)
	summary := indices.SummariesByTU[0]["handle"]
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.NumParams)
	assert.Equal(t, semtype.SourceIntrinsic, summary.ParamSourceKinds[0])
	assert.Equal(t, semtype.SourceUnknown, summary.ParamSourceKinds[1])
	assert.True(t, indices.FunctionsWithIntrinsicVars["handle"])

	require.Len(t, summary.CallingContext["report"], 1)
	args := summary.CallingContext["report"][0].Args
	require.Len(t, args, 2)
	assert.True(t, args[0].Units[index.Units.Lookup("cm")])
	assert.True(t, args[1].HasSourceKind(semtype.SourceParam))
}

func TestScopeJoinAcrossIf(t *testing.T) {
	index := testIndex(t)
	indices := analyzeSource(t, index, `
void f() {
	mavlink_obstacle_distance_t dist;
	int closest = dist.min_distance;
	if (dist.frame == 0) {
		closest = dist.max_distance;
	}
	sink(closest);
}
`)
	summary := indices.SummariesByTU[0]["f"]
	require.NotNil(t, summary)
	// the post-join call sees the outer binding merged over the inner write,
	// not the universal type an unbound name would produce
	require.Len(t, summary.CallingContext["sink"], 1)
	arg := summary.CallingContext["sink"][0].Args[0]
	assert.Len(t, arg.Units, 1)
	assert.True(t, arg.Units[index.Units.Lookup("cm")])
	assert.Len(t, arg.Sources, 2, "provenance accumulates across the join")
}

func TestDefinitionDedupAcrossTUs(t *testing.T) {
	index := testIndex(t)
	source := `
inline int shared() {
	mavlink_obstacle_distance_t dist;
	return dist.min_distance;
}
`
	indices := NewIndices(2)
	a := New(index)
	for tu := 0; tu < 2; tu++ {
		root, err := cpp.New().Parse("test.cpp", []byte(source))
		require.NoError(t, err)
		a.AnalyzeTU(tu, root, indices)
	}
	total := 0
	for tu := range indices.SummariesByTU {
		if _, ok := indices.SummariesByTU[tu]["shared"]; ok {
			total++
		}
	}
	assert.Equal(t, 1, total, "one summary per stable symbol id")
	assert.Len(t, indices.Unconstrained, 1, "the duplicate definition is not re-reported")
}
