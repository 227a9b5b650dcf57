package analyzer_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"golang.org/x/tools/txtar"

	"github.com/viant/semcheck/analyzer"
	"github.com/viant/semcheck/compiledb"
	"github.com/viant/semcheck/spec"
	"github.com/viant/semcheck/trace"
)

const e2eProtocol = `<?xml version="1.0"?>
<mavlink>
  <messages>
    <message id="330" name="OBSTACLE_DISTANCE">
      <field type="uint8_t" name="frame" enum="MAV_FRAME">frame</field>
      <field type="uint16_t" name="min_distance" units="cm">min</field>
    </message>
  </messages>
</mavlink>`

const e2ePrior = `[
  {"VariableName": "Copter::alt_in_cm",
   "SemanticInfo": {"CoordinateFrames": ["MAV_FRAME_GLOBAL"], "Units": ["cm"]}}
]`

// corpus is a two-unit project: vehicle.cpp flows an intrinsically typed
// field through a call into a prior-known member; guard.cpp shows the same
// read correctly constrained.
const corpus = `
-- src/vehicle.cpp --
class Copter {
public:
	int alt_in_cm;
	void update();
	void set_alt(int x);
};

void Copter::update() {
	mavlink_obstacle_distance_t dist;
	set_alt(dist.min_distance);
}

void Copter::set_alt(int x) {
	alt_in_cm = x;
}
-- src/guard.cpp --
int guarded() {
	mavlink_obstacle_distance_t dist;
	int closest = 0;
	if (dist.frame == 0) {
		closest = dist.min_distance;
	}
	return closest;
}
`

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	archive := txtar.Parse([]byte(corpus))
	var commands []compiledb.Command
	for _, file := range archive.Files {
		path := filepath.Join(dir, file.Name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, file.Data, 0o644))
		commands = append(commands, compiledb.Command{
			Directory: dir,
			File:      file.Name,
			Arguments: []string{"clang++", "-c", file.Name},
		})
	}
	data, err := json.Marshal(commands)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, compiledb.DatabaseFile), data, 0o644))
	return dir
}

func loadIndex(t *testing.T) *spec.Index {
	t.Helper()
	index := spec.NewIndex()
	require.NoError(t, index.LoadProtocol([]byte(e2eProtocol)))
	require.NoError(t, index.LoadPrior([]byte(e2ePrior)))
	return index
}

func TestAnalyzeEndToEnd(t *testing.T) {
	dir := writeCorpus(t)
	indices, index := analyzeCorpus(t, dir, 2)

	// the unconstrained read in update is reported, the guarded one is not
	assert.Equal(t, []string{"update"}, indices.Unconstrained)

	report := trace.NewSearcher(indices, index.Prior, index.Units.Len(), nil).Search()
	assert.Equal(t, []string{"update -> set_alt"}, report.Bugs)
}

func TestAnalyzeDeterministicAcrossWorkerCounts(t *testing.T) {
	dir := writeCorpus(t)
	single, index := analyzeCorpus(t, dir, 1)
	parallel, _ := analyzeCorpus(t, dir, 4)

	one := trace.NewSearcher(single, index.Prior, index.Units.Len(), nil).Search()
	many := trace.NewSearcher(parallel, index.Prior, index.Units.Len(), nil).Search()
	assert.ElementsMatch(t, one.Bugs, many.Bugs)
	assert.ElementsMatch(t, one.InconsistentStores, many.InconsistentStores)
}

func analyzeCorpus(t *testing.T, dir string, jobs int) (*analyzer.Indices, *spec.Index) {
	t.Helper()
	index := loadIndex(t)
	commands := readCommands(t, dir)
	a := analyzer.New(index, analyzer.WithJobs(jobs))
	indices, err := a.Analyze(context.Background(), commands)
	require.NoError(t, err)
	return indices, index
}

func readCommands(t *testing.T, dir string) []compiledb.Command {
	t.Helper()
	commands, err := compiledb.Load(context.Background(), afs.New(), dir)
	require.NoError(t, err)
	return commands
}
