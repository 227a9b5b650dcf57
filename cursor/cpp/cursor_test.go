package cpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/semcheck/cursor"
)

func parse(t *testing.T, source string) cursor.Cursor {
	t.Helper()
	root, err := New().Parse("test.cpp", []byte(source))
	require.NoError(t, err)
	return root
}

// collect gathers every cursor in the tree satisfying the predicate.
func collect(root cursor.Cursor, predicate func(cursor.Cursor) bool) []cursor.Cursor {
	var result []cursor.Cursor
	cursor.VisitChildren(root, func(child, _ cursor.Cursor) cursor.VisitResult {
		if predicate(child) {
			result = append(result, child)
		}
		return cursor.Recurse
	})
	return result
}

func byKind(root cursor.Cursor, kind cursor.Kind) []cursor.Cursor {
	return collect(root, func(c cursor.Cursor) bool { return c.Kind() == kind })
}

func TestFunctionAndMethodKinds(t *testing.T) {
	root := parse(t, `
int add(int a, int b) {
	return a + b;
}

class Copter {
public:
	int alt;
	void inline_update() { alt = 1; }
	void outline_update();
};

void Copter::outline_update() {
	alt = 2;
}
`)
	functions := byKind(root, cursor.KindFunctionDecl)
	require.Len(t, functions, 1)
	assert.Equal(t, "add", functions[0].Spelling())
	assert.Equal(t, "c:@add#int#int", functions[0].USR())

	methods := byKind(root, cursor.KindMethodDecl)
	require.Len(t, methods, 2)
	assert.Equal(t, "inline_update", methods[0].Spelling())
	assert.Equal(t, "outline_update", methods[1].Spelling())
	for _, m := range methods {
		parent := m.SemanticParent()
		require.NotNil(t, parent)
		assert.Equal(t, "Copter", parent.Spelling())
	}
	// the same method declared inline and out of line share no USR, but
	// the two spellings of outline_update would: stability across units
	assert.Equal(t, "c:@Copter::outline_update", methods[1].USR())
}

func TestParamAndVarDecls(t *testing.T) {
	root := parse(t, `
void f(const mavlink_obstacle_distance_t &msg, int limit) {
	int closest = 0;
	double *scale;
}
`)
	params := byKind(root, cursor.KindParamDecl)
	require.Len(t, params, 2)
	assert.Equal(t, "msg", params[0].Spelling())
	assert.Equal(t, "mavlink_obstacle_distance_t", params[0].TypeName())
	assert.Equal(t, "limit", params[1].Spelling())
	assert.Equal(t, "int", params[1].TypeName())

	vars := byKind(root, cursor.KindVarDecl)
	require.Len(t, vars, 2)
	assert.Equal(t, "closest", vars[0].Spelling())
	assert.Equal(t, "scale", vars[1].Spelling())
	assert.Equal(t, "double", vars[1].TypeName(), "pointers are stripped")
}

func TestReferenceResolution(t *testing.T) {
	root := parse(t, `
int g_total;

void f() {
	int local = 0;
	g_total = local;
}
`)
	refs := byKind(root, cursor.KindDeclRefExpr)
	byName := map[string]cursor.Cursor{}
	for _, ref := range refs {
		byName[ref.Spelling()] = ref
	}
	require.Contains(t, byName, "g_total")
	require.Contains(t, byName, "local")
	assert.True(t, byName["g_total"].IsGlobal())
	assert.False(t, byName["local"].IsGlobal())
	assert.Equal(t, "int", byName["local"].TypeName())
	assert.NotNil(t, byName["local"].Referenced())
}

func TestImplicitMemberAccess(t *testing.T) {
	root := parse(t, `
class Copter {
public:
	int alt_in_cm;
	void set(int x);
};

void Copter::set(int x) {
	alt_in_cm = x;
}
`)
	members := byKind(root, cursor.KindMemberRefExpr)
	require.Len(t, members, 1)
	assert.Equal(t, "alt_in_cm", members[0].Spelling())
	assert.Equal(t, "int", members[0].TypeName())
	assert.Empty(t, members[0].Children(), "implicit member accesses have no object child")
}

func TestMemberExpressionShape(t *testing.T) {
	root := parse(t, `
void f() {
	mavlink_obstacle_distance_t dist;
	int d = dist.min_distance;
}
`)
	members := byKind(root, cursor.KindMemberRefExpr)
	require.Len(t, members, 1)
	assert.Equal(t, "min_distance", members[0].Spelling())

	children := members[0].Children()
	require.Len(t, children, 1)
	assert.Equal(t, cursor.KindDeclRefExpr, children[0].Kind())
	assert.Equal(t, "dist", children[0].Spelling())
	assert.Equal(t, "mavlink_obstacle_distance_t", children[0].TypeName())
}

func TestCallExpression(t *testing.T) {
	root := parse(t, `
class GPS {
public:
	int altitude();
};

void f(GPS &gps, int x) {
	plain(x, 5);
	int alt = gps.altitude();
}
`)
	calls := byKind(root, cursor.KindCallExpr)
	require.Len(t, calls, 2)

	assert.Equal(t, "plain", calls[0].Spelling())
	assert.Equal(t, 2, calls[0].NumArguments())
	assert.Equal(t, "x", calls[0].Argument(0).Spelling())

	// method calls qualify the callee with the receiver's declared type
	assert.Equal(t, "GPS::altitude", calls[1].Spelling())
	assert.Equal(t, 0, calls[1].NumArguments())
}

func TestIfConditionIsFirstChild(t *testing.T) {
	root := parse(t, `
void f() {
	mavlink_obstacle_distance_t dist;
	if (dist.frame == 0) {
		use(dist);
	}
}
`)
	ifs := byKind(root, cursor.KindIfStmt)
	require.Len(t, ifs, 1)
	children := ifs[0].Children()
	require.GreaterOrEqual(t, len(children), 2)
	assert.Equal(t, cursor.KindBinaryOperator, children[0].Kind())
	assert.Equal(t, "==", children[0].Operator())
	assert.Equal(t, cursor.KindCompoundStmt, children[1].Kind())
}

func TestAssignmentShape(t *testing.T) {
	root := parse(t, `
void f(int x) {
	int y;
	y = x;
}
`)
	assignments := collect(root, func(c cursor.Cursor) bool {
		return c.Kind() == cursor.KindBinaryOperator && c.Operator() == "="
	})
	require.Len(t, assignments, 1)
	children := assignments[0].Children()
	require.Len(t, children, 2)
	assert.Equal(t, "y", children[0].Spelling())
	assert.Equal(t, "x", children[1].Spelling())
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"dist", ".", "frame", "==", "0"}, tokenize("dist.frame == 0"))
	assert.Equal(t, []string{"a", "=", "b", "[", "3", "]", ";"}, tokenize("a = b[3];"))
	assert.Empty(t, tokenize("  \n\t"))
}
