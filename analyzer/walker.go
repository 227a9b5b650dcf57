package analyzer

import (
	"go.uber.org/zap"

	"github.com/viant/semcheck/cursor"
	"github.com/viant/semcheck/semtype"
	"github.com/viant/semcheck/spec"
)

// constraintState is the walker's view of where it stands relative to a
// potential frame constraint.
type constraintState int

const (
	unconstrained constraintState = iota
	// ifCondition marks that the next visited node is an if header.
	ifCondition
	// switchHeader marks that the next visited node is the controlling
	// expression of a switch.
	switchHeader
)

// walker is the per-function abstract interpreter. One walker drives a whole
// translation unit; per-function state is reset between definitions.
type walker struct {
	index       *spec.Index
	interesting map[string]bool
	indices     *Indices
	tu          int
	log         *zap.Logger

	env        *Env
	constraint constraintState

	inMavConstraint  bool
	hadMavConstraint bool
	hadTaint         bool
	hadDefinition    bool

	currentFn       string
	currentUSR      string
	semanticContext string

	paramNumber map[string]int
	paramNames  map[string]bool
	paramKinds  map[int]semtype.SourceKind
	totalParams int

	summary *FunctionSummary
}

func newWalker(index *spec.Index, interesting map[string]bool, indices *Indices, tu int, log *zap.Logger) *walker {
	return &walker{
		index:       index,
		interesting: interesting,
		indices:     indices,
		tu:          tu,
		log:         log,
		env:         NewEnv(),
	}
}

func (w *walker) numUnits() int {
	return w.index.Units.Len()
}

// WalkTU drives the walker over one translation unit, analyzing every
// function and method definition it finds.
func (w *walker) WalkTU(root cursor.Cursor) {
	cursor.VisitChildren(root, w.visitTopLevel)
}

func (w *walker) visitTopLevel(c, _ cursor.Cursor) cursor.VisitResult {
	kind := c.Kind()
	if kind != cursor.KindFunctionDecl && kind != cursor.KindMethodDecl {
		return cursor.Recurse
	}
	w.walkFunction(c, kind)
	return cursor.Continue
}

func (w *walker) walkFunction(c cursor.Cursor, kind cursor.Kind) {
	name := c.Spelling()
	if name == "" {
		return
	}
	usr := c.USR()

	w.constraint = unconstrained
	w.hadMavConstraint = false
	w.hadTaint = false
	w.hadDefinition = false
	w.currentFn = name
	w.currentUSR = usr
	w.paramNumber = map[string]int{}
	w.paramNames = map[string]bool{}
	w.paramKinds = map[int]semtype.SourceKind{}
	w.totalParams = 0
	w.summary = NewFunctionSummary()
	w.env.Push()

	oldContext := w.semanticContext
	if kind == cursor.KindMethodDecl {
		if parent := c.SemanticParent(); parent != nil && parent.Spelling() != "" {
			if w.semanticContext == "" {
				w.semanticContext = parent.Spelling()
			} else {
				w.semanticContext = w.semanticContext + "::" + parent.Spelling()
			}
		}
	}

	cursor.VisitChildren(c, w.visitNode)

	if w.hadTaint && w.hadDefinition && !w.hadMavConstraint {
		w.indices.addUnconstrained(name)
	}
	if w.hadDefinition {
		w.summary.NumParams = w.totalParams
		w.summary.ParamSourceKinds = w.paramKinds
		w.indices.commit(w.tu, name, w.summary)
	}

	w.env.Pop()
	w.semanticContext = oldContext
	w.summary = nil
}

// visitNode dispatches one node of a function body.
func (w *walker) visitNode(c, _ cursor.Cursor) cursor.VisitResult {
	if w.constraint == ifCondition {
		w.constraint = unconstrained
		if c.Kind() == cursor.KindBinaryOperator && c.Operator() == "==" {
			w.checkFrameConstraint(c)
		}
		return cursor.Continue
	}
	if w.constraint == switchHeader {
		w.constraint = unconstrained
		w.checkFrameConstraint(c)
		return cursor.Break
	}

	switch c.Kind() {
	case cursor.KindIfStmt:
		// The condition is inspected for a frame constraint; the body gets
		// its own scope whose winning bindings join back on exit.
		w.constraint = ifCondition
		w.env.Push()
		cursor.VisitChildren(c, w.visitNode)
		w.env.Unify()
		w.env.Pop()
		return cursor.Continue

	case cursor.KindForStmt, cursor.KindWhileStmt:
		w.env.Push()
		cursor.VisitChildren(c, w.visitNode)
		w.env.Unify()
		w.env.Pop()
		return cursor.Continue

	case cursor.KindSwitchStmt:
		// First pass looks only at the controlling expression, second pass
		// walks the body under a fresh scope.
		w.constraint = switchHeader
		cursor.VisitChildren(c, w.visitNode)
		if w.inMavConstraint {
			w.log.Debug("switch constrains a MAV frame", zap.String("function", w.currentFn))
		}
		w.env.Push()
		cursor.VisitChildren(c, w.visitNode)
		w.env.Unify()
		w.env.Pop()
		return cursor.Continue

	case cursor.KindBreakStmt:
		// A break escapes the region early, so its bindings join now.
		w.env.Unify()

	case cursor.KindVarDecl:
		w.handleVarDecl(c)

	case cursor.KindBinaryOperator:
		if c.Operator() == "=" {
			w.handleStore(c)
		}

	case cursor.KindCallExpr:
		w.handleCall(c)

	case cursor.KindParamDecl:
		w.handleParam(c)

	case cursor.KindCompoundStmt:
		if !w.hadDefinition {
			w.hadDefinition = w.indices.claimDefinition(w.currentUSR)
		}
	}
	return cursor.Recurse
}

// checkFrameConstraint inspects a condition for a comparison of a message's
// frame discriminator field.
func (w *walker) checkFrameConstraint(c cursor.Cursor) {
	w.inMavConstraint = false
	cursor.VisitChildren(c, func(child, parent cursor.Cursor) cursor.VisitResult {
		if child.Kind() == cursor.KindDeclRefExpr && parent != nil && parent.Kind() == cursor.KindMemberRefExpr {
			field, ok := w.index.TypeToFrameField[child.TypeName()]
			if ok && field == parent.Spelling() {
				w.inMavConstraint = true
				w.hadMavConstraint = true
			}
			return cursor.Break
		}
		return cursor.Recurse
	})
}

// expandFields binds every unit-bearing field of a message-typed variable
// into the top scope.
func (w *walker) expandFields(typeName, name string, source semtype.Source) {
	for field, unit := range w.index.TypeToFieldUnits[typeName] {
		w.env.Bind(name+"."+field, semtype.IntrinsicFromField(unit, nil, source))
	}
}

func (w *walker) handleVarDecl(c cursor.Cursor) {
	typeName := c.TypeName()
	if w.index.IsMessageType(typeName) {
		w.expandFields(typeName, c.Spelling(), semtype.Source{Kind: semtype.SourceIntrinsic})
		w.indices.addIntrinsicFunction(w.currentFn)
		if w.index.HasFrameField(typeName) {
			w.hadTaint = true
		}
		return
	}
	w.copyInitializerType(c)
}

// copyInitializerType propagates the type of a referenced name on the
// initializer into the freshly declared variable.
func (w *walker) copyInitializerType(c cursor.Cursor) {
	name := c.Spelling()
	if name == "" {
		return
	}
	cursor.VisitChildren(c, func(child, _ cursor.Cursor) cursor.VisitResult {
		varname := ""
		switch child.Kind() {
		case cursor.KindDeclRefExpr:
			varname = child.Spelling()
		case cursor.KindMemberRefExpr:
			varname = w.prettyMember(child)
		default:
			return cursor.Recurse
		}
		if ti, ok := w.env.Lookup(varname); ok {
			w.env.Bind(name, ti.Clone())
			return cursor.Break
		}
		return cursor.Recurse
	})
}

func (w *walker) handleParam(c cursor.Cursor) {
	typeName := c.TypeName()
	name := c.Spelling()
	w.paramNumber[name] = w.totalParams
	if w.index.IsMessageType(typeName) {
		source := semtype.Source{Kind: semtype.SourceIntrinsic, ParamNo: w.totalParams}
		w.expandFields(typeName, name, source)
		w.paramKinds[w.totalParams] = semtype.SourceIntrinsic
		w.indices.addIntrinsicFunction(w.currentFn)
	} else {
		w.paramKinds[w.totalParams] = semtype.SourceUnknown
		w.paramNames[name] = true
		w.env.Bind(name, semtype.Universal(w.numUnits(),
			semtype.Source{Kind: semtype.SourceParam, ParamNo: w.totalParams}))
	}
	w.totalParams++
}

func (w *walker) handleStore(c cursor.Cursor) {
	rhs, ok := w.typeAssignmentRHS(c)
	if !ok || w.env.Depth() == 0 {
		return
	}
	if qname := w.storeTargetName(c); qname != "" && w.interesting[qname] {
		if existing, present := w.summary.StoreToTypeInfo[qname]; present {
			existing.Merge(rhs)
			w.summary.StoreToTypeInfo[qname] = existing
		} else {
			w.summary.StoreToTypeInfo[qname] = rhs.Clone()
		}
		w.log.Info("found interesting store",
			zap.String("function", w.currentFn),
			zap.String("variable", qname))
	}
	if varname := w.prettyStore(c); varname != "" {
		w.env.Bind(varname, rhs)
	}
}

// typeAssignmentRHS types the right-hand side of an assignment: the first
// referenced name carrying a type in the environment wins; otherwise a
// reference to a parameter yields the universal type tagged with the
// parameter's ordinal.
func (w *walker) typeAssignmentRHS(c cursor.Cursor) (semtype.SemType, bool) {
	children := c.Children()
	if len(children) < 2 {
		return semtype.SemType{}, false
	}
	rhs := children[len(children)-1]
	if ti, ok := w.typeFromEnvRef(rhs); ok {
		return ti, true
	}
	if ti, ok := w.typeFromParamRef(rhs); ok {
		return ti, true
	}
	return semtype.SemType{}, false
}

func (w *walker) typeFromEnvRef(root cursor.Cursor) (semtype.SemType, bool) {
	check := func(c cursor.Cursor) (semtype.SemType, bool) {
		switch c.Kind() {
		case cursor.KindMemberRefExpr:
			return w.env.Lookup(w.prettyMember(c))
		case cursor.KindDeclRefExpr:
			return w.env.Lookup(c.Spelling())
		}
		return semtype.SemType{}, false
	}
	if ti, ok := check(root); ok {
		return ti.Clone(), true
	}
	var result semtype.SemType
	found := false
	cursor.VisitChildren(root, func(child, _ cursor.Cursor) cursor.VisitResult {
		if ti, ok := check(child); ok {
			result = ti.Clone()
			found = true
			return cursor.Break
		}
		return cursor.Recurse
	})
	return result, found
}

func (w *walker) typeFromParamRef(root cursor.Cursor) (semtype.SemType, bool) {
	check := func(c cursor.Cursor) (semtype.SemType, bool) {
		if c.Kind() != cursor.KindDeclRefExpr || !w.paramNames[c.Spelling()] {
			return semtype.SemType{}, false
		}
		return semtype.Universal(w.numUnits(),
			semtype.Source{Kind: semtype.SourceParam, ParamNo: w.paramNumber[c.Spelling()]}), true
	}
	if ti, ok := check(root); ok {
		return ti, true
	}
	var result semtype.SemType
	found := false
	cursor.VisitChildren(root, func(child, _ cursor.Cursor) cursor.VisitResult {
		if ti, ok := check(child); ok {
			result = ti
			found = true
			return cursor.Break
		}
		return cursor.Recurse
	})
	return result, found
}

func (w *walker) handleCall(c cursor.Cursor) {
	name := c.Spelling()
	if name == "operator=" {
		w.handleStore(c)
		return
	}
	if name == "" {
		return
	}
	site := CallSite{}
	for i := 0; i < c.NumArguments(); i++ {
		site.Args = append(site.Args, w.typeCursor(c.Argument(i)))
	}
	w.summary.Callees[name] = true
	w.summary.CallingContext[name] = append(w.summary.CallingContext[name], site)
}

// typeCursor types an arbitrary expression by scanning its references in
// order. The first plain name reference decides: its bound type, or the
// universal type when it is unbound. A member access decides only when its
// rendering is bound; an unbound one yields the universal type unless a later
// reference decides. Expressions without references (literals) stay untyped.
func (w *walker) typeCursor(c cursor.Cursor) semtype.SemType {
	result := semtype.New()
	check := func(cc cursor.Cursor) cursor.VisitResult {
		switch cc.Kind() {
		case cursor.KindDeclRefExpr:
			if ti, ok := w.env.Lookup(cc.Spelling()); ok {
				result = ti.Clone()
			} else {
				result = semtype.Universal(w.numUnits(), semtype.Source{Kind: semtype.SourceUnknown})
			}
			return cursor.Break
		case cursor.KindMemberRefExpr:
			if ti, ok := w.env.Lookup(w.prettyMember(cc)); ok {
				result = ti.Clone()
				return cursor.Break
			}
			result = semtype.Universal(w.numUnits(), semtype.Source{Kind: semtype.SourceUnknown})
			return cursor.Recurse
		}
		return cursor.Recurse
	}
	if c == nil {
		return result
	}
	if check(c) != cursor.Break {
		cursor.VisitChildren(c, func(child, _ cursor.Cursor) cursor.VisitResult {
			return check(child)
		})
	}
	return result
}

// prettyMember renders a member access chain as "obj.mid.field".
func (w *walker) prettyMember(c cursor.Cursor) string {
	prefix := ""
	cursor.VisitChildren(c, func(child, _ cursor.Cursor) cursor.VisitResult {
		switch child.Kind() {
		case cursor.KindDeclRefExpr:
			prefix = child.Spelling() + prefix
		case cursor.KindMemberRefExpr:
			prefix = "." + child.Spelling() + prefix
		}
		return cursor.Recurse
	})
	if prefix == "" {
		return c.Spelling()
	}
	return prefix + "." + c.Spelling()
}

// prettyStore renders the target of an assignment the same way bindings are
// rendered, so stores and lookups agree on names.
func (w *walker) prettyStore(c cursor.Cursor) string {
	result := ""
	cursor.VisitChildren(c, func(child, _ cursor.Cursor) cursor.VisitResult {
		switch {
		case child.Kind() == cursor.KindMemberRefExpr:
			result = w.prettyMember(child)
			return cursor.Break
		case child.Spelling() != "":
			result = child.Spelling()
			return cursor.Break
		default:
			// subscripts and casts: keep digging for the stored object
			return cursor.Recurse
		}
	})
	return result
}

// storeTargetName resolves the assignment target to a qualified field name
// when the target is a member access that does not involve a local object.
func (w *walker) storeTargetName(c cursor.Cursor) string {
	qname := ""
	cursor.VisitChildren(c, func(child, _ cursor.Cursor) cursor.VisitResult {
		kind := child.Kind()
		if (kind == cursor.KindMemberRefExpr || kind == cursor.KindThisExpr) && !w.containsLocalRef(child) {
			qname = w.memberAccessName(child)
		}
		// only the first child, the assignment target, is of interest
		return cursor.Break
	})
	return qname
}

func (w *walker) containsLocalRef(c cursor.Cursor) bool {
	found := false
	cursor.VisitChildren(c, func(child, _ cursor.Cursor) cursor.VisitResult {
		if child.Kind() == cursor.KindDeclRefExpr && !child.IsGlobal() {
			found = true
			return cursor.Break
		}
		return cursor.Recurse
	})
	return found
}

// memberAccessName renders a member access as a Scope::Field qualified name.
// Accesses without a scope prefix belong to the enclosing semantic context;
// accesses resolving a global stand on their own.
func (w *walker) memberAccessName(c cursor.Cursor) string {
	scopeOps := w.scopeResolution(c)
	switch {
	case scopeOps == "":
		return w.semanticContext + "::" + c.Spelling()
	case w.isGlobalAccess(c):
		return scopeOps + "::" + c.Spelling()
	default:
		return w.semanticContext + "::" + scopeOps + "::" + c.Spelling()
	}
}

func (w *walker) scopeResolution(c cursor.Cursor) string {
	result := ""
	cursor.VisitChildren(c, func(child, _ cursor.Cursor) cursor.VisitResult {
		switch child.Kind() {
		case cursor.KindDeclRefExpr:
			if result == "" {
				result = child.Spelling()
			} else {
				result = child.Spelling() + "::" + result
			}
			return cursor.Break
		case cursor.KindMemberRefExpr:
			if result == "" {
				result = child.Spelling()
			} else {
				result = child.Spelling() + "::" + result
			}
		}
		return cursor.Recurse
	})
	return result
}

func (w *walker) isGlobalAccess(c cursor.Cursor) bool {
	global := false
	cursor.VisitChildren(c, func(child, _ cursor.Cursor) cursor.VisitResult {
		if child.Kind() == cursor.KindDeclRefExpr {
			global = child.IsGlobal()
			return cursor.Break
		}
		return cursor.Recurse
	})
	return global
}
