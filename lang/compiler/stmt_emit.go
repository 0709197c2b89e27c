package compiler

import (
	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/namespace"
	"github.com/hatchlang/hatch/lang/token"
)

// parseLet lowers a Let declaration, binding its BoundID at the position on
// the compile-time stack its value will occupy once emitted (spec §4.3.2,
// grounded on assembler.py's parse_let). It returns the bound identifier so
// the caller can track it as one of the enclosing block's own locals.
func (e *emitter) parseLet(s *ast.Let) namespace.ID {
	id := namespace.ID(s.BoundID)
	bind := func(array, isStruct bool) {
		e.locals[id] = localInfo{Array: array, Struct: isStruct}
		e.stack.Push(id)
	}

	if s.NewArgs != nil {
		e.parseStructCreate(s, id, bind)
		return id
	}

	switch init := s.Initial.(type) {
	case nil:
		if !s.IsArray || s.Size == nil {
			e.fail(s.P, "let %q has no initializer", s.Name)
			return id
		}
		e.parseLetArraySize(s, id, bind)

	case *ast.Literal:
		if init.Type == "string" {
			e.parseLetStringLiteral(s, id, init, bind)
			break
		}
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		e.prog.emit(EncodeOp(LDA, false, false), literalByte(init))
		bind(false, false)
		e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(id)))

	case *ast.Call:
		e.parseCall(init)
		e.prog.emit(EncodeOp(MOV, false, false), Mov(RegA, RegF))
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		bind(false, false)
		e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(id)))

	case *ast.Binary:
		e.parseBinary(init)
		bind(false, false)
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(id)))

	case *ast.Variable:
		if init.FuncRef != "" {
			e.prog.emitFunc(EncodeOp(LDA, false, false), init.FuncRef)
		} else {
			e.prog.emit(EncodeOp(LDA, false, true), byte(e.stack.Offset(namespace.ID(init.BoundID))))
		}
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		bind(false, false)
		e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(id)))

	case *ast.Array:
		length := len(init.Elems)
		if n, ok := arraySizeLiteral(s.Size); ok {
			length = n
		}
		e.prog.emit(EncodeOp(PUSH, false, false), byte(length+1))
		e.prog.emit(EncodeOp(LDA, false, false), byte(length))
		bind(true, false)
		e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(id)))
		e.loadArrayBound(init, id)

	case *ast.Index:
		e.parseIndex(init.Array, init.Index, RegA)
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		bind(false, false)
		e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(id)))

	default:
		e.fail(s.P, "compiler: unhandled let initializer %T", s.Initial)
	}
	return id
}

func arraySizeLiteral(e ast.Expr) (int, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return 0, false
	}
	n, ok := lit.Value.(int64)
	return int(n), ok
}

// parseStructCreate lowers "new Name(args...)" (spec §4.3.3): an aggregate
// of len(members)+1 cells, a leading length byte, then each member stored
// at its 1-based offset via the offset register.
func (e *emitter) parseStructCreate(s *ast.Let, id namespace.ID, bind func(array, isStruct bool)) {
	n := 0
	if t, err := e.structs.Get(s.Type); err == nil && t.HasStruct() {
		n = len(t.Struct.Order)
	}
	e.prog.emit(EncodeOp(PUSH, false, false), byte(n+1))
	e.prog.emit(EncodeOp(LDA, false, false), byte(n))
	bind(false, true)
	e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(id)))
	for i, arg := range s.NewArgs {
		position := byte(i + 1)
		if _, lit := arg.(*ast.Literal); !lit && i > 0 {
			e.prog.emit(EncodeOp(OFF, false, false), 0)
		}
		e.loadIntoRegister(arg, RegA)
		e.prog.emit(EncodeOp(OFF, false, false), position)
		e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(id)))
	}
	e.prog.emit(EncodeOp(OFF, false, false), 0)
}

// parseLetArraySize lowers "let T[n] xs;", an array with reserved capacity
// but no initial elements: it is constructed the way an empty from-data
// array would be, without a copy loop since there is nothing to copy.
func (e *emitter) parseLetArraySize(s *ast.Let, id namespace.ID, bind func(array, isStruct bool)) {
	n, _ := arraySizeLiteral(s.Size)
	e.prog.emit(EncodeOp(PUSH, false, false), byte(n+1))
	e.prog.emit(EncodeOp(LDA, false, false), byte(n))
	bind(true, false)
	e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(id)))
}

// parseLetStringLiteral constructs a string constant as a char array
// backed by the data section, the same shape load_array's from-data path
// builds for an int/char array literal (strings have no dedicated runtime
// representation beyond "array of char", spec §3).
func (e *emitter) parseLetStringLiteral(s *ast.Let, id namespace.ID, lit *ast.Literal, bind func(array, isStruct bool)) {
	str, _ := lit.Value.(string)
	data := []byte(str)
	e.prog.emit(EncodeOp(PUSH, false, false), byte(len(data)+1))
	e.prog.emit(EncodeOp(LDA, false, false), byte(len(data)))
	bind(true, false)
	e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(id)))
	uid := e.prog.data.Insert(data)
	for i := range data {
		e.prog.emit(EncodeOp(OFF, false, false), byte(i+1))
		e.prog.emitData(EncodeOp(LDA, true, false), uid, i)
		e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(id)))
	}
	e.prog.emit(EncodeOp(OFF, false, false), 0)
}

// parseAssign lowers "name = value" (spec §4.3.2), including the two
// peephole shapes the parser already detected: Increment/Decrement skip
// full binary lowering for the "x = x + 1" / "x = x - 1" forms.
func (e *emitter) parseAssign(s *ast.Assign) {
	id := namespace.ID(s.BoundID)
	if s.Increment {
		e.prog.emit(EncodeOp(INC, false, true), byte(e.stack.Offset(id)))
		return
	}
	if s.Decrement {
		e.prog.emit(EncodeOp(DEC, false, true), byte(e.stack.Offset(id)))
		return
	}

	switch v := s.Value.(type) {
	case *ast.Literal:
		e.prog.emit(EncodeOp(LDA, false, false), literalByte(v))
		e.prog.emit(EncodeOp(STA, true, true), byte(e.stack.Offset(id)))

	case *ast.Binary:
		e.parseBinary(v)
		e.prog.emit(EncodeOp(STA, true, true), byte(e.stack.Offset(id)))

	case *ast.Variable:
		e.prog.emit(EncodeOp(LDA, false, true), byte(e.stack.Offset(namespace.ID(v.BoundID))))
		e.prog.emit(EncodeOp(STA, true, true), byte(e.stack.Offset(id)))

	case *ast.Call:
		e.parseCall(v)
		e.prog.emit(EncodeOp(MOV, false, false), Mov(RegA, RegF))
		e.prog.emit(EncodeOp(STA, true, true), byte(e.stack.Offset(id)))

	case *ast.Index:
		e.parseIndex(v.Array, v.Index, RegA)
		e.prog.emit(EncodeOp(STA, true, true), byte(e.stack.Offset(id)))

	default:
		e.fail(s.P, "compiler: unhandled assign value %T", s.Value)
	}
}

// parseAssignIndex lowers "array[index] = value" (spec §4.3.2): the value
// is loaded into A, the element offset into O, then stored through the
// array's base address.
func (e *emitter) parseAssignIndex(s *ast.AssignIndex) {
	switch v := s.Value.(type) {
	case *ast.Literal:
		e.prog.emit(EncodeOp(LDA, false, false), literalByte(v))
	case *ast.Variable:
		e.prog.emit(EncodeOp(LDA, false, true), byte(e.stack.Offset(namespace.ID(v.BoundID))))
	case *ast.Index:
		e.parseIndex(v.Array, v.Index, RegA)
	default:
		e.fail(s.P, "compiler: unhandled index-assign value %T", s.Value)
		return
	}

	switch idx := s.Index.(type) {
	case *ast.Literal:
		e.prog.emit(EncodeOp(OFF, false, false), literalByte(idx)+1)
	case *ast.Variable:
		e.prog.emit(EncodeOp(LDB, false, true), byte(e.stack.Offset(namespace.ID(idx.BoundID))))
		e.prog.emit(EncodeOp(INC, false, false), byte(255-int(RegB)))
		e.prog.emit(EncodeOp(MOV, false, false), Mov(RegO, RegB))
	case *ast.Binary:
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		e.prog.emit(EncodeOp(STA, false, true), 1)
		scope := e.stack.enterTemp()
		scope.add(1)
		e.parseBinary(idx)
		e.prog.emit(EncodeOp(MOV, false, false), Mov(RegB, RegA))
		e.prog.emit(EncodeOp(INC, false, false), byte(255-int(RegB)))
		e.prog.emit(EncodeOp(LDA, false, true), 1)
		e.prog.emit(EncodeOp(FREE, false, false), 1)
		scope.exit()
		e.prog.emit(EncodeOp(MOV, false, false), Mov(RegO, RegB))
	default:
		e.fail(s.P, "compiler: unhandled index-assign index %T", s.Index)
		return
	}

	arrID := idOf(s.Array)
	e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(arrID)))
	e.prog.emit(EncodeOp(OFF, false, false), 0)
}

// parseAccessAssign lowers "base.member = value" (spec §4.3.2), storing
// through the struct's base address offset by the member's 1-based
// position recorded by the checker.
func (e *emitter) parseAccessAssign(s *ast.AccessAssign) {
	e.loadIntoRegister(s.Value, RegA)
	e.prog.emit(EncodeOp(OFF, false, false), byte(s.Position))
	baseID := idOf(s.Base)
	e.prog.emit(EncodeOp(STA, false, true), byte(e.stack.Offset(baseID)))
	e.prog.emit(EncodeOp(OFF, false, false), 0)
}

// parseExprStmt lowers an expression used for its side effect alone: a
// bare call, a bare "x++"/"x--", or (rarely) a bare binary expression
// whose result is discarded.
func (e *emitter) parseExprStmt(s *ast.ExprStmt) {
	if s.Increment || s.Decrement {
		id := idOf(s.X)
		op := INC
		if s.Decrement {
			op = DEC
		}
		e.prog.emit(EncodeOp(op, false, true), byte(e.stack.Offset(id)))
		return
	}
	switch x := s.X.(type) {
	case *ast.Call:
		e.parseCallStatement(x)
	case *ast.Binary:
		e.parseBinary(x)
	default:
		e.fail(s.P, "compiler: unhandled expression statement %T", s.X)
	}
}

// parseIf lowers an if/else (spec §4.3.4). Three condition shapes are
// handled, matching assembler.py's parse_if: a literal bool constant-folds
// to whichever arm applies (or emits nothing if false with no else); a
// bare variable is compared against the literal 1; a binary comparison
// loads both operands and branches on CMP's flags. In the binary and
// variable cases a true/false jump pair selects which branch's
// instructions execute: the false branch's jump is backpatched to the
// else arm (or the statement's end) and the true arm's trailing JMP is
// backpatched past it.
func (e *emitter) parseIf(s *ast.If) {
	switch cond := s.Cond.(type) {
	case *ast.Literal:
		b, ok := cond.Value.(bool)
		if !ok {
			e.fail(s.P, "compiler: if condition literal must be bool")
			return
		}
		if b {
			e.parseBlock(s.Then.(*ast.Block), false, false, nil)
		} else if s.Otherwise != nil {
			e.parseBlock(s.Otherwise.(*ast.Block), false, false, nil)
		}

	case *ast.Variable:
		e.loadIntoRegister(cond, RegA)
		e.prog.emit(EncodeOp(LDB, false, false), 1)
		e.prog.emit(EncodeOp(CMP, false, false), 0)
		e.emitIfBranches(s, JE, JNE)

	case *ast.Binary:
		trueOp, falseOp, ok := comparisonJumps(cond.Op)
		if !ok {
			e.fail(s.P, "compiler: unhandled if condition operator")
			return
		}
		e.loadIntoRegister(cond.Left, RegA)
		e.loadIntoRegister(cond.Right, RegB)
		e.prog.emit(EncodeOp(CMP, false, false), 0)
		e.emitIfBranches(s, trueOp, falseOp)

	default:
		e.fail(s.P, "compiler: unhandled if condition %T", s.Cond)
	}
}

// emitIfBranches emits the shared then/jump/else/end backpatch sequence
// once the condition's comparison has already been loaded and CMP issued.
func (e *emitter) emitIfBranches(s *ast.If, trueOp, falseOp Opcode) {
	thenIdx := e.prog.emit(EncodeOp(trueOp, false, false), 0)
	falseIdx := e.prog.emit(EncodeOp(falseOp, false, false), 0)
	e.prog.patch(thenIdx, byte(e.prog.at()))

	e.parseBlock(s.Then.(*ast.Block), false, false, nil)

	endIdx := e.prog.emit(EncodeOp(JMP, false, false), 0)
	e.prog.patch(falseIdx, byte(e.prog.at()))
	if s.Otherwise != nil {
		e.parseBlock(s.Otherwise.(*ast.Block), false, false, nil)
	}
	e.prog.patch(endIdx, byte(e.prog.at()))
}

func comparisonJumps(op token.Kind) (trueOp, falseOp Opcode, ok bool) {
	switch op {
	case token.EQL:
		return JE, JNE, true
	case token.NEQ:
		return JNE, JE, true
	case token.LT:
		return JL, JGE, true
	case token.LE:
		return JLE, JG, true
	case token.GT:
		return JG, JLE, true
	case token.GE:
		return JGE, JL, true
	}
	return 0, 0, false
}

// forNotJumps returns the single jump that skips the loop entirely once
// the condition goes false, per assembler.py's parse_for compare_inst
// table (the inverse of the condition's own truth jump).
func forNotJumps(op token.Kind) (Opcode, bool) {
	switch op {
	case token.EQL:
		return JNE, true
	case token.LT:
		return JGE, true
	case token.GT:
		return JLE, true
	case token.LE:
		return JG, true
	case token.GE:
		return JL, true
	case token.NEQ:
		return JE, true
	}
	return 0, false
}

// parseFor lowers a three-part for loop (spec §4.3.4): the declaration is
// emitted once, then the condition is re-checked each iteration; the body
// runs with its own locals freed after the action step (so break/continue
// targets land outside that scope), and the induction variable itself is
// freed once the loop exits.
func (e *emitter) parseFor(s *ast.For) {
	bin, ok := s.Cond.(*ast.Binary)
	if !ok {
		e.fail(s.P, "compiler: for condition must be a comparison")
		return
	}
	exitOp, ok := forNotJumps(bin.Op)
	if !ok {
		e.fail(s.P, "compiler: unhandled for condition operator")
		return
	}

	declID := e.parseLet(s.Declare)
	comparisonStart := e.prog.at()
	e.loadIntoRegister(bin.Left, RegA)
	e.loadIntoRegister(bin.Right, RegB)
	e.prog.emit(EncodeOp(CMP, false, false), 0)
	exitIdx := e.prog.emit(EncodeOp(exitOp, false, false), 0)

	e.loops = append(e.loops, &loopContext{})
	body, _ := s.Body.(*ast.Block)
	var bodyLocals []namespace.ID
	if body != nil {
		bodyLocals = e.emitLoopBody(body)
	}
	actionStart := e.prog.at()
	e.emitLoopAction(s.Action)
	e.freeLocalStack(bodyLocals, nil, false)
	e.stack.Unstack(len(bodyLocals))
	e.prog.emit(EncodeOp(JMP, false, false), byte(comparisonStart))
	endAddr := e.prog.at()
	e.prog.patch(exitIdx, byte(endAddr))
	lc := e.loops[len(e.loops)-1]
	e.loops = e.loops[:len(e.loops)-1]
	for _, b := range lc.breaks {
		e.prog.patch(b, byte(endAddr))
	}
	for _, c := range lc.continues {
		e.prog.patch(c, byte(actionStart))
	}

	e.prog.emit(EncodeOp(FREE, false, false), 1)
	e.stack.Unstack(1)
	_ = declID
}

// parseWhile lowers a condition-only loop (spec §4.3.4), structurally the
// same as parseFor without a declaration or per-iteration action step.
func (e *emitter) parseWhile(s *ast.While) {
	if lit, ok := s.Cond.(*ast.Literal); ok {
		if b, _ := lit.Value.(bool); !b {
			return
		}
		loopStart := e.prog.at()
		e.loops = append(e.loops, &loopContext{})
		body, _ := s.Body.(*ast.Block)
		var bodyLocals []namespace.ID
		if body != nil {
			bodyLocals = e.emitLoopBody(body)
		}
		e.freeLocalStack(bodyLocals, nil, false)
		e.stack.Unstack(len(bodyLocals))
		e.prog.emit(EncodeOp(JMP, false, false), byte(loopStart))
		endAddr := e.prog.at()
		lc := e.loops[len(e.loops)-1]
		e.loops = e.loops[:len(e.loops)-1]
		for _, b := range lc.breaks {
			e.prog.patch(b, byte(endAddr))
		}
		for _, c := range lc.continues {
			e.prog.patch(c, byte(loopStart))
		}
		return
	}

	bin, ok := s.Cond.(*ast.Binary)
	if !ok {
		e.fail(s.P, "compiler: while condition must be a comparison or literal")
		return
	}
	exitOp, ok := forNotJumps(bin.Op)
	if !ok {
		e.fail(s.P, "compiler: unhandled while condition operator")
		return
	}

	comparisonStart := e.prog.at()
	e.loadIntoRegister(bin.Left, RegA)
	e.loadIntoRegister(bin.Right, RegB)
	e.prog.emit(EncodeOp(CMP, false, false), 0)
	exitIdx := e.prog.emit(EncodeOp(exitOp, false, false), 0)

	e.loops = append(e.loops, &loopContext{})
	body, _ := s.Body.(*ast.Block)
	var bodyLocals []namespace.ID
	if body != nil {
		bodyLocals = e.emitLoopBody(body)
	}
	e.freeLocalStack(bodyLocals, nil, false)
	e.stack.Unstack(len(bodyLocals))
	e.prog.emit(EncodeOp(JMP, false, false), byte(comparisonStart))
	endAddr := e.prog.at()
	e.prog.patch(exitIdx, byte(endAddr))
	lc := e.loops[len(e.loops)-1]
	e.loops = e.loops[:len(e.loops)-1]
	for _, b := range lc.breaks {
		e.prog.patch(b, byte(endAddr))
	}
	for _, c := range lc.continues {
		e.prog.patch(c, byte(comparisonStart))
	}
}

// emitLoopBody lowers a loop's body statements without the usual
// end-of-block free (the caller frees them after its own per-iteration
// action step), returning the identifiers the body itself bound so the
// caller knows what to free.
func (e *emitter) emitLoopBody(b *ast.Block) []namespace.ID {
	marker := len(e.stack.ids)
	e.parseBlock(b, false, true, nil)
	return append([]namespace.ID(nil), e.stack.ids[marker:]...)
}

// emitLoopAction lowers a for loop's per-iteration update statement.
func (e *emitter) emitLoopAction(s ast.Stmt) {
	switch a := s.(type) {
	case *ast.Assign:
		e.parseAssign(a)
	case *ast.ExprStmt:
		e.parseExprStmt(a)
	case nil:
	default:
		e.fail(s.Pos(), "compiler: unhandled for action %T", s)
	}
}

// parseReturn lowers a return statement (spec §4.3.2): the value is moved
// into F first, then every local bound in the function so far (including
// its parameters) is freed and RET executes, except the all-literal fast
// path, which frees first then emits RET with the literal baked into the
// instruction's own operand (no register move needed).
func (e *emitter) parseReturn(s *ast.Return, paramIDs []namespace.ID) {
	locals := e.allFunctionLocals(paramIDs)

	if s.Value == nil {
		e.freeLocalStack(locals, paramIDs, true)
		e.prog.emit(EncodeOp(RET, false, false), 0)
		return
	}

	if lit, ok := s.Value.(*ast.Literal); ok {
		if len(locals) > 0 {
			e.freeLocalStack(locals, paramIDs, true)
		}
		e.prog.emit(EncodeOp(RET, false, false), literalByte(lit))
		return
	}

	if v, ok := s.Value.(*ast.Variable); ok && v.FuncRef != "" {
		e.prog.emitFunc(EncodeOp(LDA, false, false), v.FuncRef)
		e.prog.emit(EncodeOp(MOV, false, false), Mov(RegF, RegA))
		if len(locals) > 0 {
			e.freeLocalStack(locals, paramIDs, true)
		}
		e.prog.emit(EncodeOp(RET, false, true), 0)
		return
	}

	e.loadIntoRegister(s.Value, RegA)
	e.prog.emit(EncodeOp(MOV, false, false), Mov(RegF, RegA))
	if len(locals) > 0 {
		e.freeLocalStack(locals, paramIDs, true)
	}
	e.prog.emit(EncodeOp(RET, false, true), 0)
}
