package compiler

import (
	"github.com/hatchlang/hatch/internal/builtins"
	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/namespace"
	"github.com/hatchlang/hatch/lang/token"
)

// needsSaveA reports whether evaluating e into B after A already holds the
// left operand risks clobbering A before it is consumed — true when e is
// itself a Binary (which uses A as scratch), or an Index whose own index
// expression is a Binary (same reason, one level down). A nested Call
// does not need this: CALL/RET save and restore A/B across the call
// themselves (spec §4.6.1), so a register clobbered by a callee's own
// body is transparently restored (assembler.py's parse_binary).
func needsSaveA(e ast.Expr) bool {
	if _, ok := e.(*ast.Binary); ok {
		return true
	}
	if idx, ok := e.(*ast.Index); ok {
		_, ok := idx.Index.(*ast.Binary)
		return ok
	}
	return false
}

// parseBinary lowers a left-op-right expression into A (spec §4.3.1):
// arithmetic operators leave their result in A directly; comparisons leave
// a 0/1 bool in A, computed via CMP and a single backpatched jump.
func (e *emitter) parseBinary(n *ast.Binary) {
	e.loadIntoRegister(n.Left, RegA)

	saved := needsSaveA(n.Right)
	if saved {
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		e.prog.emit(EncodeOp(STA, false, true), 1)
		scope := e.stack.enterTemp()
		scope.add(1)
		defer scope.exit()
	}

	e.loadIntoRegister(n.Right, RegB)

	if saved {
		e.prog.emit(EncodeOp(LDA, false, true), 1)
		e.prog.emit(EncodeOp(FREE, false, false), 1)
	}

	if trueOp, _, ok := comparisonJumps(n.Op); ok {
		e.emitComparisonValue(trueOp)
		return
	}

	switch n.Op {
	case token.PLUS:
		e.prog.emit(EncodeOp(ADD, false, false), 0)
	case token.MINUS:
		e.prog.emit(EncodeOp(NEG, false, false), 0)
	case token.STAR:
		e.prog.emit(EncodeOp(MUL, false, false), 0)
	case token.SLASH:
		e.prog.emit(EncodeOp(DIV, false, false), 0)
	default:
		e.fail(n.P, "compiler: unhandled binary operator %v", n.Op)
	}
}

// emitComparisonValue lowers a comparison used as a value (not as a branch
// condition), with both operands already loaded: it issues CMP,
// optimistically sets A to 1, conditionally jumps past the false case, and
// overwrites A with 0 when the jump isn't taken (assembler.py's
// parse_binary comparison branch).
func (e *emitter) emitComparisonValue(trueOp Opcode) {
	e.prog.emit(EncodeOp(CMP, false, false), 0)
	e.prog.emit(EncodeOp(LDA, false, false), 1)
	jumpIdx := e.prog.emit(EncodeOp(trueOp, false, false), 0)
	e.prog.emit(EncodeOp(LDA, false, false), 0)
	e.prog.patch(jumpIdx, byte(e.prog.at()))
}

// loadIntoRegister lowers any expression into reg (A or B), the single
// dispatch point assembler.py calls load_into_register from every context
// that needs a value in a register rather than on the stack.
func (e *emitter) loadIntoRegister(x ast.Expr, reg Register) {
	ld := LDA
	if reg == RegB {
		ld = LDB
	}

	switch n := x.(type) {
	case *ast.Literal:
		e.prog.emit(EncodeOp(ld, false, false), literalByte(n))

	case *ast.Variable:
		if n.FuncRef != "" {
			e.prog.emitFunc(EncodeOp(ld, false, false), n.FuncRef)
			return
		}
		e.prog.emit(EncodeOp(ld, false, true), byte(e.stack.Offset(namespace.ID(n.BoundID))))

	case *ast.IncDec:
		e.prog.emit(EncodeOp(ld, false, true), byte(e.stack.Offset(namespace.ID(n.BoundID))))
		op := INC
		if !n.Increment {
			op = DEC
		}
		e.prog.emit(EncodeOp(op, false, true), byte(e.stack.Offset(namespace.ID(n.BoundID))))

	case *ast.Call:
		e.parseCall(n)
		if reg == RegA {
			e.prog.emit(EncodeOp(MOV, false, false), Mov(RegA, RegF))
		} else {
			e.prog.emit(EncodeOp(MOV, false, false), Mov(RegB, RegF))
		}

	case *ast.Binary:
		e.parseBinary(n)
		if reg == RegB {
			e.prog.emit(EncodeOp(MOV, false, false), Mov(RegB, RegA))
		}

	case *ast.Index:
		e.parseIndex(n.Array, n.Index, reg)

	case *ast.Access:
		e.prog.emit(EncodeOp(OFF, false, false), byte(n.Position))
		baseID := idOf(n.Base)
		e.prog.emit(EncodeOp(ld, false, true), byte(e.stack.Offset(baseID)))
		e.prog.emit(EncodeOp(OFF, false, false), 0)

	default:
		e.fail(x.Pos(), "compiler: unhandled operand %T", x)
	}
}

// parseCallStatement lowers a call used only for its side effect: its
// return value (if any) is simply left in F, unread.
func (e *emitter) parseCallStatement(n *ast.Call) {
	e.parseCall(n)
}

// parseCall lowers a call's full argument-passing protocol (spec §4.3.5):
// SAVE pushes the caller's A and B directly onto the data stack (reserving
// their two cells itself, spec §4.6.4), then each argument is pushed in
// order, and finally CALL transfers control either to a resolved function
// address or, for a through-local call, to the address held in a
// func-typed local. Builtins bypass all of this and lower straight to
// PRX/PRC.
func (e *emitter) parseCall(n *ast.Call) {
	if builtins.IsBuiltin(n.Resolved) {
		e.emitBuiltinCall(n)
		return
	}

	e.prog.emit(EncodeOp(SAVE, false, false), 0)
	scope := e.stack.enterTemp()
	scope.add(savedRegisters)

	for _, arg := range n.Args {
		e.pushCallArg(arg)
		scope.add(1)
	}

	if n.ThroughLocal {
		e.prog.emit(EncodeOp(CALL, false, true), byte(e.stack.Offset(namespace.ID(n.CalleeID))))
	} else {
		e.prog.emitFunc(EncodeOp(CALL, false, false), n.Resolved)
	}
	scope.exit()
}

// pushCallArg pushes one call argument's value as a fresh, owned stack
// cell (scalars) or as a fresh copy made by DUP (arrays/structs, whether
// or not the parameter is declared by reference), per assembler.py's
// parse_call argument loop.
func (e *emitter) pushCallArg(arg ast.Expr) {
	switch a := arg.(type) {
	case *ast.Literal:
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		e.prog.emit(EncodeOp(LDA, false, false), literalByte(a))
		e.prog.emit(EncodeOp(STA, false, true), 1)

	case *ast.Variable:
		if a.FuncRef != "" {
			e.prog.emit(EncodeOp(PUSH, false, false), 1)
			e.prog.emitFunc(EncodeOp(LDA, false, false), a.FuncRef)
			e.prog.emit(EncodeOp(STA, false, true), 1)
			return
		}
		id := namespace.ID(a.BoundID)
		info := e.locals[id]
		if info.Array || info.Struct {
			e.prog.emit(EncodeOp(DUP, false, false), byte(e.stack.Offset(id)))
			return
		}
		e.prog.emit(EncodeOp(LDA, false, true), byte(e.stack.Offset(id)))
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		e.prog.emit(EncodeOp(STA, false, true), 1)

	case *ast.IncDec:
		id := namespace.ID(a.BoundID)
		e.prog.emit(EncodeOp(LDA, false, true), byte(e.stack.Offset(id)))
		op := INC
		if !a.Increment {
			op = DEC
		}
		e.prog.emit(EncodeOp(op, false, true), byte(e.stack.Offset(id)))
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		e.prog.emit(EncodeOp(STA, false, true), 1)

	case *ast.Binary:
		e.parseBinary(a)
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		e.prog.emit(EncodeOp(STA, false, true), 1)

	case *ast.Call:
		e.parseCall(a)
		e.prog.emit(EncodeOp(MOV, false, false), Mov(RegA, RegF))
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		e.prog.emit(EncodeOp(STA, false, true), 1)

	case *ast.Index:
		e.parseIndex(a.Array, a.Index, RegA)
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		e.prog.emit(EncodeOp(STA, false, true), 1)

	case *ast.Array:
		e.loadArray(a, len(a.Elems))

	case *ast.Access:
		e.prog.emit(EncodeOp(OFF, false, false), byte(a.Position))
		baseID := idOf(a.Base)
		e.prog.emit(EncodeOp(LDA, false, true), byte(e.stack.Offset(baseID)))
		e.prog.emit(EncodeOp(OFF, false, false), 0)
		e.prog.emit(EncodeOp(PUSH, false, false), 1)
		e.prog.emit(EncodeOp(STA, false, true), 1)

	default:
		e.fail(arg.Pos(), "compiler: unhandled call argument %T", arg)
	}
}

// parseIndex lowers "array[index]" into reg: the element's effective
// address is the array's own base address offset by 1 (skipping the
// length cell) plus the index, computed via the offset register.
func (e *emitter) parseIndex(arrExpr, idxExpr ast.Expr, reg Register) {
	arrID := idOf(arrExpr)

	switch idx := idxExpr.(type) {
	case *ast.Literal:
		e.prog.emit(EncodeOp(OFF, false, false), literalByte(idx)+1)
	case *ast.Variable:
		e.prog.emit(EncodeOp(LDB, false, true), byte(e.stack.Offset(namespace.ID(idx.BoundID))))
		e.prog.emit(EncodeOp(INC, false, false), byte(255-int(RegB)))
		e.prog.emit(EncodeOp(MOV, false, false), Mov(RegO, RegB))
	case *ast.Binary:
		e.parseBinary(idx)
		e.prog.emit(EncodeOp(MOV, false, false), Mov(RegB, RegA))
		e.prog.emit(EncodeOp(INC, false, false), byte(255-int(RegB)))
		e.prog.emit(EncodeOp(MOV, false, false), Mov(RegO, RegB))
	default:
		e.fail(idxExpr.Pos(), "compiler: unhandled index expression %T", idxExpr)
		return
	}

	ld := LDA
	if reg == RegB {
		ld = LDB
	}
	e.prog.emit(EncodeOp(ld, false, true), byte(e.stack.Offset(arrID)))
	e.prog.emit(EncodeOp(OFF, false, false), 0)
}

// arrayConstructionCost compares the byte cost of a fully unrolled
// element-by-element construction against a runtime copy loop reading
// from a deduplicated data-section entry (spec §4.4): from_data costs a
// fixed 20 bytes plus one byte per element; manual construction costs 2
// bytes to push the cell plus 6 bytes per element (OFF, LDA, STA each
// take 2 bytes).
func arrayConstructionCost(n int) (fromData, manual int) {
	return 20 + n, 2 + 6*n
}

// allLiterals reports whether every element of elems is a literal, the
// only shape load_array's from-data path can serve (a mix of literals and
// variables always falls back to manual construction).
func allLiterals(elems []ast.Expr) bool {
	for _, el := range elems {
		if _, ok := el.(*ast.Literal); !ok {
			return false
		}
	}
	return true
}

// loadArray constructs a temporary array literal's backing storage as a
// call argument (spec §4.3.3): never bound to a local name, it is
// addressed via the freshly pushed cell at stack offset 1. length is the
// declared length: it may exceed len(arr.Elems) for default-valued
// trailing elements.
func (e *emitter) loadArray(arr *ast.Array, length int) {
	e.prog.emit(EncodeOp(PUSH, false, false), byte(length+1))
	e.prog.emit(EncodeOp(LDA, false, false), byte(length))
	e.prog.emit(EncodeOp(STA, false, true), 1)
	e.constructArrayElements(arr, 1)
}

// constructArrayElements emits arr's elements into the array already
// allocated at stackOffset: a runtime copy loop from a deduplicated
// data-section entry when every element is a literal and that is
// cheaper, otherwise one OFF+load+STA per element (O is reset to 0 before
// loading a non-literal element, so its own load is not offset).
func (e *emitter) constructArrayElements(arr *ast.Array, stackOffset byte) {
	if len(arr.Elems) == 0 {
		return
	}

	fromData, manual := arrayConstructionCost(len(arr.Elems))
	if allLiterals(arr.Elems) && fromData < manual {
		data := make([]byte, len(arr.Elems))
		for i, el := range arr.Elems {
			data[i] = literalByte(el.(*ast.Literal))
		}
		uid := e.prog.data.Insert(data)
		e.emitArrayCopyLoop(uid, len(data), stackOffset)
		return
	}

	for i, el := range arr.Elems {
		if _, lit := el.(*ast.Literal); !lit && i > 0 {
			e.prog.emit(EncodeOp(OFF, false, false), 0)
		}
		e.loadIntoRegister(el, RegA)
		e.prog.emit(EncodeOp(OFF, false, false), byte(i+1))
		e.prog.emit(EncodeOp(STA, false, true), stackOffset)
	}
	e.prog.emit(EncodeOp(OFF, false, false), 0)
}

// loadArrayBound constructs an array already bound to id (the Let path,
// where the destination cell is addressed by name rather than by the
// freshly pushed temporary at offset 1).
func (e *emitter) loadArrayBound(arr *ast.Array, id namespace.ID) {
	e.constructArrayElements(arr, byte(e.stack.Offset(id)))
}

// emitArrayCopyLoop emits the runtime loop that copies length bytes from
// the data section entry uid into the array at stackOffset, one element
// per iteration via the offset register (assembler.py's load_array
// from-data branch). SAVE first pushes A, holding the entry's address, as
// a data-stack entry, so a stack-relative load through it reads data[O];
// POP drops the two saved entries once the loop exits.
func (e *emitter) emitArrayCopyLoop(uid, length int, stackOffset byte) {
	e.prog.emitData(EncodeOp(LDA, false, false), uid, 0)
	e.prog.emit(EncodeOp(SAVE, false, false), 0)
	dst := stackOffset + savedRegisters
	loopStart := e.prog.at()
	e.prog.emit(EncodeOp(MOV, false, false), Mov(RegA, RegO))
	e.prog.emit(EncodeOp(LDB, false, false), byte(length))
	e.prog.emit(EncodeOp(CMP, false, false), 0)
	exitIdx := e.prog.emit(EncodeOp(JGE, false, false), 0)
	e.prog.emit(EncodeOp(LDA, false, true), savedRegisters)
	e.prog.emit(EncodeOp(INC, false, false), byte(255-int(RegO)))
	e.prog.emit(EncodeOp(STA, false, true), dst)
	e.prog.emit(EncodeOp(JMP, false, false), byte(loopStart))
	e.prog.patch(exitIdx, byte(e.prog.at()))
	e.prog.emit(EncodeOp(OFF, false, false), 0)
	e.prog.emit(EncodeOp(POP, false, false), savedRegisters)
}

// emitBuiltinCall lowers a call to io.print/io.print_char straight to
// PRX/PRC, bypassing CALL/RET entirely (spec §4.3.5, internal_functions.py).
func (e *emitter) emitBuiltinCall(n *ast.Call) {
	op := PRX
	if n.Resolved == builtins.PrintChar {
		op = PRC
	}
	arg := n.Args[0]
	switch a := arg.(type) {
	case *ast.Literal:
		e.prog.emit(EncodeOp(op, false, false), literalByte(a))
	case *ast.Variable:
		e.prog.emit(EncodeOp(op, false, true), byte(e.stack.Offset(namespace.ID(a.BoundID))))
	default:
		e.loadIntoRegister(arg, RegA)
		e.prog.emit(EncodeOp(MOV, false, false), Mov(RegB, RegA))
		e.prog.emit(EncodeOp(op, true, false), byte(RegB.addr()))
	}
}
