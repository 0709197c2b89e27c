package compiler

import (
	"fmt"

	"github.com/hatchlang/hatch/internal/builtins"
	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/checker"
	"github.com/hatchlang/hatch/lang/namespace"
	"github.com/hatchlang/hatch/lang/token"
	"github.com/hatchlang/hatch/lang/types"
)

// savedRegisters is the number of cells SAVE pushes ahead of a call's
// arguments (A then B), which RET pops again on return (spec §4.3.5).
const savedRegisters = 2

// localInfo records, for a bound identifier, whether it names an aggregate
// (array or struct) — needed at block exit to decide between FREEing a
// scalar cell and FREEing (or POPping) an aggregate's allocation.
type localInfo struct {
	Array  bool
	Struct bool
}

// loopContext accumulates the byte positions of break/continue jumps
// emitted inside one loop body, backpatched once the loop's end and
// condition-re-check positions are known (assembler.py's LoopContext).
type loopContext struct {
	breaks    []int
	continues []int
}

// emitter lowers one checked program to bytecode. A single emitter walks
// main's body first, then every other reachable function in turn, sharing
// one instruction stream (grounded on assembler.py's Assembler, which does
// the same against a single flat self.instructions list so that every jump
// target computed during emission is already an absolute position).
type emitter struct {
	prog    *program
	stack   *Stack
	structs *types.Manager
	locals  map[namespace.ID]localInfo
	loops   []*loopContext
	err     error
}

// Emit lowers result to a linkable program (spec §4.3). Callers should
// follow a successful Emit with Link to resolve placeholders and produce
// a final image.
func Emit(result *checker.Result) (*program, error) {
	e := &emitter{
		prog:    &program{data: newDataSection(), functionAddr: map[string]int{"main": 0}},
		structs: result.Structs,
		locals:  make(map[namespace.ID]localInfo),
	}

	main, ok := result.Functions["main"]
	if !ok {
		return nil, fmt.Errorf("compiler: checked result has no main function")
	}
	e.stack = NewStack()
	// main's body is lowered as a plain block, not emitFunction's is_function
	// path: it is never CALLed (so there is no return address for an
	// implicit fallthrough RET to pop) and falls straight through to the
	// HLT below (assembler.py's assemble() parses main.body the same way,
	// without is_function=True).
	e.parseBlock(main.Body, false, false, nil)
	e.prog.emit(EncodeOp(HLT, false, false), 0)

	for _, name := range result.Order {
		if name == "main" {
			continue
		}
		fn := result.Functions[name]
		e.prog.functionAddr[name] = e.prog.at()
		e.stack = NewStack()
		e.emitFunction(fn)
		if e.err != nil {
			break
		}
	}

	if e.err != nil {
		return nil, e.err
	}
	return e.prog, nil
}

func (e *emitter) fail(pos token.Position, format string, args ...any) {
	if e.err == nil {
		e.err = fmt.Errorf("%s:%d:%d: %s", pos.Filename, pos.Line, pos.Column, fmt.Sprintf(format, args...))
	}
}

func (e *emitter) emitFunction(fn *ast.Function) {
	var paramIDs []namespace.ID
	for i := range fn.Params {
		p := &fn.Params[i]
		id := namespace.ID(p.BoundID)
		e.stack.Push(id)
		e.locals[id] = localInfo{Array: p.IsArray, Struct: e.isStruct(p.Type)}
		// A by-value aggregate parameter is the callee's own DUP copy and
		// is freed at return; only by-reference ones are merely popped.
		if p.IsRef {
			paramIDs = append(paramIDs, id)
		}
	}
	e.parseBlock(fn.Body, true, false, paramIDs)
}

func (e *emitter) isStruct(typeName string) bool {
	t, err := e.structs.Get(typeName)
	return err == nil && t.HasStruct()
}

func (e *emitter) isBuiltinCall(n *ast.Call) bool {
	return builtins.IsBuiltin(n.Resolved)
}

func (e *emitter) curLoop() *loopContext {
	return e.loops[len(e.loops)-1]
}

// parseBlock lowers one block's statements. dontFree skips the usual
// end-of-block local cleanup (for/while bodies free their locals
// themselves, after emitting the loop's action/re-check step, mirroring
// assembler.py's parse(..., dont_free=True)). paramIDs is only meaningful
// when isFunction, distinguishing by-reference aggregate parameters (POP,
// storage owned by the caller) from locally constructed aggregates (FREE
// mem_flag, storage owned here) at return.
func (e *emitter) parseBlock(b *ast.Block, isFunction, dontFree bool, paramIDs []namespace.ID) {
	var localIDs []namespace.ID
	alreadyPopped := dontFree

	for _, stmt := range b.Stmts {
		if e.err != nil {
			return
		}
		switch s := stmt.(type) {
		case *ast.Block:
			e.parseBlock(s, false, false, nil)

		case *ast.Let:
			id := e.parseLet(s)
			localIDs = append(localIDs, id)

		case *ast.If:
			e.parseIf(s)

		case *ast.Assign:
			e.parseAssign(s)

		case *ast.AssignIndex:
			e.parseAssignIndex(s)

		case *ast.AccessAssign:
			e.parseAccessAssign(s)

		case *ast.ExprStmt:
			e.parseExprStmt(s)

		case *ast.For:
			e.parseFor(s)

		case *ast.While:
			e.parseWhile(s)

		case *ast.Break:
			idx := e.prog.emit(EncodeOp(JMP, false, false), 0)
			e.curLoop().breaks = append(e.curLoop().breaks, idx)

		case *ast.Continue:
			idx := e.prog.emit(EncodeOp(JMP, false, false), 0)
			e.curLoop().continues = append(e.curLoop().continues, idx)

		case *ast.Return:
			alreadyPopped = true
			e.parseReturn(s, paramIDs)
			return

		case *ast.Import:
			// nothing to emit; already folded in at parse time.

		default:
			e.fail(stmt.Pos(), "compiler: unhandled statement %T", stmt)
		}
	}

	if e.err != nil {
		return
	}
	if !alreadyPopped {
		if isFunction {
			e.freeLocalStack(e.allFunctionLocals(paramIDs), paramIDs, true)
			e.prog.emit(EncodeOp(RET, false, false), 0)
		} else {
			e.freeLocalStack(localIDs, nil, false)
		}
	}
}

// allFunctionLocals returns every identifier currently on the compile-time
// stack belonging to the running function (i.e. everything bound since the
// function's parameters were pushed), for freeing at an implicit
// fall-through return (assembler.py: free_local_stack(..., is_return=True)
// walks namespace.get_namespace(no_globals=True), which is every local
// reachable from the function's own scope chain, not just the innermost
// block).
func (e *emitter) allFunctionLocals(paramIDs []namespace.ID) []namespace.ID {
	return e.stack.ids[:]
}

// freeLocalStack releases the top len(locals) compile-time stack entries,
// which must be exactly the tail of the runtime stack (assembler.py:
// free_local_stack). Scalars are coalesced into a single FREE of a run of
// cells; each aggregate is freed (or, if it is one of paramIDs — storage
// the caller owns — merely popped) individually.
func (e *emitter) freeLocalStack(locals []namespace.ID, paramIDs []namespace.ID, isReturn bool) {
	if len(locals) == 0 {
		return
	}
	set := make(map[namespace.ID]bool, len(locals))
	for _, id := range locals {
		set[id] = true
	}
	params := make(map[namespace.ID]bool, len(paramIDs))
	for _, id := range paramIDs {
		params[id] = true
	}

	streak := 0
	for i := len(e.stack.ids) - 1; i >= 0; i-- {
		id := e.stack.ids[i]
		if !set[id] {
			break
		}
		info := e.locals[id]
		if !info.Array && !info.Struct {
			streak++
			continue
		}
		if streak > 0 {
			e.prog.emit(EncodeOp(FREE, false, false), byte(streak))
			streak = 0
		}
		if params[id] {
			e.prog.emit(EncodeOp(POP, false, false), 1)
		} else {
			e.prog.emit(EncodeOp(FREE, true, false), 0)
		}
	}
	if streak > 0 {
		e.prog.emit(EncodeOp(FREE, false, false), byte(streak))
	}
	if !isReturn {
		e.stack.Unstack(len(locals))
	}
}

// literalByte narrows a literal's runtime value to the single byte the VM
// stores it as: ints and chars truncate mod 256 (spec §4.6.1 register
// wraparound extends to stored scalars), bools are 0/1.
func literalByte(lit *ast.Literal) byte {
	switch v := lit.Value.(type) {
	case int64:
		return byte(((v % 256) + 256) % 256)
	case int:
		return byte(((v % 256) + 256) % 256)
	case bool:
		if v {
			return 1
		}
		return 0
	case byte:
		return v
	case rune:
		return byte(v)
	default:
		return 0
	}
}

func idOf(e ast.Expr) namespace.ID {
	switch n := e.(type) {
	case *ast.Variable:
		return namespace.ID(n.BoundID)
	case *ast.IncDec:
		return namespace.ID(n.BoundID)
	}
	return 0
}
