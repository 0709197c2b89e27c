// Package machine implements the stack+register virtual machine that
// executes a linked hatch image (spec §4.6). Grounded on
// original_source/vm/vm.py and original_source/vm/components/{register,memory}.py,
// restructured around Go's native byte wraparound arithmetic in place of the
// original's explicit `% 256` bookkeeping, and around compiler.Register
// rather than a separate register type since nothing here needs a register
// to be anything other than one of its own 256 memory cells.
package machine

import (
	"fmt"

	"github.com/hatchlang/hatch/lang/compiler"
)

// memSize is the full 8-bit address space (spec §4.6.1). programLimit is
// the boundary below which code, data, and the runtime heap live; the top
// 16 bytes are register-backed and never loaded from an image.
const (
	memSize      = 256
	programLimit = memSize - 16
)

// Entry is one line of the VM's output log (spec §4.6.5): PRX appends an
// integer, PRC appends a character.
type Entry struct {
	Char  bool
	Value byte
}

func (e Entry) String() string {
	if e.Char {
		return string(rune(e.Value))
	}
	return fmt.Sprintf("%d", e.Value)
}

// flags holds the six comparison results CMP computes from (A, B), each
// consumed by its own conditional jump opcode (spec §4.6.4).
type flags struct {
	eq, ne, gt, ge, lt, le bool
}

// Machine is one runnable instance of a linked image: a flat 256-byte
// memory whose top 16 cells are register-backed, a data stack of memory
// addresses, a call stack of return addresses, CMP's flags, and the
// output log. Grounded on original_source/vm/vm.py's OctoEngine, with the
// register/memory split collapsed into a single byte array since nothing
// in this VM depends on a register being anything other than one of its
// own 256 memory cells.
type Machine struct {
	mem        [memSize]byte
	programEnd int
	alloc      *allocator

	dataStack []byte
	callStack []byte

	flags  flags
	output []Entry
	halted bool
	steps  int
}

// maxSteps bounds runaway programs. This is an implementation safety net,
// not part of the language semantics: a well-formed program halts on its
// own via HLT.
const maxSteps = 10_000_000

// Load installs img as the running program at address 0 and seeds the
// allocator with the remaining free region up to the register-reserved
// boundary (spec §6: the image is raw code followed by its data section).
func Load(img []byte) (*Machine, error) {
	if len(img) > programLimit {
		return nil, fmt.Errorf("machine: image too large (%d bytes, max %d)", len(img), programLimit)
	}
	m := &Machine{programEnd: len(img)}
	copy(m.mem[:], img)
	m.alloc = newAllocator(m.programEnd, programLimit)
	return m, nil
}

// Output returns the VM's accumulated output log.
func (m *Machine) Output() []Entry { return m.output }

// Halted reports whether the machine has executed HLT.
func (m *Machine) Halted() bool { return m.halted }

// DebugState is a snapshot of register and stack state between instruction
// cycles, for --debug tracing (grounded on vm.py's debug branch, which
// prints registers A/B/F/O/I and the stack after every cycle).
type DebugState struct {
	A, B, C, F, O, Inst byte
	DataStack           []byte
	CallStack           []byte
}

// Snapshot captures the machine's current register and stack state.
func (m *Machine) Snapshot() DebugState {
	return DebugState{
		A:         m.reg(compiler.RegA),
		B:         m.reg(compiler.RegB),
		C:         m.reg(compiler.RegC),
		F:         m.reg(compiler.RegF),
		O:         m.reg(compiler.RegO),
		Inst:      m.reg(compiler.RegInst),
		DataStack: append([]byte(nil), m.dataStack...),
		CallStack: append([]byte(nil), m.callStack...),
	}
}

// Step executes exactly one instruction cycle, or does nothing if the
// machine has already halted. Callers driving a --debug trace call Step
// repeatedly and snapshot state between calls, rather than calling Run.
func (m *Machine) Step() error {
	if m.halted {
		return nil
	}
	return m.step()
}

// reg reads register r's current value through its mirrored memory cell.
func (m *Machine) reg(r compiler.Register) byte { return m.mem[regAddr(r)] }

// setReg writes register r's mirrored memory cell.
func (m *Machine) setReg(r compiler.Register, v byte) { m.mem[regAddr(r)] = v }

// regAddr is the memory address register r is mirrored at (255-idx, spec
// §4.6.1/§4.6.4).
func regAddr(r compiler.Register) byte { return 255 - byte(r) }

// Run executes instructions until HLT or a runtime error, then checks the
// halt invariant (spec §5): the data stack is empty and every allocated
// cell has been freed.
func (m *Machine) Run() ([]Entry, error) {
	for !m.halted {
		if m.steps >= maxSteps {
			return m.output, fmt.Errorf("machine: exceeded %d instruction steps without halting", maxSteps)
		}
		if err := m.step(); err != nil {
			return m.output, err
		}
	}
	if err := m.CheckHalted(); err != nil {
		return m.output, err
	}
	return m.output, nil
}

// CheckHalted verifies the halt invariant (spec §5): the data stack is
// empty and every allocated cell has been freed. Exported separately from
// Run so a --debug caller driving the machine one Step at a time can run
// the same check once the machine halts.
func (m *Machine) CheckHalted() error {
	if len(m.dataStack) != 0 {
		return fmt.Errorf("machine: data stack not empty at halt (%d entries)", len(m.dataStack))
	}
	if !m.alloc.allFree() {
		return fmt.Errorf("machine: not every allocated cell was freed by halt")
	}
	return nil
}

// step fetches and executes one instruction, advancing INST by 2 before
// dispatch (spec §4.6.2), so a jump's operand is interpreted as an
// absolute target rather than relative to the instruction that set it.
func (m *Machine) step() error {
	m.steps++
	inst := m.reg(compiler.RegInst)
	if int(inst)+1 >= memSize {
		return fmt.Errorf("machine: instruction fetch out of bounds at %d", inst)
	}
	first := m.mem[inst]
	operand := m.mem[inst+1]
	m.setReg(compiler.RegInst, inst+2)

	op := compiler.Opcode(first & 0x1F)
	memFlag := first&0x80 != 0
	stackFlag := first&0x40 != 0

	return m.dispatch(op, memFlag, stackFlag, operand)
}

// stackAddr resolves a stack_flag=1 operand: a 1-based distance from the
// top of the data stack, offset by the current value of O (spec §4.6.2).
func (m *Machine) stackAddr(operand byte) (byte, error) {
	idx := len(m.dataStack) - int(operand)
	if idx < 0 || idx >= len(m.dataStack) {
		return 0, fmt.Errorf("machine: stack offset %d out of range (depth %d)", operand, len(m.dataStack))
	}
	base := m.dataStack[idx]
	return base + m.reg(compiler.RegO), nil
}

// loadOperand resolves an instruction's effective value per the general
// three-way decode (spec §4.6.2): mem_flag dereferences operand as an
// address, stack_flag resolves a stack-relative address, and neither uses
// operand as an immediate.
func (m *Machine) loadOperand(memFlag, stackFlag bool, operand byte) (byte, error) {
	switch {
	case memFlag:
		return m.mem[operand], nil
	case stackFlag:
		addr, err := m.stackAddr(operand)
		if err != nil {
			return 0, err
		}
		return m.mem[addr], nil
	default:
		return operand, nil
	}
}

// storeAddr resolves the address a store-family instruction (STA, STB,
// INC, DEC) writes to: stack_flag selects a stack-relative address,
// otherwise operand is used directly (assembler.py's STA/STB/INC/DEC never
// consult mem_flag — the direct-address and stack-relative cases are the
// only two store addressing modes).
func (m *Machine) storeAddr(stackFlag bool, operand byte) (byte, error) {
	if stackFlag {
		return m.stackAddr(operand)
	}
	return operand, nil
}

func (m *Machine) dispatch(op compiler.Opcode, memFlag, stackFlag bool, operand byte) error {
	switch op {
	case compiler.NOP:
		return nil

	case compiler.LDA:
		v, err := m.loadOperand(memFlag, stackFlag, operand)
		if err != nil {
			return err
		}
		m.setReg(compiler.RegA, v)
		return nil

	case compiler.LDB:
		v, err := m.loadOperand(memFlag, stackFlag, operand)
		if err != nil {
			return err
		}
		m.setReg(compiler.RegB, v)
		return nil

	case compiler.FREE:
		return m.execFree(memFlag, int(operand))

	case compiler.PRB:
		m.output = append(m.output, Entry{Value: m.reg(compiler.RegB)})
		return nil

	case compiler.ADD:
		m.setReg(compiler.RegA, m.reg(compiler.RegA)+m.reg(compiler.RegB))
		return nil

	case compiler.HLT:
		m.halted = true
		return nil

	case compiler.PRX:
		v, err := m.loadOperand(memFlag, stackFlag, operand)
		if err != nil {
			return err
		}
		m.output = append(m.output, Entry{Value: v})
		return nil

	case compiler.JMP:
		target, err := m.jumpTarget(memFlag, operand)
		if err != nil {
			return err
		}
		m.setReg(compiler.RegInst, target)
		return nil

	case compiler.STA:
		addr, err := m.storeAddr(stackFlag, operand)
		if err != nil {
			return err
		}
		m.mem[addr] = m.reg(compiler.RegA)
		return nil

	case compiler.STB:
		addr, err := m.storeAddr(stackFlag, operand)
		if err != nil {
			return err
		}
		m.mem[addr] = m.reg(compiler.RegB)
		return nil

	case compiler.INC:
		addr, err := m.storeAddr(stackFlag, operand)
		if err != nil {
			return err
		}
		m.mem[addr]++
		return nil

	case compiler.DEC:
		addr, err := m.storeAddr(stackFlag, operand)
		if err != nil {
			return err
		}
		m.mem[addr]--
		return nil

	case compiler.MOV:
		into := compiler.Register((operand & 0xF0) >> 4)
		from := compiler.Register(operand & 0x0F)
		m.setReg(into, m.reg(from))
		return nil

	case compiler.CMP:
		a, b := m.reg(compiler.RegA), m.reg(compiler.RegB)
		m.flags = flags{
			eq: a == b, ne: a != b,
			gt: a > b, ge: a >= b,
			lt: a < b, le: a <= b,
		}
		return nil

	case compiler.JE:
		return m.branchIf(m.flags.eq, operand)
	case compiler.JNE:
		return m.branchIf(m.flags.ne, operand)
	case compiler.JG:
		return m.branchIf(m.flags.gt, operand)
	case compiler.JGE:
		return m.branchIf(m.flags.ge, operand)
	case compiler.JL:
		return m.branchIf(m.flags.lt, operand)
	case compiler.JLE:
		return m.branchIf(m.flags.le, operand)

	case compiler.NEG:
		m.setReg(compiler.RegA, m.reg(compiler.RegA)-m.reg(compiler.RegB))
		return nil

	case compiler.CALL:
		return m.execCall(stackFlag, operand)

	case compiler.RET:
		return m.execRet(stackFlag, operand)

	case compiler.PUSH:
		addr, err := m.alloc.alloc(int(operand))
		if err != nil {
			return err
		}
		m.dataStack = append(m.dataStack, addr)
		return nil

	case compiler.POP:
		return m.execPop(int(operand))

	case compiler.SAVE:
		m.dataStack = append(m.dataStack, m.reg(compiler.RegA), m.reg(compiler.RegB))
		return nil

	case compiler.OFF:
		v, err := m.loadOperand(memFlag, stackFlag, operand)
		if err != nil {
			return err
		}
		m.setReg(compiler.RegO, v)
		return nil

	case compiler.MUL:
		m.setReg(compiler.RegA, m.reg(compiler.RegA)*m.reg(compiler.RegB))
		return nil

	case compiler.DIV:
		b := m.reg(compiler.RegB)
		if b == 0 {
			return fmt.Errorf("machine: division by zero")
		}
		m.setReg(compiler.RegA, m.reg(compiler.RegA)/b)
		return nil

	case compiler.PRC:
		v, err := m.loadOperand(memFlag, stackFlag, operand)
		if err != nil {
			return err
		}
		m.output = append(m.output, Entry{Char: true, Value: v})
		return nil

	case compiler.DUP:
		return m.execDup(operand)

	default:
		return fmt.Errorf("machine: undefined instruction %d", op)
	}
}

// jumpTarget resolves JMP/CALL's target: mem_flag dereferences operand as
// an address holding the target, otherwise operand is the target itself
// (assembler.py never emits a stack_flag jump, so that combination is not
// handled here).
func (m *Machine) jumpTarget(memFlag bool, operand byte) (byte, error) {
	if memFlag {
		return m.mem[operand], nil
	}
	return operand, nil
}

func (m *Machine) branchIf(taken bool, operand byte) error {
	if taken {
		m.setReg(compiler.RegInst, operand)
	}
	return nil
}

// execFree releases stack cells (spec §4.6.3): plain FREE n pops n scalar
// entries and releases their single cell each; FREE mem_flag=1 pops one
// entry whose cell holds a length byte and releases all length+1 cells.
func (m *Machine) execFree(memFlag bool, operand int) error {
	if memFlag {
		if len(m.dataStack) == 0 {
			return fmt.Errorf("machine: FREE on empty data stack")
		}
		addr := m.dataStack[len(m.dataStack)-1]
		m.dataStack = m.dataStack[:len(m.dataStack)-1]
		length := m.mem[addr]
		m.alloc.free(addr, int(length)+1)
		return nil
	}
	if operand > len(m.dataStack) {
		return fmt.Errorf("machine: FREE %d exceeds data stack depth %d", operand, len(m.dataStack))
	}
	for i := 0; i < operand; i++ {
		addr := m.dataStack[len(m.dataStack)-1]
		m.dataStack = m.dataStack[:len(m.dataStack)-1]
		m.alloc.free(addr, 1)
	}
	return nil
}

func (m *Machine) execPop(n int) error {
	if n > len(m.dataStack) {
		return fmt.Errorf("machine: POP %d exceeds data stack depth %d", n, len(m.dataStack))
	}
	m.dataStack = m.dataStack[:len(m.dataStack)-n]
	return nil
}

func (m *Machine) execCall(stackFlag bool, operand byte) error {
	target, err := m.callTarget(stackFlag, operand)
	if err != nil {
		return err
	}
	m.callStack = append(m.callStack, m.reg(compiler.RegInst))
	m.setReg(compiler.RegInst, target)
	return nil
}

// callTarget resolves CALL's target: stack_flag reads it from a stack
// cell (a higher-order call through a local holding a function address),
// otherwise operand is the target address directly.
func (m *Machine) callTarget(stackFlag bool, operand byte) (byte, error) {
	if stackFlag {
		addr, err := m.stackAddr(operand)
		if err != nil {
			return 0, err
		}
		return m.mem[addr], nil
	}
	return operand, nil
}

func (m *Machine) execRet(stackFlag bool, operand byte) error {
	if len(m.callStack) == 0 {
		return fmt.Errorf("machine: RET with empty call stack")
	}
	ret := m.callStack[len(m.callStack)-1]
	m.callStack = m.callStack[:len(m.callStack)-1]
	m.setReg(compiler.RegInst, ret)

	if !stackFlag {
		m.setReg(compiler.RegF, operand)
	}
	if len(m.dataStack) < 2 {
		return fmt.Errorf("machine: RET with fewer than 2 saved registers on the data stack")
	}
	savedB := m.dataStack[len(m.dataStack)-1]
	savedA := m.dataStack[len(m.dataStack)-2]
	m.dataStack = m.dataStack[:len(m.dataStack)-2]
	m.setReg(compiler.RegB, savedB)
	m.setReg(compiler.RegA, savedA)
	return nil
}

// execDup duplicates an aggregate (array or struct) at the stack entry
// operand cells from the top: it reads the length byte at that address,
// allocates a fresh run of the same size, and copies length+1 bytes (spec
// §4.6.3).
func (m *Machine) execDup(operand byte) error {
	idx := len(m.dataStack) - int(operand)
	if idx < 0 || idx >= len(m.dataStack) {
		return fmt.Errorf("machine: DUP offset %d out of range (depth %d)", operand, len(m.dataStack))
	}
	src := m.dataStack[idx]
	length := m.mem[src]
	dst, err := m.alloc.alloc(int(length) + 1)
	if err != nil {
		return err
	}
	for i := 0; i <= int(length); i++ {
		m.mem[int(dst)+i] = m.mem[int(src)+i]
	}
	m.dataStack = append(m.dataStack, dst)
	return nil
}
