package compiler

import "fmt"

// instruction is one emitted (opcode-byte, operand-byte) pair. The operand
// may still be an unresolved placeholder when first emitted — a called
// function's entry address, or a data-section offset — in which case Func
// or Data is set and Operand is meaningless until the linker pass runs
// (spec §4.3.6). Jump/branch targets are never placeholders: they are
// computed directly as byte positions within the single flowing
// instruction stream, the same way assembler.py computes them against its
// own growing self.instructions list.
type instruction struct {
	Op      byte
	Operand byte

	Func string // non-"" iff Operand is a FunctionAddress(Func) placeholder
	Data *dataRef
}

// dataRef is a DataAddress(uid, offset) placeholder (spec §4.4): the byte
// at Offset within the data-section entry identified by UID.
type dataRef struct {
	UID    int
	Offset int
}

// program is the unfixed-up instruction stream plus the data section
// accumulated while emitting it, in byte-position units throughout (every
// instruction is exactly 2 bytes, opcode then operand), produced by Emit
// and consumed by Link.
type program struct {
	instrs       []instruction
	data         *dataSection
	functionAddr map[string]int // mangled name -> byte position of its first instruction
}

// at returns the byte position the next emitted instruction will occupy.
func (p *program) at() int { return len(p.instrs) * 2 }

// emit appends one instruction and returns the byte position of its
// opcode byte (assembler.py's add_instruction, which returns the same
// thing against its flat byte list).
func (p *program) emit(op byte, operand byte) int {
	pos := p.at()
	p.instrs = append(p.instrs, instruction{Op: op, Operand: operand})
	return pos
}

func (p *program) emitFunc(op byte, fn string) int {
	pos := p.at()
	p.instrs = append(p.instrs, instruction{Op: op, Func: fn})
	return pos
}

func (p *program) emitData(op byte, uid, offset int) int {
	pos := p.at()
	p.instrs = append(p.instrs, instruction{Op: op, Data: &dataRef{UID: uid, Offset: offset}})
	return pos
}

// patch overwrites the operand byte of the instruction at byte position pos
// (used to backpatch a forward jump once its target is known).
func (p *program) patch(pos int, operand byte) {
	p.instrs[pos/2].Operand = operand
}

// Listing renders the program as a debug instruction listing, one line per
// instruction: "byte_offset: MNEMONIC operand [flags]".
func (p *program) Listing() string {
	out := ""
	for i, in := range p.instrs {
		op := Opcode(in.Op &^ (memFlagBit | stackFlagBit))
		flags := ""
		if in.Op&memFlagBit != 0 {
			flags += " [mem]"
		}
		if in.Op&stackFlagBit != 0 {
			flags += " [stack]"
		}
		operand := fmt.Sprintf("%d", in.Operand)
		if in.Func != "" {
			operand = "&" + in.Func
		} else if in.Data != nil {
			operand = fmt.Sprintf("data(%d+%d)", in.Data.UID, in.Data.Offset)
		}
		out += fmt.Sprintf("%4d: %-4s %s%s\n", i*2, op, operand, flags)
	}
	return out
}
