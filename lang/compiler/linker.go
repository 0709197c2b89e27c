package compiler

import "fmt"

// maxImageLen is the largest byte count a linked image may occupy: the
// top 16 bytes of the 256-byte address space are register-backed and
// never hold code or data (spec §4.6.1/§4.3.6).
const maxImageLen = 256 - 16

// Image is a fully linked program, ready to load into a VM: a flat byte
// sequence with every FunctionAddress/DataAddress placeholder resolved
// to an absolute address (spec §4.3.6/§6).
type Image struct {
	Bytes []byte
}

// Link resolves p's FunctionAddress and DataAddress placeholders into
// absolute bytes and appends the data section, producing a final image.
// Grounded on assembler.py's link step, which walks the same flat
// instruction list once placeholders and data addresses are known.
func Link(p *program) (*Image, error) {
	programEnd := len(p.instrs) * 2
	dataStart := programEnd
	total := dataStart + len(p.data.Bytes())
	if total > maxImageLen {
		return nil, fmt.Errorf("compiler: image too large (%d bytes, max %d)", total, maxImageLen)
	}

	out := make([]byte, 0, total)
	for _, in := range p.instrs {
		operand, err := resolveOperand(p, in, dataStart)
		if err != nil {
			return nil, err
		}
		out = append(out, in.Op, operand)
	}
	out = append(out, p.data.Bytes()...)

	for _, b := range out {
		if int(b) < 0 || int(b) > 255 {
			return nil, fmt.Errorf("compiler: byte %d out of range", b)
		}
	}
	return &Image{Bytes: out}, nil
}

func resolveOperand(p *program, in instruction, dataStart int) (byte, error) {
	switch {
	case in.Func != "":
		addr, ok := p.functionAddr[in.Func]
		if !ok {
			return 0, fmt.Errorf("compiler: unresolved function address placeholder for %q", in.Func)
		}
		if addr > 255 {
			return 0, fmt.Errorf("compiler: function address %d out of range", addr)
		}
		return byte(addr), nil
	case in.Data != nil:
		addr := dataStart + p.data.Offset(in.Data.UID) + in.Data.Offset
		if addr > 255 {
			return 0, fmt.Errorf("compiler: data address %d out of range", addr)
		}
		return byte(addr), nil
	default:
		return in.Operand, nil
	}
}
