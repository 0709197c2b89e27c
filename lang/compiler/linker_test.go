package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinkResolvesFunctionAddress(t *testing.T) {
	p := &program{data: newDataSection(), functionAddr: map[string]int{"main": 0}}
	p.emitFunc(EncodeOp(CALL, false, false), "main")
	p.emit(EncodeOp(HLT, false, false), 0)

	img, err := Link(p)
	require.NoError(t, err)
	require.Equal(t, []byte{byte(CALL), 0, byte(HLT), 0}, img.Bytes)
}

func TestLinkUnresolvedFunctionFails(t *testing.T) {
	p := &program{data: newDataSection(), functionAddr: map[string]int{}}
	p.emitFunc(EncodeOp(CALL, false, false), "missing")

	_, err := Link(p)
	require.ErrorContains(t, err, "unresolved function address")
}

func TestLinkDataAddressOffset(t *testing.T) {
	p := &program{data: newDataSection(), functionAddr: map[string]int{}}
	p.emit(EncodeOp(NOP, false, false), 0)
	uid := p.data.Insert([]byte{9, 9})
	p.emitData(EncodeOp(LDA, true, false), uid, 1)

	img, err := Link(p)
	require.NoError(t, err)
	// program is 2 instructions (4 bytes), data section starts at offset 4,
	// the referenced uid starts at offset 0 within it, plus the per-reference
	// offset of 1: effective address 5.
	require.Equal(t, byte(5), img.Bytes[3])
}

func TestLinkImageTooLargeFails(t *testing.T) {
	p := &program{data: newDataSection(), functionAddr: map[string]int{}}
	for i := 0; i < maxImageLen; i++ {
		p.emit(EncodeOp(NOP, false, false), 0)
	}
	_, err := Link(p)
	require.ErrorContains(t, err, "too large")
}

func TestLinkExactBudgetSucceeds(t *testing.T) {
	p := &program{data: newDataSection(), functionAddr: map[string]int{}}
	for i := 0; i < maxImageLen/2; i++ {
		p.emit(EncodeOp(NOP, false, false), 0)
	}
	img, err := Link(p)
	require.NoError(t, err)
	require.Len(t, img.Bytes, maxImageLen)
}
