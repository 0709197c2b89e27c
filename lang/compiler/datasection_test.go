package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDataSectionDedup(t *testing.T) {
	d := newDataSection()
	a := d.Insert([]byte{1, 2, 3})
	b := d.Insert([]byte{1, 2, 3})
	require.Equal(t, a, b)
}

func TestDataSectionDistinctEntries(t *testing.T) {
	d := newDataSection()
	a := d.Insert([]byte{1, 2, 3})
	b := d.Insert([]byte{4, 5})
	require.NotEqual(t, a, b)
	require.Equal(t, []byte{1, 2, 3, 4, 5}, d.Bytes())
}

func TestDataSectionOffset(t *testing.T) {
	d := newDataSection()
	d.Insert([]byte{1, 2, 3})
	second := d.Insert([]byte{4, 5})
	require.Equal(t, 3, d.Offset(second))
}
