package compiler

import (
	"testing"

	"github.com/hatchlang/hatch/lang/namespace"
	"github.com/stretchr/testify/require"
)

func TestStackOffset(t *testing.T) {
	s := NewStack()
	s.Push(namespace.ID(1))
	s.Push(namespace.ID(2))
	s.Push(namespace.ID(3))

	require.Equal(t, 1, s.Offset(namespace.ID(3)))
	require.Equal(t, 2, s.Offset(namespace.ID(2)))
	require.Equal(t, 3, s.Offset(namespace.ID(1)))
}

func TestStackOffsetWithTempScope(t *testing.T) {
	s := NewStack()
	s.Push(namespace.ID(1))

	scope := s.enterTemp()
	scope.add(2)
	require.Equal(t, 3, s.Offset(namespace.ID(1)))
	scope.exit()
	require.Equal(t, 1, s.Offset(namespace.ID(1)))
}

func TestStackOffsetUnboundPanics(t *testing.T) {
	s := NewStack()
	require.Panics(t, func() { s.Offset(namespace.ID(99)) })
}

func TestStackUnstack(t *testing.T) {
	s := NewStack()
	s.Push(namespace.ID(1))
	s.Push(namespace.ID(2))
	s.Unstack(1)
	require.True(t, s.Exists(namespace.ID(1)))
	require.False(t, s.Exists(namespace.ID(2)))
}

func TestNestedTempScopesDoNotLeak(t *testing.T) {
	s := NewStack()
	s.Push(namespace.ID(1))

	outer := s.enterTemp()
	outer.add(1)
	inner := s.enterTemp()
	inner.add(1)
	require.Equal(t, 3, s.Offset(namespace.ID(1)))
	inner.exit()
	require.Equal(t, 2, s.Offset(namespace.ID(1)))
	outer.exit()
	require.Equal(t, 1, s.Offset(namespace.ID(1)))
}
