package checker

import (
	"github.com/hatchlang/hatch/lang/ast"
	"github.com/hatchlang/hatch/lang/types"
)

// defineStruct registers st's member layout in the shared type table (spec
// §4.2 pass 1: "compute its internal member-position map").
func (c *checker) defineStruct(st *ast.Struct) {
	layout := &types.StructLayout{
		Offsets: make(map[string]int),
		Types:   make(map[string]*types.Type),
	}
	for i, m := range st.Members {
		layout.Order = append(layout.Order, m.Name)
		layout.Offsets[m.Name] = i + 1
		if t, err := c.types.Get(m.Type); err == nil {
			layout.Types[m.Name] = t
		}
	}
	c.types.Define(&types.Type{Name: st.Name, Length: len(st.Members) + 1, Struct: layout})
}
