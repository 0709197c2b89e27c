package machine

import "fmt"

// allocator is a first-fit bitmap over the free memory region (spec
// §4.6.3, REDESIGN/DESIGN NOTES: fragmentation is intentional-but-limited
// by the 240-byte ceiling; an implementation must not reorder live
// entries, which this bitmap scan never does). Grounded on vm.py's
// memory_map dict, reshaped as a fixed array since the address space is
// always exactly 256 cells.
type allocator struct {
	used [256]bool
	lo   int // first allocatable address (program_end)
	hi   int // one past the last allocatable address (240)
}

func newAllocator(lo, hi int) *allocator {
	return &allocator{lo: lo, hi: hi}
}

// alloc finds the first run of n contiguous free cells and marks them
// used, returning the run's starting address.
func (a *allocator) alloc(n int) (byte, error) {
	if n == 0 {
		return 0, fmt.Errorf("machine: cannot allocate 0 cells")
	}
	for start := a.lo; start+n <= a.hi; start++ {
		free := true
		for i := start; i < start+n; i++ {
			if a.used[i] {
				free = false
				break
			}
		}
		if free {
			for i := start; i < start+n; i++ {
				a.used[i] = true
			}
			return byte(start), nil
		}
	}
	return 0, fmt.Errorf("machine: out of memory allocating %d cells", n)
}

// free releases the n cells starting at addr back to the pool.
func (a *allocator) free(addr byte, n int) {
	for i := int(addr); i < int(addr)+n; i++ {
		if i >= 0 && i < len(a.used) {
			a.used[i] = false
		}
	}
}

// allFree reports whether every cell in the allocatable region is free,
// checked at VM halt (spec §5 invariant).
func (a *allocator) allFree() bool {
	for i := a.lo; i < a.hi; i++ {
		if a.used[i] {
			return false
		}
	}
	return true
}
