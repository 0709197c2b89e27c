package checker

// reachable computes the least fixed point of the call graph starting at
// main (spec §4.5): a function is included iff it is main or is called,
// directly or transitively, from an included function.
func (c *checker) reachable() map[string]bool {
	included := map[string]bool{"main": true}
	for {
		added := false
		for _, edge := range c.calls {
			if included[edge.from] && !included[edge.to] {
				included[edge.to] = true
				added = true
			}
		}
		if !added {
			break
		}
	}
	return included
}
