package core

// Resolve prunes mutually-claiming multiplets so each alert belongs to at
// most one resolved group.
//
// For every mutual pair (A claims B and B claims A) the side with the
// smaller touching set loses; on equal sizes the larger index loses. Losing
// entries are reset to empty, keeping their key. All decisions are taken
// against the unresolved input graph and applied in a second pass, so the
// outcome never depends on iteration order. The input is not modified.
//
// Resolve is idempotent: a cleared entry no longer claims anyone, so
// re-running resolution on its own output changes nothing.
func Resolve(g Graph) Graph {
	remove := make(map[int]bool)
	for a, members := range g {
		if len(members) == 0 {
			continue
		}
		for _, b := range members {
			if !g.Has(b, a) {
				continue
			}
			switch {
			case len(g[a]) < len(g[b]):
				remove[a] = true
			case len(g[a]) > len(g[b]):
				remove[b] = true
			case a > b:
				remove[a] = true
			default:
				remove[b] = true
			}
		}
	}

	resolved := make(Graph, len(g))
	for a, members := range g {
		if remove[a] {
			resolved[a] = []int{}
			continue
		}
		resolved[a] = append([]int{}, members...)
	}
	return resolved
}
