package catalog

// levenshtein computes the edit distance between a and b, giving up once the
// distance provably exceeds maxDistance. Returns -1 when over the bound.
//
// The length pre-check makes the common case cheap: two names whose lengths
// differ by more than maxDistance cannot be within the bound.
func levenshtein(a, b string, maxDistance int) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(ra)-len(rb) > maxDistance {
		return -1
	}
	if len(rb) == 0 {
		if len(ra) > maxDistance {
			return -1
		}
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i, ca := range ra {
		curr[0] = i + 1
		rowMin := curr[0]
		for j, cb := range rb {
			cost := 1
			if ca == cb {
				cost = 0
			}
			ins := prev[j+1] + 1
			del := curr[j] + 1
			sub := prev[j] + cost

			m := ins
			if del < m {
				m = del
			}
			if sub < m {
				m = sub
			}
			curr[j+1] = m
			if m < rowMin {
				rowMin = m
			}
		}
		if rowMin > maxDistance {
			return -1
		}
		prev, curr = curr, prev
	}

	if prev[len(rb)] > maxDistance {
		return -1
	}
	return prev[len(rb)]
}
