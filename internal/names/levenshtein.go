package names

// Levenshtein returns the edit distance between a and b with unit cost for
// insert, delete, and substitute. Single-row dynamic programming, O(len(b))
// space.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	m, n := len(a), len(b)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	row := make([]int, n+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= m; i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= n; j++ {
			tmp := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prev
			} else {
				row[j] = 1 + min(prev, min(row[j], row[j-1]))
			}
			prev = tmp
		}
	}
	return row[n]
}

// WithinDistance reports whether a and b are at most max edits apart.
// A length difference beyond the bound short-circuits without computing
// the full distance.
func WithinDistance(a, b string, max int) bool {
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > max {
		return false
	}
	return Levenshtein(a, b) <= max
}
