package lossless

// matcher finds the longest pattern starting at each offset. Patterns
// are bucketed by their first prefixLen bytes.
type matcher struct {
	prefixLen int
	buckets   map[string][]string
}

func newMatcher(patterns []string, prefixLen int) *matcher {
	m := &matcher{prefixLen: prefixLen, buckets: make(map[string][]string)}
	for _, p := range patterns {
		key := p[:prefixLen]
		m.buckets[key] = append(m.buckets[key], p)
	}
	for _, b := range m.buckets {
		sortPatterns(b)
	}
	return m
}

func (m *matcher) match(text string, i int) string {
	if len(m.buckets) == 0 || len(text)-i < m.prefixLen {
		return ""
	}
	for _, p := range m.buckets[text[i:i+m.prefixLen]] {
		if len(text)-i >= len(p) && text[i:i+len(p)] == p {
			return p
		}
	}
	return ""
}

// substitute scans text greedily left to right. emit, when set, receives
// each literal run or matched pattern in order. It returns the use count of
// every pattern and the patterns in order of first use.
func (m *matcher) substitute(text string, emit func(literal, pattern string)) (map[string]int, []string) {
	uses := make(map[string]int)
	var order []string

	start := 0
	for i := 0; i < len(text); {
		p := m.match(text, i)
		if p == "" {
			i++
			continue
		}
		if emit != nil && start < i {
			emit(text[start:i], "")
		}
		if uses[p] == 0 {
			order = append(order, p)
		}
		uses[p]++
		if emit != nil {
			emit("", p)
		}
		i += len(p)
		start = i
	}
	if emit != nil && start < len(text) {
		emit(text[start:], "")
	}
	return uses, order
}
