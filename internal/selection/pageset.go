package selection

// pageSet is a membership mask over pages 1..total. Index 0 is unused.
type pageSet struct {
	in []bool
}

func newPageSet(total int) pageSet {
	if total < 0 {
		total = 0
	}
	return pageSet{in: make([]bool, total+1)}
}

func fullPageSet(total int) pageSet {
	s := newPageSet(total)
	for p := 1; p <= total; p++ {
		s.in[p] = true
	}
	return s
}

func pageSetOf(total int, pages ...int) pageSet {
	s := newPageSet(total)
	for _, p := range pages {
		s.add(p)
	}
	return s
}

func (s pageSet) total() int { return len(s.in) - 1 }

// add marks p; pages outside 1..total are dropped.
func (s pageSet) add(p int) {
	if p >= 1 && p < len(s.in) {
		s.in[p] = true
	}
}

func (s pageSet) has(p int) bool { return p >= 1 && p < len(s.in) && s.in[p] }

func (s pageSet) union(o pageSet) pageSet {
	out := newPageSet(s.total())
	for p := 1; p < len(out.in); p++ {
		out.in[p] = s.has(p) || o.has(p)
	}
	return out
}

func (s pageSet) intersect(o pageSet) pageSet {
	out := newPageSet(s.total())
	for p := 1; p < len(out.in); p++ {
		out.in[p] = s.has(p) && o.has(p)
	}
	return out
}

func (s pageSet) complement() pageSet {
	out := newPageSet(s.total())
	for p := 1; p < len(out.in); p++ {
		out.in[p] = !s.in[p]
	}
	return out
}

func (s pageSet) empty() bool {
	for p := 1; p < len(s.in); p++ {
		if s.in[p] {
			return false
		}
	}
	return true
}

// first returns the lowest member at or after from, or 0.
func (s pageSet) first(from int) int {
	if from < 1 {
		from = 1
	}
	for p := from; p < len(s.in); p++ {
		if s.in[p] {
			return p
		}
	}
	return 0
}

// pages returns the members in ascending order.
func (s pageSet) pages() []int {
	var out []int
	for p := 1; p < len(s.in); p++ {
		if s.in[p] {
			out = append(out, p)
		}
	}
	return out
}
