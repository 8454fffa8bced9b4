package links

import "sort"

// NeighborGroup is every slug at the same undirected hop distance, sorted.
type NeighborGroup struct {
	Distance int
	Slugs    []string
}

// Neighbors performs a breadth-first walk of the undirected outgoing+incoming
// union graph starting at slug, grouping results by hop distance up to
// maxDepth. Each group's slugs are lexicographically sorted for determinism.
func (e *Engine) Neighbors(slug string, maxDepth int) []NeighborGroup {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if maxDepth <= 0 || !e.noteSlugVisible(slug) {
		return nil
	}

	visited := map[string]int{slug: 0}
	order := []string{slug}
	var groups []NeighborGroup
	byDistance := make(map[int][]string)

	head := 0
	for head < len(order) {
		cur := order[head]
		head++
		d := visited[cur]
		if d >= maxDepth {
			continue
		}
		for _, nb := range e.neighborsOf(cur) {
			if _, seen := visited[nb]; seen {
				continue
			}
			visited[nb] = d + 1
			order = append(order, nb)
			byDistance[d+1] = append(byDistance[d+1], nb)
		}
	}

	for dist := 1; dist <= maxDepth; dist++ {
		slugs, ok := byDistance[dist]
		if !ok {
			continue
		}
		sort.Strings(slugs)
		groups = append(groups, NeighborGroup{Distance: dist, Slugs: slugs})
	}
	return groups
}

// noteSlugVisible reports whether slug is a known note. Caller must hold a
// read lock.
func (e *Engine) noteSlugVisible(slug string) bool {
	_, ok := e.noteSlugs[slug]
	return ok
}

// ShortestPath finds a single shortest path between a and b over the
// undirected union graph, bounded by maxDepth hops. Ties among equal-length
// paths are broken deterministically by visiting each node's neighbors in
// lexicographic order, so the same graph always yields the same path. A nil
// slice with ok=false means no path exists within maxDepth.
func (e *Engine) ShortestPath(a, b string, maxDepth int) (path []string, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.shortestPathLocked(a, b, maxDepth)
}

func (e *Engine) shortestPathLocked(a, b string, maxDepth int) ([]string, bool) {
	if a == b {
		if e.noteSlugVisible(a) {
			return []string{a}, true
		}
		return nil, false
	}
	if !e.noteSlugVisible(a) || !e.noteSlugVisible(b) {
		return nil, false
	}

	visited := map[string]struct{}{a: {}}
	parent := map[string]string{}
	depth := map[string]int{a: 0}
	queue := []string{a}
	head := 0

	for head < len(queue) {
		cur := queue[head]
		head++
		if depth[cur] >= maxDepth {
			continue
		}
		for _, nb := range e.neighborsOf(cur) {
			if _, seen := visited[nb]; seen {
				continue
			}
			visited[nb] = struct{}{}
			parent[nb] = cur
			depth[nb] = depth[cur] + 1
			if nb == b {
				return reconstructPath(parent, a, b), true
			}
			queue = append(queue, nb)
		}
	}
	return nil, false
}

// reconstructPath walks the parent map from target back to start and
// returns the path in start->target order.
func reconstructPath(parent map[string]string, start, target string) []string {
	var rev []string
	cur := target
	for cur != start {
		rev = append(rev, cur)
		cur = parent[cur]
	}
	rev = append(rev, start)

	out := make([]string, len(rev))
	for i, s := range rev {
		out[len(rev)-1-i] = s
	}
	return out
}

// MultiShortestPaths computes the shortest path between every pair of slugs
// in the set (sorted, a<b to avoid duplicate work), unions all path nodes
// into a backbone, and expands one hop around any node that appears on two
// or more distinct pairwise paths ("intersections"), per §4.3's multi-note
// context assembly.
func (e *Engine) MultiShortestPaths(slugs []string, maxDepth int) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ordered := cloneList(slugs)
	sort.Strings(ordered)

	backbone := make(map[string]struct{})
	pathCount := make(map[string]int)

	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			path, ok := e.shortestPathLocked(ordered[i], ordered[j], maxDepth)
			if !ok {
				continue
			}
			for _, s := range path {
				backbone[s] = struct{}{}
				pathCount[s]++
			}
		}
	}

	for s, count := range pathCount {
		if count < 2 {
			continue
		}
		for _, nb := range e.neighborsOf(s) {
			backbone[nb] = struct{}{}
		}
	}

	out := make([]string, 0, len(backbone))
	for s := range backbone {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// KeywordMatch ranks every indexed note by (tagOverlap, titleOverlap,
// bodyOverlap) against the given query tokens, descending, with slug
// ascending as the final tie-break. Results with zero total overlap are
// excluded. limit <= 0 means unbounded.
func (e *Engine) KeywordMatch(queryTokens []string, limit int) []ScoredSlug {
	e.mu.RLock()
	defer e.mu.RUnlock()

	queryTags := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		queryTags[t] = struct{}{}
	}

	var results []ScoredSlug
	for s := range e.noteSlugs {
		tagOverlap := overlapCount(queryTags, e.tagsOf[s])
		titleOverlap := titleOverlapCount(queryTokens, e.titles[s])
		bodyOverlap := bodyOverlapCount(queryTags, e.bodyTokensOf[s])
		if tagOverlap == 0 && titleOverlap == 0 && bodyOverlap == 0 {
			continue
		}
		results = append(results, ScoredSlug{
			Slug:         s,
			TagOverlap:   tagOverlap,
			TitleOverlap: titleOverlap,
			BodyOverlap:  bodyOverlap,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.TagOverlap != b.TagOverlap {
			return a.TagOverlap > b.TagOverlap
		}
		if a.TitleOverlap != b.TitleOverlap {
			return a.TitleOverlap > b.TitleOverlap
		}
		if a.BodyOverlap != b.BodyOverlap {
			return a.BodyOverlap > b.BodyOverlap
		}
		return a.Slug < b.Slug
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func overlapCount(query map[string]struct{}, tags []string) int {
	n := 0
	for _, t := range tags {
		if _, ok := query[t]; ok {
			n++
		}
	}
	return n
}

func titleOverlapCount(queryTokens []string, title string) int {
	if title == "" {
		return 0
	}
	lowered := make(map[string]struct{}, len(queryTokens))
	for _, t := range queryTokens {
		lowered[t] = struct{}{}
	}
	n := 0
	for _, word := range splitWords(title) {
		if _, ok := lowered[word]; ok {
			n++
		}
	}
	return n
}

func bodyOverlapCount(query map[string]struct{}, body map[string]struct{}) int {
	n := 0
	for t := range query {
		if _, ok := body[t]; ok {
			n++
		}
	}
	return n
}

func splitWords(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			flush()
			continue
		}
		cur = append(cur, toLowerRune(r))
	}
	flush()
	return out
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
