package parseengine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gitrdm/sqlgrammar/pkg/grammar"
)

// cacheEntry is the memoized outcome of parsing one grammar at one
// position under one max_idx/terminator-set combination.
type cacheEntry struct {
	node                 grammar.Node
	endPos               int
	transparentPositions []int
}

// Cache memoizes compound-grammar match results. Terminals are cheap
// enough to re-match every time and are never stored here (see
// cacheable).
type Cache struct {
	entries map[string]cacheEntry
}

func newCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// cacheable reports whether g's variant is memoized at all — only
// compound grammars are; terminals always re-match.
func cacheable(g grammar.Grammar) bool {
	switch g.Kind() {
	case grammar.KindRef, grammar.KindSequence, grammar.KindOneOf,
		grammar.KindAnyNumberOf, grammar.KindAnySetOf,
		grammar.KindDelimited, grammar.KindBracketed:
		return true
	default:
		return false
	}
}

// terminatorSetHash renders a stable fingerprint of a terminator list's
// identities, order-independent (the set matters, not the order they
// were declared in).
func terminatorSetHash(terms []grammar.Grammar) string {
	if len(terms) == 0 {
		return ""
	}
	ids := make([]int64, len(terms))
	for i, t := range terms {
		ids[i] = t.ID()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

func cacheKey(g grammar.Grammar, mode grammar.ParseMode, pos, maxIdx int, terms []grammar.Grammar) string {
	return fmt.Sprintf("%s|%d|%d|%s", grammar.CacheID(g, mode), pos, maxIdx, terminatorSetHash(terms))
}

// get returns a cached entry, if any, for this grammar/position/window.
func (c *Cache) get(g grammar.Grammar, mode grammar.ParseMode, pos, maxIdx int, terms []grammar.Grammar) (cacheEntry, bool) {
	if !cacheable(g) {
		return cacheEntry{}, false
	}
	e, ok := c.entries[cacheKey(g, mode, pos, maxIdx, terms)]
	return e, ok
}

// put stores an outcome. Empty results are only cached when the active
// terminator set is empty: a different enclosing terminator context could
// otherwise turn an Empty result non-empty, and a terminator-scoped miss
// must not be masked by a terminator-less hit (or vice versa) beyond what
// the key already distinguishes.
func (c *Cache) put(g grammar.Grammar, mode grammar.ParseMode, pos, maxIdx int, terms []grammar.Grammar, entry cacheEntry) {
	if !cacheable(g) {
		return
	}
	if grammar.IsEmpty(entry.node) && len(terms) != 0 {
		return
	}
	c.entries[cacheKey(g, mode, pos, maxIdx, terms)] = entry
}
