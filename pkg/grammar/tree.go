package grammar

import "fmt"

// BuildSequence assembles a Sequence node from matched children,
// collapsing an empty children list to Empty per the Tree Builder's
// stated rule.
func BuildSequence(children []Node) Node {
	if len(children) == 0 {
		return TheEmpty
	}
	return &SequenceNode{Children: children}
}

// BuildDelimitedList assembles a DelimitedList node. It differs from
// Sequence only in its Kind(); Simplified renders both the same way.
func BuildDelimitedList(children []Node) Node {
	if len(children) == 0 {
		return TheEmpty
	}
	return &DelimitedListNode{Children: children}
}

// BuildBracketed assembles a Bracketed node, deriving BracketPersists
// from the opener's raw text.
func BuildBracketed(openerRaw string, children []Node) Node {
	return &BracketedNode{Children: children, BracketPersists: BracketPersists(openerRaw)}
}

// BuildUnparsable assembles an Unparsable node carrying both the
// human-readable expectation and the raw tokens it consumed.
func BuildUnparsable(expected string, children []Node) Node {
	return &UnparsableNode{Expected: expected, Children: children}
}

// BuildRef wraps child in a Ref node annotated with the dialect-declared
// segment type, propagating an already-Empty child through unchanged.
func BuildRef(name, segmentType string, child Node) Node {
	if IsEmpty(child) {
		return TheEmpty
	}
	return &RefNode{Name: name, SegmentType: segmentType, Child: child}
}

// Flatten inlines a child Sequence or DelimitedList's children directly
// into a parent's child list, avoiding double-nesting, for callers that
// want a flat child list without an intermediate Sequence wrapper. None of
// the engine's handlers or Simplified call it.
func Flatten(n Node) []Node {
	switch v := n.(type) {
	case *SequenceNode:
		return v.Children
	case *DelimitedListNode:
		return v.Children
	case *EmptyNode, nil:
		return nil
	default:
		return []Node{n}
	}
}

// Dedupe removes duplicate transparent-token leaves (whitespace/newline)
// from tree, keeping the first occurrence in left-to-right order. A
// well-formed tree never needs this, but speculative branches during
// matching can tentatively attribute the same gap token to more than one
// candidate before the Parse Cache/rollback logic prunes the losers; this
// pass is the final backstop the Tree Builder runs once on the completed
// root so the "transparent-token uniqueness" property always holds on
// output regardless of how it got built.
func Dedupe(root Node) Node {
	seen := make(map[int]bool)
	// Tree depth here tracks the output AST, not the match search space,
	// so plain recursion is fine (unlike the engine's frame stack).
	var walk func(n Node) (Node, bool)
	walk = func(n Node) (Node, bool) {
		kids := children(n)
		if len(kids) == 0 {
			if lf, ok := n.(leafNode); ok {
				idx := lf.TokenIdx()
				if idx < 0 {
					return n, false
				}
				if seen[idx] {
					return nil, true
				}
				seen[idx] = true
				return n, false
			}
			return n, false
		}
		changed := false
		newKids := make([]Node, 0, len(kids))
		for _, k := range kids {
			nk, drop := walk(k)
			if drop {
				changed = true
				continue
			}
			if nk != k {
				changed = true
			}
			newKids = append(newKids, nk)
		}
		if !changed {
			return n, false
		}
		return withChildren(n, newKids), false
	}
	out, _ := walk(root)
	if out == nil {
		return TheEmpty
	}
	return out
}

func withChildren(n Node, kids []Node) Node {
	switch v := n.(type) {
	case *SequenceNode:
		return &SequenceNode{Children: kids}
	case *DelimitedListNode:
		return &DelimitedListNode{Children: kids}
	case *BracketedNode:
		return &BracketedNode{Children: kids, BracketPersists: v.BracketPersists}
	case *UnparsableNode:
		return &UnparsableNode{Expected: v.Expected, Children: kids}
	case *RefNode:
		if len(kids) == 0 {
			return TheEmpty
		}
		return &RefNode{Name: v.Name, SegmentType: v.SegmentType, Child: kids[0]}
	default:
		return n
	}
}

// Simplified renders n as a structurally simplified mapping keyed by
// segment type, suitable for JSON marshaling and external consumption
// (IDE protocol interop, test fixtures) — the same shape the original
// implementation's dict export produces.
func Simplified(n Node) any {
	switch v := n.(type) {
	case nil, *EmptyNode:
		return nil
	case *LeafToken:
		return map[string]any{v.Type: v.RawText}
	case *LeafWhitespace:
		return map[string]any{"whitespace": v.RawText}
	case *LeafNewline:
		return map[string]any{"newline": v.RawText}
	case *LeafEndOfFile:
		return map[string]any{"end_of_file": v.RawText}
	case *LeafMeta:
		return map[string]any{"meta": v.Label}
	case *SequenceNode:
		return simplifiedList(v.Children)
	case *DelimitedListNode:
		return simplifiedList(v.Children)
	case *BracketedNode:
		if !v.BracketPersists {
			return simplifiedList(v.Children)
		}
		return map[string]any{"bracketed": simplifiedList(v.Children)}
	case *UnparsableNode:
		return map[string]any{
			"unparsable": map[string]any{
				"expected": v.Expected,
				"children": simplifiedList(v.Children),
			},
		}
	case *RefNode:
		key := v.SegmentType
		if key == "" {
			key = v.Name
		}
		return map[string]any{key: Simplified(v.Child)}
	default:
		return fmt.Sprintf("%v", n)
	}
}

func simplifiedList(children []Node) []any {
	out := make([]any, 0, len(children))
	for _, c := range children {
		out = append(out, Simplified(c))
	}
	return out
}
