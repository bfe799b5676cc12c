package grammar

import "strings"

// DescribeExpected renders a human-readable description of what g
// expected to match, for Unparsable.Expected. Walks g's declared elements
// rather than returning a single static string for every shape of
// failure.
func DescribeExpected(g Grammar) string {
	switch v := g.(type) {
	case *TokenGrammar:
		return v.TypeTag
	case *StringParserGrammar:
		return v.Template
	case *MultiStringParserGrammar:
		return "one of " + strings.Join(v.Templates, ", ")
	case *TypedParserGrammar:
		return v.MatchType
	case *RegexParserGrammar:
		return "text matching /" + v.Pattern + "/"
	case *RefGrammar:
		return v.Name
	case *SequenceGrammar:
		return describeElements(v.Elements)
	case *OneOfGrammar:
		return "one of " + describeElements(v.Alternatives)
	case *AnyNumberOfGrammar:
		return "any of " + describeElements(v.Elements)
	case *DelimitedGrammar:
		return "delimited " + describeElements(v.Elements)
	case *BracketedGrammar:
		return v.Pair.Open + " ... " + v.Pair.Close
	case *AnythingGrammar:
		return "anything"
	default:
		return g.String()
	}
}

func describeElements(elements []Grammar) string {
	parts := make([]string, 0, len(elements))
	for _, e := range elements {
		parts = append(parts, DescribeExpected(e))
	}
	return strings.Join(parts, ", ")
}
