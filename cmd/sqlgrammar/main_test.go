package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/sqlgrammar/pkg/grammar"
	"github.com/gitrdm/sqlgrammar/pkg/parseengine"
	"github.com/gitrdm/sqlgrammar/pkg/token"
)

func writeDump(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadTokenDumpDecodesTokensInOrder(t *testing.T) {
	path := writeDump(t, `{
		"tokens": [
			{"raw": "SELECT", "type": "keyword", "is_code": true, "class_types": ["keyword"], "line": 1, "col": 1},
			{"raw": " ", "type": "whitespace", "is_code": false, "class_types": ["whitespace"], "line": 1, "col": 7}
		],
		"brackets": [{"opener": "start_bracket", "closer": "end_bracket"}]
	}`)

	toks, pairs, err := loadTokenDump(path)
	require.NoError(t, err)
	require.Len(t, toks, 2)
	require.Equal(t, "SELECT", toks[0].Raw())
	require.Equal(t, "whitespace", toks[1].Type())
	require.Equal(t, 0, toks[0].Pos().Index)
	require.Equal(t, 1, toks[1].Pos().Index)
	require.Len(t, pairs, 1)
	require.Equal(t, "start_bracket", pairs[0].Opener)
}

func TestLoadTokenDumpMissingFileErrors(t *testing.T) {
	_, _, err := loadTokenDump(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestRegisterDemoGrammarParsesSimpleSelect(t *testing.T) {
	toks := []token.Token{
		dumpToken{RawText: "SELECT", TypeTag: "keyword", IsCodeFlag: true, idx: 0},
		dumpToken{RawText: " ", TypeTag: "whitespace", IsCodeFlag: false, idx: 1},
		dumpToken{RawText: "a", TypeTag: "identifier", IsCodeFlag: true, idx: 2},
		dumpToken{RawText: " ", TypeTag: "whitespace", IsCodeFlag: false, idx: 3},
		dumpToken{RawText: "FROM", TypeTag: "keyword", IsCodeFlag: true, idx: 4},
		dumpToken{RawText: " ", TypeTag: "whitespace", IsCodeFlag: false, idx: 5},
		dumpToken{RawText: "t", TypeTag: "identifier", IsCodeFlag: true, idx: 6},
	}

	reg := grammar.NewRegistry("demo")
	registerDemoGrammar(reg)
	c := parseengine.NewContext(reg, grammar.DefaultConfig())
	view := token.NewView(toks, nil)

	node, err := c.ParseSegment(context.Background(), view, "Statement")
	require.NoError(t, err)
	require.NotNil(t, node)
}
