// Command sqlgrammar parses a token-dump file against a small built-in
// demo grammar and prints the resulting tree. Dialect grammar authoring
// is treated as data loaded at startup, not something this library
// builds; this command ships just enough of a demo registry to exercise
// the engine end to end from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitrdm/sqlgrammar/pkg/grammar"
	"github.com/gitrdm/sqlgrammar/pkg/parseengine"
	"github.com/gitrdm/sqlgrammar/pkg/token"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var tokensPath, entry, configPath string
	var verbose bool

	root := &cobra.Command{
		Use:   "sqlgrammar",
		Short: "Run the grammar interpreter over a token-dump file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(verbose)

			toks, pairs, err := loadTokenDump(tokensPath)
			if err != nil {
				return fmt.Errorf("sqlgrammar: %w", err)
			}

			cfg := grammar.DefaultConfig()
			if configPath != "" {
				cfg, err = grammar.LoadConfig(configPath)
				if err != nil {
					return fmt.Errorf("sqlgrammar: %w", err)
				}
			}

			reg := grammar.NewRegistry("demo")
			registerDemoGrammar(reg)

			c := parseengine.NewContext(reg, cfg)
			view := token.NewView(toks, pairs)

			logger.Info("parsing", "entry", entry, "tokens", view.Len())
			node, err := c.ParseSegment(context.Background(), view, entry)
			if err != nil {
				logger.Error("parse failed", "error", err)
				return fmt.Errorf("sqlgrammar: %w", err)
			}

			out, err := json.MarshalIndent(grammar.Simplified(node), "", "  ")
			if err != nil {
				return fmt.Errorf("sqlgrammar: rendering tree: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}

	root.Flags().StringVar(&tokensPath, "tokens", "", "path to a token-dump JSON file (required)")
	root.Flags().StringVar(&entry, "entry", "Statement", "registered segment name to parse from")
	root.Flags().StringVar(&configPath, "config", "", "path to a YAML engine config file")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.MarkFlagRequired("tokens")

	return root
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// dumpToken is the on-disk shape of one entry in a token-dump file. Field
// names are deliberately distinct from the token.Token method names so
// the same type can hold the decoded JSON and implement the interface.
type dumpToken struct {
	RawText    string   `json:"raw"`
	TypeTag    string   `json:"type"`
	IsCodeFlag bool     `json:"is_code"`
	Classes    []string `json:"class_types"`
	Line       int      `json:"line"`
	Col        int      `json:"col"`

	idx int
}

func (t dumpToken) Raw() string          { return t.RawText }
func (t dumpToken) Type() string         { return t.TypeTag }
func (t dumpToken) IsCode() bool         { return t.IsCodeFlag }
func (t dumpToken) ClassTypes() []string { return t.Classes }
func (t dumpToken) Pos() token.Position  { return token.Position{Index: t.idx, Line: t.Line, Col: t.Col} }

// dumpFile is the on-disk shape of a whole token-dump file: the flat
// token sequence plus the bracket-pair table a lexer would hand the
// engine alongside it.
type dumpFile struct {
	Tokens   []dumpToken         `json:"tokens"`
	Brackets []token.BracketPair `json:"brackets"`
}

func loadTokenDump(path string) ([]token.Token, []token.BracketPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading token dump %s: %w", path, err)
	}
	var df dumpFile
	if err := json.Unmarshal(data, &df); err != nil {
		return nil, nil, fmt.Errorf("parsing token dump %s: %w", path, err)
	}
	toks := make([]token.Token, len(df.Tokens))
	for i, dt := range df.Tokens {
		dt.idx = i
		toks[i] = dt
	}
	return toks, df.Brackets, nil
}

// registerDemoGrammar wires up a minimal "SELECT columns FROM table"
// grammar so the command has something to parse out of the box.
// Anything resembling real dialect coverage belongs in data loaded at
// startup, not in this binary.
func registerDemoGrammar(reg *grammar.Registry) {
	selectKw := grammar.NewStringParser("SELECT", "keyword")
	fromKw := grammar.NewStringParser("FROM", "keyword")
	reg.Register("ColumnReference", grammar.NewTypedParser("identifier", "column_reference"), "column_reference")
	reg.Register("TableReference", grammar.NewTypedParser("identifier", "table_reference"), "table_reference")

	columnList := grammar.NewDelimited(
		[]grammar.Grammar{grammar.NewRef("ColumnReference", false, true, nil, false)},
		grammar.NewStringParser(",", "comma"),
		false, true, nil, false, true, 0, grammar.Greedy,
	)
	reg.Register("ColumnList", columnList, "")

	statement := grammar.NewSequence([]grammar.Grammar{
		selectKw,
		grammar.NewRef("ColumnList", false, true, nil, false),
		fromKw,
		grammar.NewRef("TableReference", false, true, nil, false),
	}, false, nil, false, true, grammar.Greedy)

	reg.Register("Statement", statement, "select_statement")
}
