package posmap

import "testing"

// simpleFile mirrors a small Jinja-style render: "{{ blah }}" expands to
// "foo", surrounded by literal text on both sides.
func simpleFile(t *testing.T) *File {
	t.Helper()
	source := "{{blah}}bar"
	templated := "foobar"
	f, err := NewFile(source, templated,
		[]TemplatedSlice{
			{SliceType: "templated", Source: Slice{0, 8}, Templated: Slice{0, 3}},
			{SliceType: "literal", Source: Slice{8, 11}, Templated: Slice{3, 6}},
		},
		[]RawSlice{
			{Raw: "{{blah}}", SliceType: "templated", SourceIdx: 0},
			{Raw: "bar", SliceType: "literal", SourceIdx: 8},
		},
	)
	if err != nil {
		t.Fatalf("unexpected construction error: %v", err)
	}
	return f
}

func TestNewFileRejectsDiscontinuousRawSlices(t *testing.T) {
	_, err := NewFile("abc", "abc",
		[]TemplatedSlice{{SliceType: "literal", Source: Slice{0, 3}, Templated: Slice{0, 3}}},
		[]RawSlice{{Raw: "ab", SliceType: "literal", SourceIdx: 0}, {Raw: "c", SliceType: "literal", SourceIdx: 5}},
	)
	if err == nil {
		t.Fatal("expected an error when raw slices leave a gap")
	}
}

func TestNewFileRejectsTemplatedSlicesNotStartingAtZero(t *testing.T) {
	_, err := NewFile("abc", "abc",
		[]TemplatedSlice{{SliceType: "literal", Source: Slice{0, 3}, Templated: Slice{1, 3}}},
		[]RawSlice{{Raw: "abc", SliceType: "literal", SourceIdx: 0}},
	)
	if err == nil {
		t.Fatal("expected an error when the first templated slice does not start at 0")
	}
}

func TestNewFileRejectsFinalTemplatedSliceShortOfEnd(t *testing.T) {
	_, err := NewFile("abc", "abcd",
		[]TemplatedSlice{{SliceType: "literal", Source: Slice{0, 3}, Templated: Slice{0, 3}}},
		[]RawSlice{{Raw: "abc", SliceType: "literal", SourceIdx: 0}},
	)
	if err == nil {
		t.Fatal("expected an error when templated slices do not reach the end of the templated string")
	}
}

func TestNewLiteralFileRoundTrips(t *testing.T) {
	f := NewLiteralFile("select 1")
	got, err := f.TemplatedSliceToSourceSlice(Slice{0, 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Slice{0, 6}) {
		t.Errorf("expected an untemplated file to map offsets 1:1, got %v", got)
	}
}

func TestTemplatedSliceToSourceSliceWithinLiteralTail(t *testing.T) {
	f := simpleFile(t)
	got, err := f.TemplatedSliceToSourceSlice(Slice{3, 6})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Slice{8, 11}) {
		t.Errorf("expected the literal tail to map exactly, got %v", got)
	}
}

func TestTemplatedSliceToSourceSliceSpanningTemplateExpansion(t *testing.T) {
	f := simpleFile(t)
	got, err := f.TemplatedSliceToSourceSlice(Slice{0, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Slice{0, 8}) {
		t.Errorf("expected the whole templated span to map to the whole {{blah}} source span, got %v", got)
	}
}

func TestTemplatedSliceToSourceSliceZeroLengthOnJoin(t *testing.T) {
	f := simpleFile(t)
	got, err := f.TemplatedSliceToSourceSlice(Slice{3, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 0 {
		t.Errorf("expected a zero-length slice at a join to stay zero-length, got %v", got)
	}
	if got.Start != 8 {
		t.Errorf("expected the join to land at source offset 8, got %d", got.Start)
	}
}

func TestTemplatedSliceToSourceSliceZeroLengthWithinLiteral(t *testing.T) {
	f := simpleFile(t)
	got, err := f.TemplatedSliceToSourceSlice(Slice{4, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Slice{9, 9}
	if got != want {
		t.Errorf("expected a mid-literal zero-length position to carry the same offset into source, got %v want %v", got, want)
	}
}

func TestRawSlicesSpanningSourceSlice(t *testing.T) {
	f := simpleFile(t)
	got := f.RawSlicesSpanningSourceSlice(Slice{5, 10})
	if len(got) != 2 {
		t.Fatalf("expected the span to touch both raw slices, got %d", len(got))
	}
	if got[0].SliceType != "templated" || got[1].SliceType != "literal" {
		t.Errorf("unexpected raw slices returned: %+v", got)
	}
}

func TestRawSlicesSpanningSourceSliceBeyondEndIsEmpty(t *testing.T) {
	f := simpleFile(t)
	got := f.RawSlicesSpanningSourceSlice(Slice{20, 25})
	if got != nil {
		t.Errorf("expected no raw slices past the end of the source, got %+v", got)
	}
}

func TestIsSourceSliceLiteral(t *testing.T) {
	f := simpleFile(t)
	if f.IsSourceSliceLiteral(Slice{0, 8}) {
		t.Error("the {{blah}} span is templated, not literal")
	}
	if !f.IsSourceSliceLiteral(Slice{8, 11}) {
		t.Error("the bar span is purely literal")
	}
	if !f.IsSourceSliceLiteral(Slice{5, 5}) {
		t.Error("a zero-length slice is always considered literal")
	}
}

func TestGetLinePosOfCharPosAcrossNewlines(t *testing.T) {
	f, err := NewFile("a\nbc\nd", "a\nbc\nd",
		[]TemplatedSlice{{SliceType: "literal", Source: Slice{0, 6}, Templated: Slice{0, 6}}},
		[]RawSlice{{Raw: "a\nbc\nd", SliceType: "literal", SourceIdx: 0}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line, col := f.GetLinePosOfCharPos(0, true)
	if line != 1 || col != 1 {
		t.Errorf("expected (1,1) at offset 0, got (%d,%d)", line, col)
	}
	line, col = f.GetLinePosOfCharPos(3, true)
	if line != 2 || col != 2 {
		t.Errorf("expected (2,2) at offset 3 ('c'), got (%d,%d)", line, col)
	}
	line, col = f.GetLinePosOfCharPos(5, true)
	if line != 3 || col != 1 {
		t.Errorf("expected (3,1) at offset 5 ('d'), got (%d,%d)", line, col)
	}
}

func TestSourcePositionDictFromSlice(t *testing.T) {
	f, err := NewFile("a\nbc", "a\nbc",
		[]TemplatedSlice{{SliceType: "literal", Source: Slice{0, 4}, Templated: Slice{0, 4}}},
		[]RawSlice{{Raw: "a\nbc", SliceType: "literal", SourceIdx: 0}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := f.SourcePositionDictFromSlice(Slice{2, 4})
	if got["start_line_no"] != 2 || got["start_line_pos"] != 1 {
		t.Errorf("unexpected start position: %+v", got)
	}
	if got["end_file_pos"] != 4 {
		t.Errorf("unexpected end_file_pos: %+v", got)
	}
}
