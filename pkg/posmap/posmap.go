// Package posmap maps offsets between a rendered (templated) source string
// and the original source string it was rendered from, via the slice
// tables a templater produces alongside the render. The parse engine never
// sees source text directly — it only needs this mapper to translate a
// matched token span back to where the author actually wrote it, for
// diagnostics that point at the right line in the original file.
package posmap

import (
	"fmt"
)

// Slice is a half-open [Start, Stop) character range, in either the
// source or the templated string depending on context.
type Slice struct {
	Start int
	Stop  int
}

func (s Slice) Len() int { return s.Stop - s.Start }

// RawSlice is one contiguous run of the source string, tagged with how
// the templater treated it (e.g. "literal", "templated", "comment",
// "block_start", "block_end").
type RawSlice struct {
	Raw       string
	SliceType string
	SourceIdx int
}

// TemplatedSlice links one span of the templated string back to the span
// of the source string that produced it.
type TemplatedSlice struct {
	SliceType string
	Source    Slice
	Templated Slice
}

// File is the construction-validated mapping between one source string
// and its templated rendering.
type File struct {
	SourceStr    string
	TemplatedStr string
	Sliced       []TemplatedSlice
	RawSliced    []RawSlice

	sourceNewlines    []int
	templatedNewlines []int
}

// NewFile builds a File, verifying the two coverage invariants a
// templater's slice tables must satisfy: the raw slices exactly tile the
// source string end to end, and the templated slices are contiguous
// starting at 0 and ending at the templated string's length.
func NewFile(sourceStr, templatedStr string, sliced []TemplatedSlice, rawSliced []RawSlice) (*File, error) {
	pos := 0
	for _, rs := range rawSliced {
		if rs.SourceIdx != pos {
			return nil, fmt.Errorf("posmap: raw slice at source_idx %d does not follow at running offset %d", rs.SourceIdx, pos)
		}
		pos += len(rs.Raw)
	}
	if pos != len(sourceStr) {
		return nil, fmt.Errorf("posmap: raw slices cover %d bytes, source is %d bytes", pos, len(sourceStr))
	}

	for i, ts := range sliced {
		if i == 0 {
			if ts.Templated.Start != 0 {
				return nil, fmt.Errorf("posmap: first templated slice does not start at 0 (starts at %d)", ts.Templated.Start)
			}
			continue
		}
		prev := sliced[i-1]
		if ts.Templated.Start != prev.Templated.Stop {
			return nil, fmt.Errorf("posmap: templated slice %d (start %d) is not contiguous with slice %d (stop %d)", i, ts.Templated.Start, i-1, prev.Templated.Stop)
		}
	}
	if len(sliced) > 0 {
		last := sliced[len(sliced)-1]
		if last.Templated.Stop != len(templatedStr) {
			return nil, fmt.Errorf("posmap: final templated slice stops at %d, templated string is %d long", last.Templated.Stop, len(templatedStr))
		}
	}

	return &File{
		SourceStr:         sourceStr,
		TemplatedStr:      templatedStr,
		Sliced:            sliced,
		RawSliced:         rawSliced,
		sourceNewlines:    newlineIndices(sourceStr),
		templatedNewlines: newlineIndices(templatedStr),
	}, nil
}

// NewLiteralFile builds a File for source text with no templating at all
// (source and templated strings are identical): a single literal slice
// spanning the whole thing, the fallback mapping any unrendered file gets.
func NewLiteralFile(sourceStr string) *File {
	f, _ := NewFile(sourceStr, sourceStr,
		[]TemplatedSlice{{SliceType: "literal", Source: Slice{0, len(sourceStr)}, Templated: Slice{0, len(sourceStr)}}},
		[]RawSlice{{Raw: sourceStr, SliceType: "literal", SourceIdx: 0}},
	)
	return f
}

func newlineIndices(s string) []int {
	var out []int
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, i)
		}
	}
	return out
}

// findSliceIndicesOfTemplatedPos returns the [first, last) index range
// into f.Sliced of every slice touching templatedPos, scanning forward
// from startIdx. inclusive controls whether a slice that starts exactly
// at templatedPos still counts as "found" (ending the scan) or is
// included as one more touching slice.
func (f *File) findSliceIndicesOfTemplatedPos(templatedPos, startIdx int, inclusive bool) (int, int, error) {
	firstIdx := -1
	lastIdx := startIdx
	found := false
	for idx := startIdx; idx < len(f.Sliced); idx++ {
		lastIdx = idx
		el := f.Sliced[idx]
		if el.Templated.Stop >= templatedPos {
			if firstIdx < 0 {
				firstIdx = idx
			}
			if el.Templated.Start > templatedPos || (!inclusive && el.Templated.Start >= templatedPos) {
				found = true
				break
			}
		}
	}
	if !found {
		lastIdx++
	}
	if firstIdx < 0 {
		return 0, 0, fmt.Errorf("posmap: templated position %d not found in slice table", templatedPos)
	}
	return firstIdx, lastIdx, nil
}

// insertionPoint reports the source offset a zero-length templated
// position maps to when it falls exactly on the join between two
// adjacent slices, by scanning for a slice edge aligned with
// templatedStart.
func insertionPoint(subsliced []TemplatedSlice, templatedStart int) (int, bool) {
	point := -1
	for _, el := range subsliced {
		if el.Templated.Start == templatedStart {
			if point < 0 || el.Source.Start < point {
				point = el.Source.Start
			}
		}
		if el.Templated.Stop == templatedStart {
			if point < 0 || el.Source.Stop < point {
				point = el.Source.Stop
			}
		}
	}
	if point < 0 {
		return 0, false
	}
	return point, true
}

// TemplatedSliceToSourceSlice maps a span of the templated string back to
// the corresponding span of the source string. Literal spans map exactly
// (offset-preserving); templated spans (expanded macros, loop bodies) map
// to the widest plausible source span, since a single templated position
// can correspond to several source positions when a loop ran more than
// once.
func (f *File) TemplatedSliceToSourceSlice(templated Slice) (Slice, error) {
	if len(f.Sliced) == 0 {
		return templated, nil
	}

	startFirst, startLast, err := f.findSliceIndicesOfTemplatedPos(templated.Start, 0, true)
	if err != nil {
		return Slice{}, err
	}
	startSub := f.Sliced[startFirst:startLast]
	point, onJoin := insertionPoint(startSub, templated.Start)

	if templated.Start == templated.Stop {
		if onJoin {
			return Slice{point, point}, nil
		}
		if len(startSub) > 0 && startSub[0].SliceType == "literal" {
			offset := templated.Start - startSub[0].Templated.Start
			at := startSub[0].Source.Start + offset
			return Slice{at, at}, nil
		}
		return Slice{}, fmt.Errorf("posmap: zero-length slice at %d falls inside a templated section with no literal anchor", templated.Start)
	}

	stopFirst, stopLast, err := f.findSliceIndicesOfTemplatedPos(templated.Stop, 0, false)
	if err != nil {
		return Slice{}, err
	}

	if onJoin {
		for i := startFirst; i < len(f.Sliced); i++ {
			if f.Sliced[i].Source.Start == point {
				startFirst = i
				break
			}
			startFirst = i + 1
		}
	}

	if startFirst >= startLast {
		if startFirst < len(f.Sliced) {
			return f.Sliced[minInt(startFirst+1, len(f.Sliced)-1)].Source, nil
		}
		return f.Sliced[len(f.Sliced)-1].Source, nil
	}

	startSlices := f.Sliced[startFirst:startLast]
	var stopSlices []TemplatedSlice
	if stopFirst == stopLast {
		stopSlices = []TemplatedSlice{f.Sliced[stopFirst]}
	} else {
		stopSlices = f.Sliced[stopFirst:stopLast]
	}

	var sourceStart int
	if onJoin {
		sourceStart = point
	} else if startSlices[0].SliceType == "literal" {
		offset := templated.Start - startSlices[0].Templated.Start
		sourceStart = startSlices[0].Source.Start + offset
	} else {
		sourceStart = startSlices[0].Source.Start
	}

	lastStop := stopSlices[len(stopSlices)-1]
	var sourceStop int
	if lastStop.SliceType == "literal" {
		offset := lastStop.Templated.Stop - templated.Stop
		sourceStop = lastStop.Source.Stop - offset
	} else {
		sourceStop = lastStop.Source.Stop
	}

	if sourceStart > sourceStop {
		lo := minInt(startFirst, stopFirst)
		hi := maxInt(startLast, stopLast)
		sub := f.Sliced[lo:hi]
		sourceStart = sub[0].Source.Start
		sourceStop = sub[0].Source.Stop
		for _, el := range sub {
			if el.Source.Start < sourceStart {
				sourceStart = el.Source.Start
			}
			if el.Source.Stop > sourceStop {
				sourceStop = el.Source.Stop
			}
		}
	}

	return Slice{sourceStart, sourceStop}, nil
}

// RawSlicesSpanningSourceSlice returns every raw slice that overlaps
// sourceSlice, in source order.
func (f *File) RawSlicesSpanningSourceSlice(sourceSlice Slice) []RawSlice {
	if len(f.RawSliced) == 0 {
		return nil
	}
	last := f.RawSliced[len(f.RawSliced)-1]
	if sourceSlice.Start >= last.SourceIdx+len(last.Raw) {
		return nil
	}
	idx := 0
	for idx+1 < len(f.RawSliced) && f.RawSliced[idx+1].SourceIdx <= sourceSlice.Start {
		idx++
	}
	span := 1
	for idx+span < len(f.RawSliced) && f.RawSliced[idx+span].SourceIdx < sourceSlice.Stop {
		span++
	}
	return f.RawSliced[idx : idx+span]
}

// IsSourceSliceLiteral reports whether sourceSlice lies entirely within
// literal (untemplated) source text. A zero-length slice is always
// literal: it can never straddle a template expansion.
func (f *File) IsSourceSliceLiteral(sourceSlice Slice) bool {
	if len(f.RawSliced) == 0 {
		return true
	}
	if sourceSlice.Start == sourceSlice.Stop {
		return true
	}
	literal := true
	for _, rs := range f.RawSliced {
		switch {
		case rs.SourceIdx <= sourceSlice.Start:
			literal = rs.SliceType == "literal"
		case rs.SourceIdx >= sourceSlice.Stop:
			return literal
		default:
			if rs.SliceType != "literal" {
				literal = false
			}
		}
	}
	return literal
}

// GetLinePosOfCharPos returns the 1-indexed (line, column) of charPos in
// either the source or templated string.
func (f *File) GetLinePosOfCharPos(charPos int, source bool) (line, col int) {
	newlines := f.templatedNewlines
	if source {
		newlines = f.sourceNewlines
	}
	idx := lowerBound(newlines, charPos)
	if idx > 0 {
		return idx + 1, charPos - newlines[idx-1]
	}
	return 1, charPos + 1
}

// SourcePositionDictFromSlice renders sourceSlice's line/column/file-offset
// bounds as a map, matching the shape external tooling (IDE protocol
// interop, lint diagnostics) expects for pointing at a source range.
func (f *File) SourcePositionDictFromSlice(sourceSlice Slice) map[string]int {
	startLine, startCol := f.GetLinePosOfCharPos(sourceSlice.Start, true)
	stopLine, stopCol := f.GetLinePosOfCharPos(sourceSlice.Stop, true)
	return map[string]int{
		"start_line_no":  startLine,
		"start_line_pos": startCol,
		"start_file_pos": sourceSlice.Start,
		"end_line_no":    stopLine,
		"end_line_pos":   stopCol,
		"end_file_pos":   sourceSlice.Stop,
	}
}

func lowerBound(sorted []int, v int) int {
	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		if sorted[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (s Slice) String() string {
	return fmt.Sprintf("%d:%d", s.Start, s.Stop)
}
