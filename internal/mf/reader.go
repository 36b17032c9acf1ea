package mf

import (
	"strconv"
	"strings"
)

// FileReader walks one Source as a sequence of data sets: a record cursor
// with single-step rewind, plus field tokenizing and type conversion. All
// further I/O happened at open time; every operation here is an in-memory
// step, so error locations are exact.
type FileReader struct {
	src     *Source
	ctx     *Context
	dataSet string // diagnostic label of the data set being read
}

// NewFileReader wraps src for decoding under ctx. A nil ctx gets a default
// single-precision context.
func NewFileReader(src *Source, ctx *Context) *FileReader {
	if ctx == nil {
		ctx = NewContext(nil)
	}
	return &FileReader{src: src, ctx: ctx}
}

// Source returns the underlying source.
func (fr *FileReader) Source() *Source { return fr.src }

// Lineno returns the 1-based number of the last-returned line.
func (fr *FileReader) Lineno() int { return fr.src.Lineno() }

// DataSet returns the current diagnostic data-set label.
func (fr *FileReader) DataSet() string { return fr.dataSet }

// AtEnd reports whether every record has been consumed.
func (fr *FileReader) AtEnd() bool { return fr.src.AtEnd() }

// Remaining returns the count of unread records.
func (fr *FileReader) Remaining() int { return fr.src.Remaining() }

// CurLine returns the last-returned record without advancing; empty
// before any read.
func (fr *FileReader) CurLine() string { return fr.src.current() }

// Rewind steps the cursor back by exactly one record, un-reading a
// lookahead.
func (fr *FileReader) Rewind() { fr.src.rewind() }

// NextLine returns the next record. A non-empty ds updates the data-set
// label used by error locations until the next update.
func (fr *FileReader) NextLine(ds string) (string, error) {
	if ds != "" {
		fr.dataSet = ds
	}
	line, err := fr.src.next()
	if err != nil {
		fr.ctx.Log.Error("unexpected end of file",
			"file", fr.src.Name, "line", fr.src.Lineno(), "data_set", fr.dataSet)
		return "", err
	}
	return line, nil
}

// CheckEnd logs whether the whole source was consumed. Leftover records
// are reported, not failed: trailing content is common in legacy inputs.
func (fr *FileReader) CheckEnd() {
	if n := fr.src.Remaining(); n > 0 {
		fr.ctx.Log.Warn("finished reading with unread lines remaining",
			"file", fr.src.Name, "read", fr.src.Lineno(), "remaining", n)
		return
	}
	fr.ctx.Log.Debug("finished reading", "file", fr.src.Name, "lines", fr.src.Lineno())
}

// ParseInt converts one token to an integer.
func ParseInt(tok, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(tok))
	if err != nil {
		return 0, &ConversionError{Token: tok, Kind: "integer", Name: name}
	}
	return v, nil
}

// ParseFloat converts one token to a floating-point value.
func ParseFloat(tok, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
	if err != nil {
		return 0, &ConversionError{Token: tok, Kind: "float", Name: name}
	}
	return v, nil
}

// ParseBool converts one token to a boolean. Accepted spellings follow the
// legacy inputs: T/TRUE/.TRUE./1 and F/FALSE/.FALSE./0, case-insensitive.
func ParseBool(tok string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(tok)) {
	case "T", "TRUE", ".TRUE.", "1":
		return true, nil
	case "F", "FALSE", ".FALSE.", "0":
		return false, nil
	}
	return false, &ConversionError{Token: tok, Kind: "boolean"}
}

// items collects raw whitespace-delimited tokens for one data set.
//
// With multiline false it tokenizes exactly one record: extra tokens are
// truncated and missing trailing tokens are padded with pad, matching the
// legacy format's tolerance for short lines. With multiline true it keeps
// pulling records until n tokens are collected and running out of input is
// an error.
func (fr *FileReader) items(ds string, n int, multiline bool, pad string) ([]string, error) {
	if !multiline {
		line, err := fr.NextLine(ds)
		if err != nil {
			return nil, err
		}
		toks := strings.Fields(line)
		if n < 0 {
			return toks, nil
		}
		if len(toks) > n {
			toks = toks[:n]
		}
		for len(toks) < n {
			toks = append(toks, pad)
		}
		return toks, nil
	}
	var toks []string
	first := ds
	for len(toks) < n {
		line, err := fr.NextLine(first)
		if err != nil {
			return nil, err
		}
		first = ""
		toks = append(toks, strings.Fields(line)...)
	}
	return toks[:n], nil
}

// Strings reads n whitespace-delimited string items. See items for the
// multiline and padding rules.
func (fr *FileReader) Strings(ds string, n int, multiline bool) ([]string, error) {
	return fr.items(ds, n, multiline, "")
}

// Ints reads n integer items; short single records pad with zero.
func (fr *FileReader) Ints(ds string, n int, multiline bool) ([]int, error) {
	toks, err := fr.items(ds, n, multiline, "0")
	if err != nil {
		return nil, err
	}
	out := make([]int, len(toks))
	for i, tok := range toks {
		if out[i], err = ParseInt(tok, ""); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Floats reads n floating-point items; short single records pad with zero.
func (fr *FileReader) Floats(ds string, n int, multiline bool) ([]float64, error) {
	toks, err := fr.items(ds, n, multiline, "0")
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(toks))
	for i, tok := range toks {
		if out[i], err = ParseFloat(tok, ""); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// NamedStrings reads exactly len(names) items from one record into a
// name-to-token map, for callers that bind fields of mixed type.
func (fr *FileReader) NamedStrings(ds string, names []string) (map[string]string, error) {
	toks, err := fr.items(ds, len(names), false, "")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(names))
	for i, name := range names {
		out[name] = toks[i]
	}
	return out, nil
}

// NamedInts reads exactly len(names) integer items from one record into a
// name-to-value map. Conversion errors name the offending field.
func (fr *FileReader) NamedInts(ds string, names []string) (map[string]int, error) {
	toks, err := fr.items(ds, len(names), false, "0")
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(names))
	for i, name := range names {
		v, err := ParseInt(toks[i], name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// ReadComments reads zero or more leading '#' comment records, returning
// their text with the marker and one leading space stripped. The first
// non-comment record is un-read.
func (fr *FileReader) ReadComments(ds string) ([]string, error) {
	text := []string{}
	first := ds
	for {
		line, err := fr.NextLine(first)
		if err != nil {
			break // end of file ends the comment block
		}
		first = ""
		if !strings.HasPrefix(line, "#") {
			fr.Rewind()
			break
		}
		text = append(text, strings.TrimSpace(line[1:]))
	}
	return text, nil
}

// ReadOptions reads exactly one record as an upper-cased option set.
// Tokens outside valid are flagged through the logger, not rejected; a
// nil valid set accepts everything.
func (fr *FileReader) ReadOptions(ds string, valid []string) ([]string, error) {
	line, err := fr.NextLine(ds)
	if err != nil {
		return nil, err
	}
	opts := strings.Fields(strings.ToUpper(line))
	if valid != nil {
		for _, opt := range opts {
			known := false
			for _, v := range valid {
				if opt == v {
					known = true
					break
				}
			}
			if !known {
				fr.ctx.Log.Warn("unrecognised option",
					"file", fr.src.Name, "data_set", fr.dataSet, "option", opt)
			}
		}
	}
	return opts, nil
}

// ReadParameter peeks one record for the optional [PARAMETER values] item.
// When the record starts with the PARAMETER keyword it is consumed and the
// following integers are bound to names in order; otherwise every name is
// bound to zero and the record stays un-read. Absence is an expected
// branch, not an error.
func (fr *FileReader) ReadParameter(ds string, names []string) (map[string]int, error) {
	out := make(map[string]int, len(names))
	line, err := fr.NextLine(ds)
	if err != nil {
		return nil, err
	}
	fr.Rewind()
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "PARAMETER") {
		for _, name := range names {
			out[name] = 0
		}
		return out, nil
	}
	toks, err := fr.items("", len(names)+1, false, "0")
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(toks[0], "PARAMETER") {
		return nil, &ControlLineError{Line: line, Reason: "expected PARAMETER keyword"}
	}
	for i, name := range names {
		v, err := ParseInt(toks[i+1], name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
