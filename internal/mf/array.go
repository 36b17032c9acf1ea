package mf

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ElemType selects the element type of a decoded array.
type ElemType int

const (
	Int ElemType = iota
	Real
	Double
	Str
)

// Size returns the element width in bytes for binary payloads. Str has no
// binary representation.
func (e ElemType) Size() int {
	switch e {
	case Int, Real:
		return 4
	case Double:
		return 8
	}
	return 0
}

func (e ElemType) String() string {
	switch e {
	case Int:
		return "int"
	case Real:
		return "real"
	case Double:
		return "double"
	case Str:
		return "str"
	}
	return "unknown"
}

// Array holds one decoded array in row-major order. Floats carries Real and
// Double elements, Ints carries Int elements; the other slice is nil.
type Array struct {
	Elem   ElemType
	Shape  []int
	Floats []float64
	Ints   []int32
}

// Len returns the element count implied by Shape.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// ArrayInfo records how an array block was sourced, for diagnostics and
// round-trip output.
type ArrayInfo struct {
	Control  string // CONSTANT, INTERNAL, EXTERNAL, OPEN/CLOSE, HDF5 or FIXED
	Constant float64
	IntConst int32
	Format   Format
	Print    string
	Text     string // trailing label from the control line
	Locat    int
	Unit     int
	File     string
	Dataset  string // HDF5 path within File
}

var hdf5TokRe = regexp.MustCompile(`"[\w/.\-+_() ]+"|[\w/.\-+_()]+`)

// splitFields tokenizes line on whitespace and also reports the byte
// offset of each token, so trailing label text can be recovered with its
// original spacing intact.
func splitFields(line string) (toks []string, offs []int) {
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		start := i
		for i < len(line) && line[i] != ' ' && line[i] != '\t' {
			i++
		}
		toks = append(toks, line[start:i])
		offs = append(offs, start)
	}
	return toks, offs
}

// labelAfter returns the original line text following token index n, or ""
// when the line has no further tokens.
func labelAfter(line string, offs []int, n int) string {
	if n >= len(offs) {
		return ""
	}
	return strings.TrimSpace(line[offs[n]:])
}

// parseIntConst converts a constant field to int32. Blank means zero and
// real-number spellings such as "3." are truncated, both of which occur in
// legacy integer arrays.
func parseIntConst(tok string) (int32, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, nil
	}
	if v, err := strconv.Atoi(tok); err == nil {
		return int32(v), nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, &ConversionError{Token: tok, Kind: "integer"}
	}
	return int32(f), nil
}

// parseFloatConst converts a constant field to float64, with blank meaning
// zero.
func parseFloatConst(tok string) (float64, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, &ConversionError{Token: tok, Kind: "float"}
	}
	return v, nil
}

// Array decodes one array block: a control line in any of the supported
// variants followed, for the reading variants, by the array payload. The
// returned Array holds prod(shape) elements of type elem; ArrayInfo records
// the variant, constants and label for diagnostics. Exactly one control
// record is consumed.
func (fr *FileReader) Array(ds string, shape []int, elem ElemType) (*Array, *ArrayInfo, error) {
	arr := &Array{Elem: elem, Shape: append([]int(nil), shape...)}
	info := &ArrayInfo{}
	count := arr.Len()

	line, err := fr.NextLine(ds)
	if err != nil {
		return nil, nil, err
	}
	// A '#' starts a comment; its text stands in for the label when the
	// recognized tokens carry none of their own.
	comment := ""
	if i := strings.IndexByte(line, '#'); i >= 0 {
		comment = strings.TrimSpace(line[i+1:])
		line = line[:i]
	}
	if err := fr.decodeControl(arr, info, line, count); err != nil {
		return nil, nil, err
	}
	if info.Text == "" {
		info.Text = comment
	}
	return arr, info, nil
}

func (fr *FileReader) decodeControl(arr *Array, info *ArrayInfo, line string, count int) error {
	elem := arr.Elem
	toks, offs := splitFields(line)
	control := ""
	if len(toks) > 0 {
		control = strings.ToUpper(toks[0])
	}

	switch control {
	case "CONSTANT":
		if len(toks) < 2 {
			return &ControlLineError{Line: line, Reason: "CONSTANT needs a value"}
		}
		info.Control = "CONSTANT"
		info.Text = labelAfter(line, offs, 2)
		if elem == Int {
			c, err := parseIntConst(toks[1])
			if err != nil {
				return err
			}
			info.IntConst = c
			arr.Ints = make([]int32, count)
			for i := range arr.Ints {
				arr.Ints[i] = c
			}
			return nil
		}
		c, err := parseFloatConst(toks[1])
		if err != nil {
			return err
		}
		info.Constant = c
		arr.Floats = make([]float64, count)
		for i := range arr.Floats {
			arr.Floats[i] = c
		}
		return nil

	case "INTERNAL":
		if len(toks) < 3 {
			return &ControlLineError{Line: line, Reason: "INTERNAL needs CNSTNT and FMTIN"}
		}
		info.Control = "INTERNAL"
		fm, err := ParseFormat(toks[2])
		if err != nil {
			return &ControlLineError{Line: line, Reason: err.Error()}
		}
		info.Format = fm
		if len(toks) > 3 {
			info.Print = toks[3]
			info.Text = labelAfter(line, offs, 4)
		}
		if err := fr.setConstant(info, elem, toks[1]); err != nil {
			return err
		}
		return fr.readPayload(arr, info, fr.src, count)

	case "EXTERNAL":
		if len(toks) < 5 {
			return &ControlLineError{Line: line, Reason: "EXTERNAL needs NUNIT, CNSTNT, FMTIN and IPRN"}
		}
		info.Control = "EXTERNAL"
		unit, err := ParseInt(toks[1], "NUNIT")
		if err != nil {
			return err
		}
		info.Unit = unit
		fm, err := ParseFormat(toks[3])
		if err != nil {
			return &ControlLineError{Line: line, Reason: err.Error()}
		}
		info.Format = fm
		info.Print = toks[4]
		info.Text = labelAfter(line, offs, 5)
		if err := fr.setConstant(info, elem, toks[2]); err != nil {
			return err
		}
		src, err := fr.externalSource(unit)
		if err != nil {
			return err
		}
		return fr.readPayload(arr, info, src, count)

	case "OPEN/CLOSE":
		if len(toks) < 5 {
			return &ControlLineError{Line: line, Reason: "OPEN/CLOSE needs FNAME, CNSTNT, FMTIN and IPRN"}
		}
		info.Control = "OPEN/CLOSE"
		info.File = strings.Trim(toks[1], `"'`)
		fm, err := ParseFormat(toks[3])
		if err != nil {
			return &ControlLineError{Line: line, Reason: err.Error()}
		}
		info.Format = fm
		info.Print = toks[4]
		info.Text = labelAfter(line, offs, 5)
		if err := fr.setConstant(info, elem, toks[2]); err != nil {
			return err
		}
		path := info.File
		if !filepath.IsAbs(path) && fr.ctx.RefDir != "" {
			path = filepath.Join(fr.ctx.RefDir, path)
		}
		src, err := OpenSource(path)
		if err != nil {
			return &MissingSourceError{File: info.File, Err: err}
		}
		return fr.readPayload(arr, info, src, count)

	case "HDF5":
		return fr.hdf5Array(arr, info, line, count)
	}

	// Fixed-format control line: LOCAT, CNSTNT, FMTIN and IPRN live in
	// fixed ten- and twenty-character columns. Anything shorter than the
	// first two columns cannot be a control line.
	if len(strings.TrimSpace(line)) < 20 {
		return &ControlLineError{Line: line, Reason: "control line not understood"}
	}
	return fr.fixedArray(arr, info, line, count)
}

// setConstant parses the CNSTNT field into info per the element type.
func (fr *FileReader) setConstant(info *ArrayInfo, elem ElemType, tok string) error {
	if elem == Int {
		c, err := parseIntConst(tok)
		if err != nil {
			return err
		}
		info.IntConst = c
		return nil
	}
	c, err := parseFloatConst(tok)
	if err != nil {
		return err
	}
	info.Constant = c
	return nil
}

// externalSource resolves an EXTERNAL unit to its source. A unit equal to
// the current file's own unit reads from the current position of this
// source, which also covers decoding without a unit registry.
func (fr *FileReader) externalSource(unit int) (*Source, error) {
	n := unit
	if n < 0 {
		n = -n
	}
	if n == fr.src.Unit {
		return fr.src, nil
	}
	if fr.ctx.Units == nil {
		return nil, &MissingSourceError{Unit: unit}
	}
	src, err := fr.ctx.Units.Unit(n)
	if err != nil {
		return nil, &MissingSourceError{Unit: unit, Err: err}
	}
	return src, nil
}

// fixedArray decodes the fixed-column control line variant.
func (fr *FileReader) fixedArray(arr *Array, info *ArrayInfo, line string, count int) error {
	col := func(a, b int) string {
		if a >= len(line) {
			return ""
		}
		if b > len(line) {
			b = len(line)
		}
		return strings.TrimSpace(line[a:b])
	}
	locat, err := strconv.Atoi(col(0, 10))
	if err != nil {
		return &ControlLineError{Line: line, Reason: "fixed-format control line not understood"}
	}
	info.Control = "FIXED"
	info.Locat = locat
	if err := fr.setConstant(info, arr.Elem, col(10, 20)); err != nil {
		return err
	}
	info.Print = col(40, 50)
	if len(line) > 50 {
		info.Text = strings.TrimSpace(line[50:])
	}

	if locat == 0 {
		// The whole array takes the constant; no payload follows.
		if arr.Elem == Int {
			arr.Ints = make([]int32, count)
			for i := range arr.Ints {
				arr.Ints[i] = info.IntConst
			}
		} else {
			arr.Floats = make([]float64, count)
			for i := range arr.Floats {
				arr.Floats[i] = info.Constant
			}
		}
		return nil
	}

	if fmtin := col(20, 40); fmtin != "" {
		fm, err := ParseFormat(fmtin)
		if err != nil {
			return &ControlLineError{Line: line, Reason: err.Error()}
		}
		info.Format = fm
	} else {
		info.Format = Format{Free: true}
	}
	if locat < 0 {
		// A negative LOCAT means the unit holds an unformatted record.
		info.Format = Format{Binary: true}
	}

	unit := locat
	if unit < 0 {
		unit = -unit
	}
	info.Unit = unit
	src := fr.src
	if unit != fr.src.Unit {
		if fr.ctx.Units == nil {
			// Legacy single-file inputs use arbitrary unit numbers for
			// their own file; without a registry the only place the
			// payload can be is right here.
			fr.ctx.Log.Warn("no unit registry; reading array from current file",
				"file", fr.src.Name, "data_set", fr.dataSet, "unit", locat)
		} else {
			if src, err = fr.ctx.Units.Unit(unit); err != nil {
				return &MissingSourceError{Unit: locat, Err: err}
			}
		}
	}
	return fr.readPayload(arr, info, src, count)
}

// hdf5Array decodes the HDF5 control line variant, delegating the dataset
// slicing to the context's DatasetSlicer. Each axis contributes a
// (start, count) pair of items.
func (fr *FileReader) hdf5Array(arr *Array, info *ArrayInfo, line string, count int) error {
	toks := hdf5TokRe.FindAllString(line, -1)
	ndim := len(arr.Shape)
	want := map[int]int{1: 8, 2: 10, 3: 12}[ndim]
	if want == 0 {
		return &ControlLineError{Line: line, Reason: "HDF5 arrays must be 1-, 2- or 3-dimensional"}
	}
	if len(toks) < want {
		return &ControlLineError{Line: line, Reason: "too few items on HDF5 control line"}
	}
	info.Control = "HDF5"
	if err := fr.setConstant(info, arr.Elem, toks[1]); err != nil {
		return err
	}
	info.Print = toks[2]
	info.File = strings.Trim(toks[3], `"`)
	info.Dataset = strings.Trim(toks[4], `"`)

	ranges := make([]Range, 0, ndim)
	for i := 0; i < ndim; i++ {
		start, err := ParseInt(toks[6+2*i], "start")
		if err != nil {
			return err
		}
		n, err := ParseInt(toks[7+2*i], "count")
		if err != nil {
			return err
		}
		ranges = append(ranges, Range{Start: start, Count: n})
	}

	if fr.ctx.Datasets == nil {
		return ErrUnsupportedFeature
	}
	path := info.File
	if !filepath.IsAbs(path) && fr.ctx.RefDir != "" {
		path = filepath.Join(fr.ctx.RefDir, path)
	}
	vals, err := fr.ctx.Datasets.Slice(path, info.Dataset, ranges)
	if err != nil {
		return &MissingSourceError{File: info.File, Err: err}
	}
	if len(vals) != count {
		return &SizeMismatchError{Expected: count, Found: len(vals)}
	}
	fr.applyValues(arr, info, vals)
	return nil
}

// readPayload reads count raw values from src according to info.Format and
// stores them in arr with the constant applied.
func (fr *FileReader) readPayload(arr *Array, info *ArrayInfo, src *Source, count int) error {
	if info.Format.Binary {
		return fr.readBinary(arr, info, src, count)
	}

	payload := fr
	if src != fr.src {
		payload = NewFileReader(src, fr.ctx)
		payload.dataSet = fr.dataSet
	}

	vals := make([]float64, 0, count)
	if info.Format.Free {
		for len(vals) < count {
			line, err := payload.NextLine("")
			if err != nil {
				return err
			}
			for _, tok := range strings.Fields(line) {
				v, err := ParseFloat(tok, "")
				if err != nil {
					return err
				}
				vals = append(vals, v)
			}
		}
	} else {
		w, rep := info.Format.Width, info.Format.Rep
		for len(vals) < count {
			line, err := payload.NextLine("")
			if err != nil {
				return err
			}
			for i := 0; i < rep; i++ {
				start := i * w
				if start >= len(line) {
					break // short record drops its trailing fields
				}
				end := start + w
				if end > len(line) {
					end = len(line)
				}
				tok := strings.TrimSpace(line[start:end])
				if tok == "" {
					continue
				}
				v, err := ParseFloat(tok, "")
				if err != nil {
					return err
				}
				vals = append(vals, v)
			}
		}
	}
	if len(vals) != count {
		return &SizeMismatchError{Expected: count, Found: len(vals)}
	}
	fr.applyValues(arr, info, vals)
	return nil
}

// readBinary reads count elements of raw little-endian data from src.
func (fr *FileReader) readBinary(arr *Array, info *ArrayInfo, src *Source, count int) error {
	size := arr.Elem.Size()
	if size == 0 {
		return &ControlLineError{Reason: "binary payloads carry no string data"}
	}
	raw, err := src.readRaw(count * size)
	if err != nil {
		return err
	}
	vals := make([]float64, count)
	switch arr.Elem {
	case Int:
		for i := range vals {
			vals[i] = float64(int32(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	case Real:
		for i := range vals {
			vals[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	case Double:
		for i := range vals {
			vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	}
	fr.applyValues(arr, info, vals)
	return nil
}

// applyValues stores raw values into arr with the control-line constant
// applied. A zero constant means no scaling. Real arithmetic runs through
// float32 so results match single-precision readers bit for bit.
func (fr *FileReader) applyValues(arr *Array, info *ArrayInfo, vals []float64) {
	if arr.Elem == Int {
		c := info.IntConst
		if c == 0 {
			c = 1
		}
		arr.Ints = make([]int32, len(vals))
		for i, v := range vals {
			arr.Ints[i] = int32(v) * c
		}
		return
	}
	c := info.Constant
	if c == 0 {
		c = 1
	}
	arr.Floats = make([]float64, len(vals))
	if arr.Elem == Real {
		for i, v := range vals {
			arr.Floats[i] = float64(float32(v) * float32(c))
		}
		return
	}
	for i, v := range vals {
		arr.Floats[i] = v * c
	}
}
