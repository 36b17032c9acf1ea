package mf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type unitMap map[int]*Source

func (m unitMap) Unit(n int) (*Source, error) {
	src, ok := m[n]
	if !ok {
		return nil, fmt.Errorf("unit %d not in registry", n)
	}
	return src, nil
}

// fixedLine builds a fixed-format control line with its ten- and
// twenty-character columns.
func fixedLine(locat int, cnstnt, fmtin, iprn, label string) string {
	return fmt.Sprintf("%10d%10s%-20s%10s%s", locat, cnstnt, fmtin, iprn, label)
}

func float32LE(vals ...float32) []byte {
	b := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	return b
}

func TestArrayConstant(t *testing.T) {
	t.Parallel()

	fr := newTestReader("CONSTANT  5.7\n")
	arr, info, err := fr.Array("8", []int{2, 3}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if info.Control != "CONSTANT" || info.Constant != 5.7 {
		t.Fatalf("info = %+v", info)
	}
	if len(arr.Floats) != 6 {
		t.Fatalf("len = %d", len(arr.Floats))
	}
	for _, v := range arr.Floats {
		if v != 5.7 {
			t.Fatalf("Floats = %v", arr.Floats)
		}
	}
}

func TestArrayInternalFixedWidth(t *testing.T) {
	t.Parallel()

	// Four records of seven four-character fields.
	var sb strings.Builder
	sb.WriteString("INTERNAL  1.0  (7F4.0)  3\n")
	for r := 0; r < 4; r++ {
		for c := 0; c < 7; c++ {
			fmt.Fprintf(&sb, "%4.1f", float64(r*7+c))
		}
		sb.WriteByte('\n')
	}
	fr := newTestReader(sb.String())
	arr, info, err := fr.Array("8", []int{4, 7}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if info.Control != "INTERNAL" || !info.Format.eq(7, "F", 4) || info.Print != "3" {
		t.Fatalf("info = %+v", info)
	}
	if len(arr.Floats) != 28 || arr.Floats[0] != 0 || arr.Floats[27] != 27 {
		t.Fatalf("Floats = %v", arr.Floats)
	}
}

func (f Format) eq(rep int, sym string, w int) bool {
	return f.Rep == rep && f.Symbol == sym && f.Width == w
}

func TestArrayExternalFree(t *testing.T) {
	t.Parallel()

	ext := NewSource("values.txt", []byte("1.2 3.7\n9.3 4.2 2.2 9.9\n"))
	ext.Unit = 52
	ctx := testContext()
	ctx.Units = unitMap{52: ext}

	fr := NewFileReader(NewSource("main.in", []byte("EXTERNAL  52  1.0  (FREE)  3\n")), ctx)
	arr, info, err := fr.Array("8", []int{2, 3}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if info.Control != "EXTERNAL" || info.Unit != 52 || !info.Format.Free {
		t.Fatalf("info = %+v", info)
	}
	want := []float32{1.2, 3.7, 9.3, 4.2, 2.2, 9.9}
	for i, w := range want {
		if arr.Floats[i] != float64(w) {
			t.Fatalf("Floats = %v", arr.Floats)
		}
	}
}

func TestArrayExternalBinary(t *testing.T) {
	t.Parallel()

	ext := NewSource("values.bin", float32LE(1.25, 2.5, 3.75, 5, 6.25, 7.5))
	ext.Unit = 47
	ctx := testContext()
	ctx.Units = unitMap{47: ext}

	fr := NewFileReader(NewSource("main.in", []byte("EXTERNAL  47  1.0  (BINARY)  3\n")), ctx)
	arr, _, err := fr.Array("8", []int{2, 3}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Floats[0] != 1.25 || arr.Floats[5] != 7.5 {
		t.Fatalf("Floats = %v", arr.Floats)
	}
}

func TestArrayExternalUnregistered(t *testing.T) {
	t.Parallel()

	fr := newTestReader("EXTERNAL  52  1.0  (FREE)  3\n")
	_, _, err := fr.Array("8", []int{2, 3}, Real)
	var missing *MissingSourceError
	if !errors.As(err, &missing) || missing.Unit != 52 {
		t.Fatalf("err = %v", err)
	}
}

func TestArrayOpenClose(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := "2.0 4.0 6.0\n8.0 10.0 12.0\n"
	if err := os.WriteFile(filepath.Join(dir, "test.dat"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := testContext()
	ctx.RefDir = dir

	fr := NewFileReader(NewSource("main.in", []byte("OPEN/CLOSE  test.dat  1.0  (FREE)  3\n")), ctx)
	arr, info, err := fr.Array("8", []int{2, 3}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if info.Control != "OPEN/CLOSE" || info.File != "test.dat" {
		t.Fatalf("info = %+v", info)
	}
	if arr.Floats[0] != 2 || arr.Floats[5] != 12 {
		t.Fatalf("Floats = %v", arr.Floats)
	}
}

func TestArrayFixedFormatSelf(t *testing.T) {
	t.Parallel()

	// LOCAT names the file's own unit, so the payload follows in place.
	var sb strings.Builder
	sb.WriteString(fixedLine(11, "1.", "(15F4.0)", "7", "  WETDRY-1"))
	sb.WriteByte('\n')
	for r := 0; r < 7; r++ {
		for c := 0; c < 15; c++ {
			fmt.Fprintf(&sb, "%4d", r+1)
		}
		sb.WriteByte('\n')
	}
	src := NewSource("model.lpf", []byte(sb.String()))
	src.Unit = 11
	fr := NewFileReader(src, testContext())
	arr, info, err := fr.Array("8", []int{7, 15}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if info.Locat != 11 || info.Text != "WETDRY-1" || info.Print != "7" {
		t.Fatalf("info = %+v", info)
	}
	if arr.Floats[0] != 1 || arr.Floats[7*15-1] != 7 {
		t.Fatalf("Floats = %v", arr.Floats)
	}
}

func TestArrayFixedFormatInts(t *testing.T) {
	t.Parallel()

	lines := []string{
		fixedLine(11, "1", "(12I2)", "3", ""),
		strings.Repeat(" 1", 12),
		" 1 1 9" + strings.Repeat(" 1", 9),
	}
	src := NewSource("model.bas", []byte(strings.Join(lines, "\n")+"\n"))
	src.Unit = 11
	fr := NewFileReader(src, testContext())
	arr, _, err := fr.Array("8", []int{2, 12}, Int)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Ints[12+2] != 9 {
		t.Fatalf("value at [1,2] = %d", arr.Ints[12+2])
	}
	for i, v := range arr.Ints {
		if i != 14 && v != 1 {
			t.Fatalf("Ints = %v", arr.Ints)
		}
	}
}

func TestArrayFixedFormatLabel(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString(fixedLine(11, "1", "(13I3)", "", "IBOUND        L2"))
	sb.WriteByte('\n')
	for r := 0; r < 2; r++ {
		sb.WriteString(" -1")
		sb.WriteString(strings.Repeat("  1", 11))
		sb.WriteString(" -1\n")
	}
	src := NewSource("model.bas", []byte(sb.String()))
	src.Unit = 11
	fr := NewFileReader(src, testContext())
	arr, info, err := fr.Array("8", []int{2, 13}, Int)
	if err != nil {
		t.Fatal(err)
	}
	if info.Print != "" || info.Text != "IBOUND        L2" {
		t.Fatalf("info = %+v", info)
	}
	if arr.Ints[0] != -1 || arr.Ints[1] != 1 || arr.Ints[12] != -1 {
		t.Fatalf("Ints = %v", arr.Ints)
	}
}

func TestArrayFixedLocatZero(t *testing.T) {
	t.Parallel()

	// LOCAT 0 takes the constant for every element; no payload follows.
	fr := newTestReader("         0      145.\nnext record\n")
	arr, info, err := fr.Array("8", []int{3, 2}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if info.Locat != 0 {
		t.Fatalf("info = %+v", info)
	}
	for _, v := range arr.Floats {
		if v != 145 {
			t.Fatalf("Floats = %v", arr.Floats)
		}
	}
	if line, _ := fr.NextLine(""); line != "next record" {
		t.Fatalf("payload was consumed: %q", line)
	}
}

func TestArrayFixedNegativeLocatBinary(t *testing.T) {
	t.Parallel()

	ext := NewSource("heads.bin", float32LE(9, 8, 7, 6))
	ext.Unit = 17
	ctx := testContext()
	ctx.Units = unitMap{17: ext}

	fr := NewFileReader(NewSource("main.in", []byte(fixedLine(-17, "1.", "", "", "")+"\n")), ctx)
	arr, info, err := fr.Array("8", []int{2, 2}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if !info.Format.Binary || info.Unit != 17 {
		t.Fatalf("info = %+v", info)
	}
	if arr.Floats[0] != 9 || arr.Floats[3] != 6 {
		t.Fatalf("Floats = %v", arr.Floats)
	}
}

func TestArrayBinarySelfPayload(t *testing.T) {
	t.Parallel()

	// A negative LOCAT naming the file's own unit: the raw record starts
	// on the byte after the control line.
	buf := append([]byte(fixedLine(-11, "1.", "", "", "")+"\n"), float32LE(3, 1, 4, 1)...)
	src := NewSource("model.bas", buf)
	src.Unit = 11
	fr := NewFileReader(src, testContext())
	arr, _, err := fr.Array("8", []int{4}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Floats[0] != 3 || arr.Floats[2] != 4 {
		t.Fatalf("Floats = %v", arr.Floats)
	}
}

func TestArrayExternalCursorPersists(t *testing.T) {
	t.Parallel()

	// Two successive reads from the same unit continue where the first
	// stopped.
	ext := NewSource("stacked.txt", []byte("1 2 3 4\n5 6 7 8\n"))
	ext.Unit = 16
	ctx := testContext()
	ctx.Units = unitMap{16: ext}

	main := "EXTERNAL  16  1.0  (FREE)  0\nEXTERNAL  16  1.0  (FREE)  0\n"
	fr := NewFileReader(NewSource("main.in", []byte(main)), ctx)

	first, _, err := fr.Array("8", []int{4}, Real)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := fr.Array("8", []int{4}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if first.Floats[0] != 1 || second.Floats[0] != 5 || second.Floats[3] != 8 {
		t.Fatalf("first = %v, second = %v", first.Floats, second.Floats)
	}
}

func TestArrayFixedNoRegistryReadsSelf(t *testing.T) {
	t.Parallel()

	// Single-file decodes have no unit registry; a LOCAT pointing at an
	// arbitrary unit still reads the lines that follow.
	content := fixedLine(95, "1.", "(4F4.0)", "", "") + "\n 1.0 2.0 3.0 4.0\n"
	fr := newTestReader(content)
	arr, _, err := fr.Array("8", []int{4}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if arr.Floats[3] != 4 {
		t.Fatalf("Floats = %v", arr.Floats)
	}
}

func TestArraySizeMismatch(t *testing.T) {
	t.Parallel()

	// A free-format record supplying more values than the shape holds.
	fr := newTestReader("INTERNAL  1.0  (FREE)\n1 2 3 4 5 6 7\n")
	_, _, err := fr.Array("8", []int{2, 3}, Real)
	var size *SizeMismatchError
	if !errors.As(err, &size) || size.Expected != 6 || size.Found != 7 {
		t.Fatalf("err = %v", err)
	}
}

func TestArrayConstantMultiplier(t *testing.T) {
	t.Parallel()

	fr := newTestReader("INTERNAL  2.0  (FREE)\n1.5 2.5 3.5\n")
	arr, _, err := fr.Array("8", []int{3}, Real)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{
		float64(float32(1.5) * float32(2.0)),
		float64(float32(2.5) * float32(2.0)),
		float64(float32(3.5) * float32(2.0)),
	}
	for i := range want {
		if arr.Floats[i] != want[i] {
			t.Fatalf("Floats = %v, want %v", arr.Floats, want)
		}
	}
}

func TestArrayControlLineComment(t *testing.T) {
	t.Parallel()

	// A '#' comment on the control line becomes the label, and only the
	// control record itself is consumed.
	fr := newTestReader("CONSTANT  5.7  # top of model\nnext record\n")
	arr, info, err := fr.Array("8", []int{2}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if info.Text != "top of model" || arr.Floats[0] != 5.7 {
		t.Fatalf("info = %+v, Floats = %v", info, arr.Floats)
	}
	if fr.Lineno() != 1 {
		t.Fatalf("Lineno = %d, want 1", fr.Lineno())
	}
}

func TestArrayCommentOnlyRecord(t *testing.T) {
	t.Parallel()

	// A record that is nothing but a comment cannot be a control line.
	fr := newTestReader("# stray comment\nCONSTANT  1.0\n")
	_, _, err := fr.Array("8", []int{2}, Real)
	var ctl *ControlLineError
	if !errors.As(err, &ctl) {
		t.Fatalf("err = %v", err)
	}
}

func TestArrayExternalMissingPrintFlag(t *testing.T) {
	t.Parallel()

	// EXTERNAL and OPEN/CLOSE control lines carry five items; four is a
	// malformed line, not a shorthand.
	for _, line := range []string{
		"EXTERNAL  52  1.0  (FREE)\n",
		"OPEN/CLOSE  test.dat  1.0  (FREE)\n",
	} {
		fr := newTestReader(line)
		_, _, err := fr.Array("8", []int{2}, Real)
		var ctl *ControlLineError
		if !errors.As(err, &ctl) {
			t.Fatalf("%q: err = %v", line, err)
		}
	}
}

func TestArrayShortControlLine(t *testing.T) {
	t.Parallel()

	fr := newTestReader("banana\n")
	_, _, err := fr.Array("8", []int{2}, Real)
	var ctl *ControlLineError
	if !errors.As(err, &ctl) {
		t.Fatalf("err = %v", err)
	}
}

type sliceFunc func(path, dataset string, ranges []Range) ([]float64, error)

func (f sliceFunc) Slice(path, dataset string, ranges []Range) ([]float64, error) {
	return f(path, dataset, ranges)
}

func TestArrayHDF5(t *testing.T) {
	t.Parallel()

	ctx := testContext()
	var gotDataset string
	var gotRanges []Range
	ctx.Datasets = sliceFunc(func(path, dataset string, ranges []Range) ([]float64, error) {
		gotDataset = dataset
		gotRanges = ranges
		return []float64{3, 4, 5}, nil
	})

	// An interior window: the second item of the pair is a count, not an
	// end index.
	line := `HDF5  1.0  -1  "arrays.h5"  "/model/rech"  1  2  3` + "\n"
	fr := NewFileReader(NewSource("main.in", []byte(line)), ctx)
	arr, info, err := fr.Array("8", []int{3}, Real)
	if err != nil {
		t.Fatal(err)
	}
	if info.File != "arrays.h5" || gotDataset != "/model/rech" {
		t.Fatalf("info = %+v, dataset = %q", info, gotDataset)
	}
	if len(gotRanges) != 1 || gotRanges[0] != (Range{Start: 2, Count: 3}) {
		t.Fatalf("ranges = %v", gotRanges)
	}
	if arr.Floats[0] != 3 || arr.Floats[2] != 5 {
		t.Fatalf("Floats = %v", arr.Floats)
	}
}

func TestArrayHDF5WithoutSlicer(t *testing.T) {
	t.Parallel()

	line := `HDF5  1.0  -1  "arrays.h5"  "/model/rech"  1  0  6` + "\n"
	fr := newTestReader(line)
	if _, _, err := fr.Array("8", []int{6}, Real); !errors.Is(err, ErrUnsupportedFeature) {
		t.Fatalf("err = %v", err)
	}
}
