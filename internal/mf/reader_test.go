package mf

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hydrosolve/mfio/internal/logger"
)

func testContext() *Context {
	return NewContext(logger.JSON(io.Discard, slog.LevelError))
}

func newTestReader(content string) *FileReader {
	return NewFileReader(NewSource("test.in", []byte(content)), testContext())
}

func TestFileReaderCursor(t *testing.T) {
	t.Parallel()

	fr := newTestReader("first\nsecond\nthird\n")
	if fr.AtEnd() || fr.Remaining() != 3 {
		t.Fatalf("fresh reader: AtEnd=%v Remaining=%d", fr.AtEnd(), fr.Remaining())
	}
	if fr.CurLine() != "" {
		t.Errorf("CurLine before any read = %q", fr.CurLine())
	}

	line, err := fr.NextLine("1")
	if err != nil || line != "first" {
		t.Fatalf("NextLine = %q, %v", line, err)
	}
	if fr.Lineno() != 1 || fr.DataSet() != "1" {
		t.Errorf("Lineno=%d DataSet=%q", fr.Lineno(), fr.DataSet())
	}

	line, _ = fr.NextLine("")
	if line != "second" || fr.DataSet() != "1" {
		t.Errorf("NextLine = %q, DataSet=%q; empty ds must keep the label", line, fr.DataSet())
	}

	fr.Rewind()
	if fr.CurLine() != "first" {
		t.Errorf("CurLine after rewind = %q", fr.CurLine())
	}
	line, _ = fr.NextLine("")
	if line != "second" {
		t.Errorf("re-read after rewind = %q", line)
	}

	if _, err := fr.NextLine(""); err != nil {
		t.Fatalf("third line: %v", err)
	}
	if !fr.AtEnd() || fr.Remaining() != 0 {
		t.Errorf("at end: AtEnd=%v Remaining=%d", fr.AtEnd(), fr.Remaining())
	}
	if _, err := fr.NextLine(""); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("read past end = %v, want ErrUnexpectedEOF", err)
	}
}

func TestIntsSingleLinePads(t *testing.T) {
	t.Parallel()

	fr := newTestReader("1 2\n")
	got, err := fr.Ints("1", 4, false)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ints = %v, want %v", got, want)
		}
	}
}

func TestIntsSingleLineTruncates(t *testing.T) {
	t.Parallel()

	fr := newTestReader("1 2 3 4 5\n")
	got, err := fr.Ints("1", 3, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("Ints = %v, want first three items", got)
	}
}

func TestFloatsMultiline(t *testing.T) {
	t.Parallel()

	fr := newTestReader("1.5 2.5\n3.5\n4.5 5.5\n")
	got, err := fr.Floats("2", 5, true)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1.5 || got[4] != 5.5 {
		t.Fatalf("Floats = %v", got)
	}

	fr = newTestReader("1.0 2.0\n")
	if _, err := fr.Floats("2", 5, true); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("short multiline read = %v, want ErrUnexpectedEOF", err)
	}
}

func TestConversionErrors(t *testing.T) {
	t.Parallel()

	fr := newTestReader("1 x 3\n")
	_, err := fr.Ints("1", 3, false)
	var conv *ConversionError
	if !errors.As(err, &conv) || conv.Token != "x" {
		t.Fatalf("Ints on bad token = %v", err)
	}

	fr = newTestReader("10 oops\n")
	_, err = fr.NamedInts("1", []string{"NLAY", "NROW"})
	if !errors.As(err, &conv) || conv.Name != "NROW" {
		t.Fatalf("NamedInts must name the field, got %v", err)
	}
}

func TestNamedStrings(t *testing.T) {
	t.Parallel()

	fr := newTestReader("3 2.5 FREE\n")
	got, err := fr.NamedStrings("1", []string{"N", "V", "OPT"})
	if err != nil {
		t.Fatal(err)
	}
	if got["N"] != "3" || got["V"] != "2.5" || got["OPT"] != "FREE" {
		t.Fatalf("NamedStrings = %v", got)
	}
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	trues := []string{"T", "true", ".TRUE.", "1", " t "}
	falses := []string{"F", "false", ".False.", "0"}
	for _, tok := range trues {
		if v, err := ParseBool(tok); err != nil || !v {
			t.Errorf("ParseBool(%q) = %v, %v", tok, v, err)
		}
	}
	for _, tok := range falses {
		if v, err := ParseBool(tok); err != nil || v {
			t.Errorf("ParseBool(%q) = %v, %v", tok, v, err)
		}
	}
	if _, err := ParseBool("yes"); err == nil {
		t.Error("ParseBool(\"yes\"): expected error")
	}
}

func TestReadComments(t *testing.T) {
	t.Parallel()

	fr := newTestReader("# first comment\n#  second\n1 2 3\n")
	text, err := fr.ReadComments("0")
	if err != nil {
		t.Fatal(err)
	}
	if len(text) != 2 || text[0] != "first comment" || text[1] != "second" {
		t.Fatalf("ReadComments = %q", text)
	}
	line, err := fr.NextLine("1")
	if err != nil || line != "1 2 3" {
		t.Fatalf("first data record after comments = %q, %v", line, err)
	}

	// A file that is nothing but comments ends cleanly.
	fr = newTestReader("# only comments\n")
	if _, err := fr.ReadComments("0"); err != nil {
		t.Fatalf("comments to end of file: %v", err)
	}
	if !fr.AtEnd() {
		t.Error("expected cursor at end")
	}
}

func TestReadOptions(t *testing.T) {
	t.Parallel()

	fr := newTestReader("free xsection bogus\n")
	opts, err := fr.ReadOptions("1", []string{"FREE", "XSECTION", "CHTOCH"})
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 3 || opts[0] != "FREE" || opts[2] != "BOGUS" {
		t.Fatalf("ReadOptions = %v", opts)
	}
}

func TestReadParameter(t *testing.T) {
	t.Parallel()

	fr := newTestReader("PARAMETER 4 60\n2 3\n")
	vals, err := fr.ReadParameter("1", []string{"NP", "MXL"})
	if err != nil {
		t.Fatal(err)
	}
	if vals["NP"] != 4 || vals["MXL"] != 60 {
		t.Fatalf("ReadParameter = %v", vals)
	}
	if line, _ := fr.NextLine("2"); line != "2 3" {
		t.Fatalf("record after PARAMETER = %q", line)
	}

	// Absent keyword: zeros, record stays unread.
	fr = newTestReader("2 3\n")
	vals, err = fr.ReadParameter("1", []string{"NP", "MXL"})
	if err != nil {
		t.Fatal(err)
	}
	if vals["NP"] != 0 || vals["MXL"] != 0 {
		t.Fatalf("ReadParameter without keyword = %v", vals)
	}
	if line, _ := fr.NextLine("2"); line != "2 3" {
		t.Fatalf("record after absent PARAMETER = %q", line)
	}
}
