package mf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var fmtinRe = regexp.MustCompile(
	`\((?:(?P<rep>\d*)(?P<sym>[IEFG][SN]?)(?P<w>\d+)(?:\.(?P<d>\d+))?|FREE|BINARY)\)`,
)

// Format is a parsed payload-encoding descriptor: (FREE), (BINARY), or a
// Fortran-style (repeat SYMBOL width[.decimals]) tuple.
type Format struct {
	Free     bool
	Binary   bool
	Rep      int    // fields per record, >= 1
	Symbol   string // I, F, E, G and scaled variants
	Width    int    // field width in characters, > 0
	Decimals int    // -1 when absent
}

// ParseFormat interprets a Fortran input format specification. Matching is
// case-insensitive and tolerates surrounding text, as the legacy readers
// did.
func ParseFormat(s string) (Format, error) {
	m := fmtinRe.FindStringSubmatch(strings.ToUpper(s))
	if m == nil {
		return Format{}, fmt.Errorf("cannot understand Fortran format %q", s)
	}
	body := m[0]
	switch body {
	case "(FREE)":
		return Format{Free: true}, nil
	case "(BINARY)":
		return Format{Binary: true}, nil
	}
	f := Format{Rep: 1, Symbol: m[2], Decimals: -1}
	if m[1] != "" {
		f.Rep, _ = strconv.Atoi(m[1])
		if f.Rep < 1 {
			f.Rep = 1
		}
	}
	f.Width, _ = strconv.Atoi(m[3])
	if f.Width <= 0 {
		return Format{}, fmt.Errorf("cannot understand Fortran format %q", s)
	}
	if m[4] != "" {
		f.Decimals, _ = strconv.Atoi(m[4])
	}
	return f, nil
}

func (f Format) String() string {
	switch {
	case f.Free:
		return "(FREE)"
	case f.Binary:
		return "(BINARY)"
	case f.Decimals >= 0:
		return fmt.Sprintf("(%d%s%d.%d)", f.Rep, f.Symbol, f.Width, f.Decimals)
	default:
		return fmt.Sprintf("(%d%s%d)", f.Rep, f.Symbol, f.Width)
	}
}
