package model

import (
	"fmt"
	"strings"

	"github.com/hydrosolve/mfio/internal/mf"
)

// bas6Options are the option keywords data set 1 recognises.
var bas6Options = []string{
	"XSECTION", "CHTOCH", "FREE", "PRINTTIME", "SHOWPROGRESS", "STOPERROR",
}

// BAS6 is the basic package: the boundary variable, the inactive-cell
// head and the starting heads.
type BAS6 struct {
	Text    []string
	Options []string

	Hnoflo float64
	Ibound []*mf.Array // one per layer; single entry with XSECTION
	Strt   []*mf.Array

	dis  *DIS
	disu *DISU
}

func (b *BAS6) Tag() string { return "BAS6" }

func (b *BAS6) SetGrid(dis *DIS, disu *DISU) {
	b.dis, b.disu = dis, disu
}

// Free reports whether data set 1 carries the FREE option, which switches
// the whole package to free format.
func (b *BAS6) Free() bool { return b.hasOption("FREE") }

// Xsection reports whether the model is a one-row cross section, which
// reshapes IBOUND and STRT to (NLAY, NCOL).
func (b *BAS6) Xsection() bool { return b.hasOption("XSECTION") }

func (b *BAS6) hasOption(name string) bool {
	for _, opt := range b.Options {
		if opt == name {
			return true
		}
	}
	return false
}

func (b *BAS6) Decode(ctx *mf.Context, fr *mf.FileReader) error {
	if b.dis == nil && b.disu == nil {
		return fmt.Errorf("BAS6 requires a decoded DIS or DISU package")
	}
	var err error
	if b.Text, err = fr.ReadComments("0"); err != nil {
		return err
	}
	if b.Options, err = fr.ReadOptions("1", bas6Options); err != nil {
		return err
	}

	// 2: IBOUND, layer by layer.
	readLayers := func(num string, elem mf.ElemType) ([]*mf.Array, error) {
		if b.disu != nil {
			arrs := make([]*mf.Array, b.disu.Nlay)
			for k := range arrs {
				ds := fmt.Sprintf("%s:L%d", num, k+1)
				arr, _, err := fr.Array(ds, []int{int(b.disu.Nodelay.Ints[k])}, elem)
				if err != nil {
					return nil, err
				}
				arrs[k] = arr
			}
			return arrs, nil
		}
		if b.Xsection() {
			if b.dis.Nrow != 1 {
				return nil, fmt.Errorf("XSECTION requires NROW=1, found %d", b.dis.Nrow)
			}
			arr, _, err := fr.Array(num, []int{b.dis.Nlay, b.dis.Ncol}, elem)
			if err != nil {
				return nil, err
			}
			return []*mf.Array{arr}, nil
		}
		arrs := make([]*mf.Array, b.dis.Nlay)
		for k := range arrs {
			ds := fmt.Sprintf("%s:L%d", num, k+1)
			arr, _, err := fr.Array(ds, b.dis.Shape2D(), elem)
			if err != nil {
				return nil, err
			}
			arrs[k] = arr
		}
		return arrs, nil
	}
	if b.Ibound, err = readLayers("2", mf.Int); err != nil {
		return err
	}

	// 3: HNOFLO is a ten-character field unless data set 1 says FREE.
	line, err := fr.NextLine("3")
	if err != nil {
		return err
	}
	tok := line
	if b.Free() {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return &mf.ConversionError{Token: line, Kind: "float", Name: "HNOFLO"}
		}
		tok = fields[0]
	} else if len(line) > 10 {
		tok = line[:10]
	}
	if b.Hnoflo, err = mf.ParseFloat(tok, "HNOFLO"); err != nil {
		return err
	}

	// 4: STRT, same shape rules as IBOUND.
	if b.Strt, err = readLayers("4", ctx.FloatType()); err != nil {
		return err
	}
	fr.CheckEnd()
	return nil
}
