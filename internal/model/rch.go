package model

import (
	"fmt"

	"github.com/hydrosolve/mfio/internal/mf"
)

// RCH is the recharge package: a flux array per stress period, with
// optional layer targeting when NRCHOP is 2.
type RCH struct {
	Text []string

	Nprch   int
	Nrchop  int
	Irchcb  int
	Mxndrch int // DISU grids only

	Rech []*mf.Array // one per stress period
	Irch []*mf.Array // one per stress period when NRCHOP is 2

	dis  *DIS
	disu *DISU
}

func (r *RCH) Tag() string { return "RCH" }

func (r *RCH) SetGrid(dis *DIS, disu *DISU) {
	r.dis, r.disu = dis, disu
}

func (r *RCH) Decode(ctx *mf.Context, fr *mf.FileReader) error {
	if r.dis == nil && r.disu == nil {
		return fmt.Errorf("RCH requires a decoded DIS or DISU package")
	}
	var err error
	if r.Text, err = fr.ReadComments("0"); err != nil {
		return err
	}
	par, err := fr.ReadParameter("1", []string{"NPRCH"})
	if err != nil {
		return err
	}
	r.Nprch = par["NPRCH"]

	vals, err := fr.NamedInts("2", []string{"NRCHOP", "IRCHCB"})
	if err != nil {
		return err
	}
	r.Nrchop, r.Irchcb = vals["NRCHOP"], vals["IRCHCB"]
	if r.Nrchop < 1 || r.Nrchop > 3 {
		return fmt.Errorf("invalid NRCHOP: %d, must be 1, 2 or 3", r.Nrchop)
	}
	if r.disu != nil {
		mx, err := fr.NamedInts("2b", []string{"MXNDRCH"})
		if err != nil {
			return err
		}
		r.Mxndrch = mx["MXNDRCH"]
	}

	// 3, 4, 7: named parameters.
	if r.Nprch > 0 {
		return fmt.Errorf("RCH parameters: %w", mf.ErrNotImplemented)
	}

	nper := 0
	var shape []int
	if r.dis != nil {
		nper = r.dis.Nper
		shape = r.dis.Shape2D()
	} else {
		nper = r.disu.Nper
		shape = []int{r.Mxndrch}
	}
	r.Rech = make([]*mf.Array, nper)
	if r.Nrchop == 2 {
		r.Irch = make([]*mf.Array, nper)
	}

	for sp := 0; sp < nper; sp++ {
		// 5: INRECH [INIRCH]
		var inrech, inirch int
		if r.Nrchop == 2 {
			dat, err := fr.Ints("5", 2, false)
			if err != nil {
				return err
			}
			inrech, inirch = dat[0], dat[1]
		} else {
			dat, err := fr.Ints("5", 1, false)
			if err != nil {
				return err
			}
			inrech = dat[0]
		}
		switch {
		case inrech < 0 && sp == 0:
			return fmt.Errorf(
				"INRECH reuses the previous stress period, but this is the first stress period")
		case inrech < 0:
			// Recharge rates carry over from the preceding period.
			r.Rech[sp] = r.Rech[sp-1]
		default:
			ds := fmt.Sprintf("6:SP%d", sp+1)
			if r.Rech[sp], _, err = fr.Array(ds, shape, ctx.FloatType()); err != nil {
				return err
			}
		}
		if r.Nrchop == 2 {
			if inirch >= 0 {
				ds := fmt.Sprintf("8:SP%d", sp+1)
				if r.Irch[sp], _, err = fr.Array(ds, shape, mf.Int); err != nil {
					return err
				}
			} else if sp > 0 {
				r.Irch[sp] = r.Irch[sp-1]
			}
		}
	}
	fr.CheckEnd()
	return nil
}
