package model

import (
	"fmt"
	"strings"

	"github.com/hydrosolve/mfio/internal/mf"
)

// itmuniStr maps the ITMUNI time-unit code to its unit string.
var itmuniStr = map[int]string{0: "?", 1: "s", 2: "min", 3: "h", 4: "d", 5: "y"}

// lenuniStr maps the LENUNI length-unit code to its unit string.
var lenuniStr = map[int]string{0: "?", 1: "ft", 2: "m", 3: "cm"}

// StressPeriod is one simulation stress period: length, time-step count,
// time-step multiplier and the steady-state or transient flag.
type StressPeriod struct {
	Perlen float64
	Nstp   int
	Tsmult float64
	SsTr   string // "SS" or "TR"
}

// readStressPeriods decodes nper PERLEN NSTP TSMULT SS/TR records.
func readStressPeriods(ctx *mf.Context, fr *mf.FileReader, ds string, nper int) ([]StressPeriod, error) {
	startln := fr.Lineno() + 1
	periods := make([]StressPeriod, nper)
	for i := range periods {
		toks, err := fr.Strings(ds, 4, false)
		if err != nil {
			return nil, err
		}
		p := &periods[i]
		if p.Perlen, err = mf.ParseFloat(toks[0], "PERLEN"); err != nil {
			return nil, err
		}
		if p.Nstp, err = mf.ParseInt(toks[1], "NSTP"); err != nil {
			return nil, err
		}
		if p.Tsmult, err = mf.ParseFloat(toks[2], "TSMULT"); err != nil {
			return nil, err
		}
		p.SsTr = strings.ToUpper(toks[3])
	}
	ctx.Log.Debug("read stress periods",
		"data_set", ds, "count", nper, "from_line", startln, "to_line", fr.Lineno())
	return periods, nil
}

// reqPositive validates a dimension read from a data set 1 record.
func reqPositive(vals map[string]int, names ...string) error {
	for _, name := range names {
		if vals[name] <= 0 {
			return fmt.Errorf("invalid %s: %d", name, vals[name])
		}
	}
	return nil
}

// DIS is the structured discretization package: the layered rectangular
// grid and the stress-period timing every other package depends on.
type DIS struct {
	Text []string

	Nlay, Nrow, Ncol int
	Nper             int
	Itmuni, Lenuni   int

	Laycbd []int
	Delr   *mf.Array // column spacing, NCOL values
	Delc   *mf.Array // row spacing, NROW values
	Top    *mf.Array
	Botm   []*mf.Array // one per layer plus one per quasi-3D confining bed

	StressPeriods []StressPeriod
}

func (d *DIS) Tag() string { return "DIS" }

// Shape2D returns (NROW, NCOL).
func (d *DIS) Shape2D() []int { return []int{d.Nrow, d.Ncol} }

// ItmuniString returns the time unit string for the ITMUNI code.
func (d *DIS) ItmuniString() string {
	if s, ok := itmuniStr[d.Itmuni]; ok {
		return s
	}
	return "?"
}

// LenuniString returns the length unit string for the LENUNI code.
func (d *DIS) LenuniString() string {
	if s, ok := lenuniStr[d.Lenuni]; ok {
		return s
	}
	return "?"
}

func (d *DIS) Decode(ctx *mf.Context, fr *mf.FileReader) error {
	var err error
	if d.Text, err = fr.ReadComments("0"); err != nil {
		return err
	}
	dims, err := fr.NamedInts("1", []string{"NLAY", "NROW", "NCOL", "NPER", "ITMUNI", "LENUNI"})
	if err != nil {
		return err
	}
	if err := reqPositive(dims, "NLAY", "NROW", "NCOL", "NPER"); err != nil {
		return err
	}
	d.Nlay, d.Nrow, d.Ncol = dims["NLAY"], dims["NROW"], dims["NCOL"]
	d.Nper, d.Itmuni, d.Lenuni = dims["NPER"], dims["ITMUNI"], dims["LENUNI"]

	if d.Laycbd, err = fr.Ints("2", d.Nlay, true); err != nil {
		return err
	}
	if d.Nlay > 1 && d.Laycbd[d.Nlay-1] != 0 {
		ctx.Log.Error("LAYCBD for the bottom layer must be 0",
			"data_set", "2", "line", fr.Lineno(), "found", d.Laycbd[d.Nlay-1])
	}

	if d.Delr, _, err = fr.Array("3", []int{d.Ncol}, ctx.FloatType()); err != nil {
		return err
	}
	if d.Delc, _, err = fr.Array("4", []int{d.Nrow}, ctx.FloatType()); err != nil {
		return err
	}
	if d.Top, _, err = fr.Array("5", d.Shape2D(), ctx.FloatType()); err != nil {
		return err
	}

	// One bottom per layer, plus one per quasi-3D confining bed.
	numBotm := d.Nlay
	if d.Nlay > 1 {
		for _, cbd := range d.Laycbd {
			if cbd != 0 {
				numBotm++
			}
		}
	}
	d.Botm = make([]*mf.Array, numBotm)
	for i := range d.Botm {
		ds := fmt.Sprintf("6:L%d", i+1)
		if d.Botm[i], _, err = fr.Array(ds, d.Shape2D(), ctx.FloatType()); err != nil {
			return err
		}
	}

	if d.StressPeriods, err = readStressPeriods(ctx, fr, "7", d.Nper); err != nil {
		return err
	}
	fr.CheckEnd()
	return nil
}
