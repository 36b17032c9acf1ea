package model

import (
	"fmt"

	"github.com/hydrosolve/mfio/internal/mf"
)

// DISU is the unstructured discretization package: per-layer node counts
// and the finite-volume connectivity of an unstructured grid.
type DISU struct {
	Text []string

	Nodes, Nlay, Njag int
	Ivsd, Idsymrd     int
	Nper              int
	Itmuni, Lenuni    int

	Laycbd  []int
	Nodelay *mf.Array   // nodes per layer, NLAY values
	Top     []*mf.Array // one per layer, NODELAY(k) values
	Bot     []*mf.Array
	Area    []*mf.Array // single entry when IVSD is -1
	Iac     *mf.Array
	Ja      *mf.Array
	Ivc     *mf.Array // only when IVSD is 1
	Cl1     *mf.Array // only when IDSYMRD is 1
	Cl2     *mf.Array
	Cl12    *mf.Array // only when IDSYMRD is 0
	Fahl    *mf.Array

	StressPeriods []StressPeriod
}

func (d *DISU) Tag() string { return "DISU" }

// Njags returns the connection count for symmetric input,
// (NJAG - NODES) / 2.
func (d *DISU) Njags() int { return (d.Njag - d.Nodes) / 2 }

func (d *DISU) Decode(ctx *mf.Context, fr *mf.FileReader) error {
	var err error
	if d.Text, err = fr.ReadComments("0"); err != nil {
		return err
	}
	dims, err := fr.NamedInts("1", []string{
		"NODES", "NLAY", "NJAG", "IVSD", "NPER", "ITMUNI", "LENUNI", "IDSYMRD",
	})
	if err != nil {
		return err
	}
	if err := reqPositive(dims, "NODES", "NLAY", "NJAG", "NPER"); err != nil {
		return err
	}
	d.Nodes, d.Nlay, d.Njag = dims["NODES"], dims["NLAY"], dims["NJAG"]
	d.Ivsd, d.Idsymrd = dims["IVSD"], dims["IDSYMRD"]
	d.Nper, d.Itmuni, d.Lenuni = dims["NPER"], dims["ITMUNI"], dims["LENUNI"]
	if d.Ivsd < -1 || d.Ivsd > 1 {
		return fmt.Errorf("invalid IVSD: %d", d.Ivsd)
	}
	if d.Idsymrd != 0 && d.Idsymrd != 1 {
		return fmt.Errorf("invalid IDSYMRD: %d", d.Idsymrd)
	}
	if (d.Njag-d.Nodes)%2 != 0 {
		ctx.Log.Warn("NJAGS determined from odd values", "njag", d.Njag, "nodes", d.Nodes)
	}

	if d.Laycbd, err = fr.Ints("2", d.Nlay, true); err != nil {
		return err
	}
	if d.Nlay > 1 && d.Laycbd[d.Nlay-1] != 0 {
		ctx.Log.Error("LAYCBD for the bottom layer must be 0",
			"data_set", "2", "line", fr.Lineno(), "found", d.Laycbd[d.Nlay-1])
	}

	if d.Nodelay, _, err = fr.Array("3", []int{d.Nlay}, mf.Int); err != nil {
		return err
	}
	perLayer := func(num string) ([]*mf.Array, error) {
		arrs := make([]*mf.Array, d.Nlay)
		for k := range arrs {
			ds := fmt.Sprintf("%s:L%d", num, k+1)
			arr, _, err := fr.Array(ds, []int{int(d.Nodelay.Ints[k])}, ctx.FloatType())
			if err != nil {
				return nil, err
			}
			arrs[k] = arr
		}
		return arrs, nil
	}
	if d.Top, err = perLayer("4"); err != nil {
		return err
	}
	if d.Bot, err = perLayer("5"); err != nil {
		return err
	}
	if d.Ivsd == -1 {
		// Horizontal discretization is the same for every layer, so a
		// single area array covers the grid.
		arr, _, err := fr.Array("6", []int{int(d.Nodelay.Ints[0])}, ctx.FloatType())
		if err != nil {
			return err
		}
		d.Area = []*mf.Array{arr}
	} else if d.Area, err = perLayer("6"); err != nil {
		return err
	}

	if d.Iac, _, err = fr.Array("7", []int{d.Nodes}, mf.Int); err != nil {
		return err
	}
	if d.Ja, _, err = fr.Array("8", []int{d.Njag}, mf.Int); err != nil {
		return err
	}
	if d.Ivsd == 1 {
		if d.Ivc, _, err = fr.Array("9", []int{d.Njag}, mf.Int); err != nil {
			return err
		}
	} else {
		ctx.Log.Debug("data set 9 skipped", "ivsd", d.Ivsd)
	}
	if d.Idsymrd == 1 {
		if d.Cl1, _, err = fr.Array("10a", []int{d.Njags()}, ctx.FloatType()); err != nil {
			return err
		}
		if d.Cl2, _, err = fr.Array("10b", []int{d.Njags()}, ctx.FloatType()); err != nil {
			return err
		}
		ctx.Log.Debug("data set 11 skipped", "idsymrd", d.Idsymrd)
	} else {
		ctx.Log.Debug("data set 10 skipped", "idsymrd", d.Idsymrd)
		if d.Cl12, _, err = fr.Array("11", []int{d.Njag}, ctx.FloatType()); err != nil {
			return err
		}
	}
	if d.Fahl, _, err = fr.Array("12", []int{d.Njag}, ctx.FloatType()); err != nil {
		return err
	}

	if d.StressPeriods, err = readStressPeriods(ctx, fr, "13", d.Nper); err != nil {
		return err
	}
	fr.CheckEnd()
	return nil
}
