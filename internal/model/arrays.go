package model

import (
	"fmt"

	"github.com/hydrosolve/mfio/internal/mf"
)

// Arrays returns the named arrays a decoded package holds, keyed the way
// listings and the API present them. Layered and per-period arrays get
// :L and :SP suffixes. Packages without arrays return an empty map.
func Arrays(p Package) map[string]*mf.Array {
	out := make(map[string]*mf.Array)
	layered := func(prefix string, arrs []*mf.Array) {
		for i, arr := range arrs {
			if arr != nil {
				out[fmt.Sprintf("%s:L%d", prefix, i+1)] = arr
			}
		}
	}
	periods := func(prefix string, arrs []*mf.Array) {
		for i, arr := range arrs {
			if arr != nil {
				out[fmt.Sprintf("%s:SP%d", prefix, i+1)] = arr
			}
		}
	}
	switch pkg := p.(type) {
	case *DIS:
		out["DELR"] = pkg.Delr
		out["DELC"] = pkg.Delc
		out["TOP"] = pkg.Top
		layered("BOTM", pkg.Botm)
	case *DISU:
		out["NODELAY"] = pkg.Nodelay
		out["IAC"] = pkg.Iac
		out["JA"] = pkg.Ja
		layered("TOP", pkg.Top)
		layered("BOT", pkg.Bot)
		layered("AREA", pkg.Area)
		if pkg.Ivc != nil {
			out["IVC"] = pkg.Ivc
		}
		if pkg.Cl1 != nil {
			out["CL1"] = pkg.Cl1
		}
		if pkg.Cl2 != nil {
			out["CL2"] = pkg.Cl2
		}
		if pkg.Cl12 != nil {
			out["CL12"] = pkg.Cl12
		}
		if pkg.Fahl != nil {
			out["FAHL"] = pkg.Fahl
		}
	case *BAS6:
		layered("IBOUND", pkg.Ibound)
		layered("STRT", pkg.Strt)
	case *RCH:
		periods("RECH", pkg.Rech)
		periods("IRCH", pkg.Irch)
	}
	for name, arr := range out {
		if arr == nil {
			delete(out, name)
		}
	}
	return out
}
