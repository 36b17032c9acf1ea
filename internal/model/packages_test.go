package model

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hydrosolve/mfio/internal/logger"
	"github.com/hydrosolve/mfio/internal/mf"
)

func testContext() *mf.Context {
	return mf.NewContext(logger.JSON(io.Discard, slog.LevelError))
}

func decode(t *testing.T, pkg Package, content string) error {
	t.Helper()
	fr := mf.NewFileReader(mf.NewSource("test.in", []byte(content)), testContext())
	return pkg.Decode(testContext(), fr)
}

const disContent = `# Test model
 1 2 3 1 4 2
 0
CONSTANT  100.0
CONSTANT  100.0
CONSTANT  10.0
CONSTANT  0.0
 1.0 1 1.0 SS
`

func TestDISDecode(t *testing.T) {
	t.Parallel()

	dis := &DIS{}
	if err := decode(t, dis, disContent); err != nil {
		t.Fatal(err)
	}
	if dis.Nlay != 1 || dis.Nrow != 2 || dis.Ncol != 3 || dis.Nper != 1 {
		t.Fatalf("dims = %d %d %d %d", dis.Nlay, dis.Nrow, dis.Ncol, dis.Nper)
	}
	if dis.ItmuniString() != "d" || dis.LenuniString() != "m" {
		t.Errorf("units = %s %s", dis.ItmuniString(), dis.LenuniString())
	}
	if len(dis.Text) != 1 || dis.Text[0] != "Test model" {
		t.Errorf("Text = %q", dis.Text)
	}
	if len(dis.Delr.Floats) != 3 || dis.Delr.Floats[0] != 100 {
		t.Errorf("Delr = %v", dis.Delr.Floats)
	}
	if len(dis.Top.Floats) != 6 || dis.Top.Floats[0] != 10 {
		t.Errorf("Top = %v", dis.Top.Floats)
	}
	if len(dis.Botm) != 1 || dis.Botm[0].Floats[5] != 0 {
		t.Errorf("Botm = %v", dis.Botm)
	}
	sp := dis.StressPeriods
	if len(sp) != 1 || sp[0].Perlen != 1 || sp[0].Nstp != 1 || sp[0].SsTr != "SS" {
		t.Errorf("StressPeriods = %+v", sp)
	}
}

func TestDISInvalidDims(t *testing.T) {
	t.Parallel()

	dis := &DIS{}
	err := decode(t, dis, "# bad\n 0 2 3 1 4 2\n")
	if err == nil || !strings.Contains(err.Error(), "NLAY") {
		t.Fatalf("err = %v", err)
	}
}

func TestDISConfiningBeds(t *testing.T) {
	t.Parallel()

	// Two layers with a quasi-3D confining bed under the first: three
	// bottom arrays.
	content := `# cbd model
 2 1 2 1 4 2
 1 0
CONSTANT  50.0
CONSTANT  50.0
CONSTANT  10.0
CONSTANT  5.0
CONSTANT  4.0
CONSTANT  0.0
 1.0 1 1.0 SS
`
	dis := &DIS{}
	if err := decode(t, dis, content); err != nil {
		t.Fatal(err)
	}
	if len(dis.Botm) != 3 {
		t.Fatalf("len(Botm) = %d, want 3", len(dis.Botm))
	}
}

func TestDISUDecode(t *testing.T) {
	t.Parallel()

	// Two nodes, one layer, symmetric connectivity with IDSYMRD 0.
	content := `# unstructured
 2 1 4 0 1 4 2 0
 0
CONSTANT  2
CONSTANT  10.0
CONSTANT  0.0
CONSTANT  25.0
INTERNAL  1  (FREE)
2 2
INTERNAL  1  (FREE)
1 2 2 1
CONSTANT  1.0
CONSTANT  5.0
 1.0 1 1.0 TR
`
	disu := &DISU{}
	if err := decode(t, disu, content); err != nil {
		t.Fatal(err)
	}
	if disu.Nodes != 2 || disu.Njag != 4 || disu.Njags() != 1 {
		t.Fatalf("dims = %+v", disu)
	}
	if disu.Nodelay.Ints[0] != 2 {
		t.Errorf("Nodelay = %v", disu.Nodelay.Ints)
	}
	if len(disu.Area) != 1 {
		t.Errorf("Area layers = %d; IVSD 0 reads per layer", len(disu.Area))
	}
	if disu.Ja.Ints[3] != 1 {
		t.Errorf("Ja = %v", disu.Ja.Ints)
	}
	if disu.Cl12 == nil || disu.Cl12.Floats[0] != 1 {
		t.Errorf("Cl12 = %v", disu.Cl12)
	}
	if disu.StressPeriods[0].SsTr != "TR" {
		t.Errorf("StressPeriods = %+v", disu.StressPeriods)
	}
}

func testDIS() *DIS {
	return &DIS{Nlay: 1, Nrow: 2, Ncol: 3, Nper: 1, Itmuni: 4, Lenuni: 2}
}

func TestBAS6Decode(t *testing.T) {
	t.Parallel()

	content := `# Basic package
FREE
INTERNAL  1  (FREE)  3
1 1 1
0 1 1
999.0
CONSTANT  5.0
`
	bas := &BAS6{}
	bas.SetGrid(testDIS(), nil)
	if err := decode(t, bas, content); err != nil {
		t.Fatal(err)
	}
	if !bas.Free() || bas.Xsection() {
		t.Errorf("Options = %v", bas.Options)
	}
	if bas.Hnoflo != 999 {
		t.Errorf("Hnoflo = %v", bas.Hnoflo)
	}
	if len(bas.Ibound) != 1 || bas.Ibound[0].Ints[3] != 0 {
		t.Errorf("Ibound = %v", bas.Ibound[0].Ints)
	}
	if bas.Strt[0].Floats[0] != 5 {
		t.Errorf("Strt = %v", bas.Strt[0].Floats)
	}
}

func TestBAS6FixedHnoflo(t *testing.T) {
	t.Parallel()

	// Without FREE, HNOFLO is the first ten characters of its record.
	content := "# basic\n\nCONSTANT  1\n     -999.     extra\nCONSTANT  5.0\n"
	bas := &BAS6{}
	bas.SetGrid(testDIS(), nil)
	if err := decode(t, bas, content); err != nil {
		t.Fatal(err)
	}
	if bas.Hnoflo != -999 {
		t.Errorf("Hnoflo = %v", bas.Hnoflo)
	}
}

func TestBAS6RequiresGrid(t *testing.T) {
	t.Parallel()

	if err := decode(t, &BAS6{}, "# basic\nFREE\n"); err == nil {
		t.Fatal("expected error without a grid")
	}
}

func TestRCHDecode(t *testing.T) {
	t.Parallel()

	// Two stress periods; the second reuses the first period's rates.
	content := `# Recharge
 3 50
 1
CONSTANT  0.001
 -1
`
	rch := &RCH{}
	dis := testDIS()
	dis.Nper = 2
	rch.SetGrid(dis, nil)
	if err := decode(t, rch, content); err != nil {
		t.Fatal(err)
	}
	if rch.Nrchop != 3 || rch.Irchcb != 50 {
		t.Fatalf("NRCHOP=%d IRCHCB=%d", rch.Nrchop, rch.Irchcb)
	}
	if rch.Rech[0].Floats[0] != 0.001 {
		t.Errorf("Rech[0] = %v", rch.Rech[0].Floats)
	}
	if rch.Rech[1] != rch.Rech[0] {
		t.Error("second period must reuse the first period's rates")
	}
}

func TestRCHFirstPeriodReuse(t *testing.T) {
	t.Parallel()

	content := "# Recharge\n 3 50\n -1\n"
	rch := &RCH{}
	rch.SetGrid(testDIS(), nil)
	if err := decode(t, rch, content); err == nil {
		t.Fatal("INRECH < 0 in the first stress period must fail")
	}
}

func TestRCHParametersNotImplemented(t *testing.T) {
	t.Parallel()

	content := "# Recharge\nPARAMETER  2\n 3 50\n"
	rch := &RCH{}
	rch.SetGrid(testDIS(), nil)
	err := decode(t, rch, content)
	if !errors.Is(err, mf.ErrNotImplemented) {
		t.Fatalf("err = %v", err)
	}
}

func TestRCHLayerVariable(t *testing.T) {
	t.Parallel()

	content := `# Recharge
 2 0
 1 1
CONSTANT  0.002
CONSTANT  1
`
	rch := &RCH{}
	rch.SetGrid(testDIS(), nil)
	if err := decode(t, rch, content); err != nil {
		t.Fatal(err)
	}
	if rch.Irch == nil || rch.Irch[0].Ints[0] != 1 {
		t.Fatalf("Irch = %v", rch.Irch)
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	for _, tag := range []string{"DIS", "disu", "Bas6", "RCH", "PCG", "OC", "WEL"} {
		if _, ok := r.New(tag); !ok {
			t.Errorf("tag %q not registered", tag)
		}
	}
	if _, ok := r.New("NOPE"); ok {
		t.Error("unknown tag must not resolve")
	}
	pkg, _ := r.New("PCG")
	if err := pkg.Decode(testContext(), nil); !errors.Is(err, mf.ErrNotImplemented) {
		t.Errorf("stub decode = %v", err)
	}
	if pkg.Tag() != "PCG" {
		t.Errorf("stub tag = %q", pkg.Tag())
	}
}
