package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/hydrosolve/mfio/internal/model"
)

type inspectArray struct {
	Name   string    `json:"name"`
	Elem   string    `json:"elem"`
	Shape  []int     `json:"shape"`
	Floats []float64 `json:"floats,omitempty"`
	Ints   []int32   `json:"ints,omitempty"`
}

type inspectPackage struct {
	Tag     string         `json:"tag"`
	Unit    int            `json:"unit"`
	Fname   string         `json:"fname"`
	Comment []string       `json:"comment,omitempty"`
	Details []string       `json:"details,omitempty"`
	Arrays  []inspectArray `json:"arrays"`
}

type inspectReport struct {
	Path     string           `json:"path"`
	RefDir   string           `json:"ref_dir"`
	ReadID   string           `json:"read_id"`
	Entries  int              `json:"entries"`
	Packages []inspectPackage `json:"packages"`
	Errors   []string         `json:"errors,omitempty"`
}

func inspectCmd() *cli.Command {
	var (
		asJSON     bool
		valueLimit int
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Decode an input deck and report its packages and arrays",
		Flags: append(commonDeckFlags(),
			&cli.BoolFlag{Name: "json", Usage: "emit the report as JSON", Destination: &asJSON},
			&cli.IntFlag{Name: "values", Usage: "max values to show per array (0 = none, -1 = all)", Value: 8, Destination: &valueLimit},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := readDeck(ctx, cmd)
			if err != nil {
				return err
			}
			report := buildReport(m, valueLimit)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(report)
			return nil
		},
	}
}

func buildReport(m *model.Manifest, valueLimit int) inspectReport {
	report := inspectReport{
		Path:    m.Path,
		RefDir:  m.RefDir,
		ReadID:  m.ReadID,
		Entries: len(m.Entries),
	}
	for _, err := range m.Errors {
		report.Errors = append(report.Errors, err.Error())
	}
	for _, entry := range m.Entries {
		pkg := entry.Package
		if pkg == nil {
			continue
		}
		arrays := model.Arrays(pkg)
		if _, isStub := pkg.(*model.Stub); isStub {
			continue
		}
		ip := inspectPackage{Tag: entry.Tag, Unit: entry.Unit, Fname: entry.Fname}
		ip.Comment = packageComment(pkg)
		ip.Details = packageDetails(pkg)
		names := make([]string, 0, len(arrays))
		for name := range arrays {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			arr := arrays[name]
			ia := inspectArray{Name: name, Elem: arr.Elem.String(), Shape: arr.Shape}
			switch {
			case valueLimit == 0:
			case valueLimit < 0:
				ia.Floats, ia.Ints = arr.Floats, arr.Ints
			default:
				if len(arr.Floats) > 0 {
					ia.Floats = arr.Floats[:min(valueLimit, len(arr.Floats))]
				}
				if len(arr.Ints) > 0 {
					ia.Ints = arr.Ints[:min(valueLimit, len(arr.Ints))]
				}
			}
			ip.Arrays = append(ip.Arrays, ia)
		}
		report.Packages = append(report.Packages, ip)
	}
	return report
}

func packageDetails(pkg model.Package) []string {
	switch p := pkg.(type) {
	case *model.DIS:
		return []string{
			fmt.Sprintf("grid %d layers x %d rows x %d cols", p.Nlay, p.Nrow, p.Ncol),
			fmt.Sprintf("%d stress periods, time in %s, lengths in %s",
				p.Nper, p.ItmuniString(), p.LenuniString()),
		}
	case *model.DISU:
		return []string{
			fmt.Sprintf("unstructured grid, %d nodes in %d layers, %d connections",
				p.Nodes, p.Nlay, p.Njag),
			fmt.Sprintf("%d stress periods", p.Nper),
		}
	case *model.BAS6:
		return []string{
			fmt.Sprintf("options %v, hnoflo %g", p.Options, p.Hnoflo),
		}
	case *model.RCH:
		return []string{
			fmt.Sprintf("nrchop %d, irchcb %d, %d stress periods",
				p.Nrchop, p.Irchcb, len(p.Rech)),
		}
	}
	return nil
}

func packageComment(pkg model.Package) []string {
	switch p := pkg.(type) {
	case *model.DIS:
		return p.Text
	case *model.DISU:
		return p.Text
	case *model.BAS6:
		return p.Text
	case *model.RCH:
		return p.Text
	}
	return nil
}

func printReport(report inspectReport) {
	fmt.Printf("Manifest: %s\n", report.Path)
	fmt.Printf("ref_dir=%s | entries=%d | packages=%d | read_id=%s\n",
		report.RefDir, report.Entries, len(report.Packages), report.ReadID)
	for _, pkg := range report.Packages {
		fmt.Println()
		fmt.Printf("%s (unit %d, %s)\n", pkg.Tag, pkg.Unit, pkg.Fname)
		for _, text := range pkg.Comment {
			fmt.Printf("  # %s\n", text)
		}
		for _, d := range pkg.Details {
			fmt.Printf("  %s\n", d)
		}
		for _, arr := range pkg.Arrays {
			fmt.Printf("  %-12s %-6s dims=%v", arr.Name, arr.Elem, arr.Shape)
			if len(arr.Floats) > 0 {
				fmt.Printf(" values=%v", arr.Floats)
			}
			if len(arr.Ints) > 0 {
				fmt.Printf(" values=%v", arr.Ints)
			}
			fmt.Println()
		}
	}
	if len(report.Errors) > 0 {
		fmt.Println()
		fmt.Println("Decode errors:")
		for _, msg := range report.Errors {
			fmt.Printf("  %s\n", msg)
		}
	}
}
