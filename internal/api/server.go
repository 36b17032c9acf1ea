// Package api serves a decoded model over HTTP: the manifest, its
// packages and their arrays, read-only.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v5"

	"github.com/hydrosolve/mfio/internal/model"
)

type Server struct {
	manifest *model.Manifest
}

func NewServer(m *model.Manifest) *Server {
	return &Server{manifest: m}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/v1/manifest", s.handleManifest)
	e.GET("/v1/packages", s.handlePackages)
	e.GET("/v1/packages/:tag", s.handlePackage)
	e.GET("/v1/packages/:tag/arrays/:name", s.handleArray)
}

func writeNotFound(c *echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, map[string]any{
		"error": ResponseError{Message: msg, Type: "not_found_error"},
	})
}

func (s *Server) handleManifest(c *echo.Context) error {
	m := s.manifest
	resp := ManifestResp{
		Path:    m.Path,
		RefDir:  m.RefDir,
		ReadID:  m.ReadID,
		Entries: make([]EntryResp, 0, len(m.Entries)),
	}
	for _, entry := range m.Entries {
		resp.Entries = append(resp.Entries, EntryResp{
			Tag:        entry.Tag,
			Unit:       entry.Unit,
			Fname:      entry.Fname,
			Mode:       entry.Mode,
			IsData:     entry.IsData,
			Recognized: entry.Recognized,
			Line:       entry.Line,
		})
	}
	for _, err := range m.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handlePackages(c *echo.Context) error {
	resps := make([]PackageResp, 0)
	for _, entry := range s.manifest.Entries {
		if entry.Package == nil {
			continue
		}
		resps = append(resps, packageResp(entry.Package))
	}
	return c.JSON(http.StatusOK, resps)
}

func (s *Server) handlePackage(c *echo.Context) error {
	pkg := s.manifest.Package(c.Param("tag"))
	if pkg == nil {
		return writeNotFound(c, "package not in manifest")
	}
	return c.JSON(http.StatusOK, packageResp(pkg))
}

func (s *Server) handleArray(c *echo.Context) error {
	pkg := s.manifest.Package(c.Param("tag"))
	if pkg == nil {
		return writeNotFound(c, "package not in manifest")
	}
	name := strings.ToUpper(c.Param("name"))
	arr, ok := model.Arrays(pkg)[name]
	if !ok {
		return writeNotFound(c, "array not decoded for package")
	}
	return c.JSON(http.StatusOK, ArrayResp{
		Tag:    pkg.Tag(),
		Name:   name,
		Elem:   arr.Elem.String(),
		Shape:  arr.Shape,
		Floats: arr.Floats,
		Ints:   arr.Ints,
	})
}

func packageResp(pkg model.Package) PackageResp {
	resp := PackageResp{Tag: pkg.Tag(), Arrays: make([]string, 0)}
	for name := range model.Arrays(pkg) {
		resp.Arrays = append(resp.Arrays, name)
	}
	sort.Strings(resp.Arrays)
	switch p := pkg.(type) {
	case *model.DIS:
		resp.Comment = p.Text
		resp.Details = map[string]any{
			"nlay": p.Nlay, "nrow": p.Nrow, "ncol": p.Ncol,
			"nper":      p.Nper,
			"time_unit": p.ItmuniString(), "length_unit": p.LenuniString(),
			"laycbd": p.Laycbd,
		}
	case *model.DISU:
		resp.Comment = p.Text
		resp.Details = map[string]any{
			"nodes": p.Nodes, "nlay": p.Nlay, "njag": p.Njag,
			"ivsd": p.Ivsd, "idsymrd": p.Idsymrd, "nper": p.Nper,
		}
	case *model.BAS6:
		resp.Comment = p.Text
		resp.Details = map[string]any{
			"options": p.Options, "hnoflo": p.Hnoflo,
			"free": p.Free(), "xsection": p.Xsection(),
		}
	case *model.RCH:
		resp.Comment = p.Text
		resp.Details = map[string]any{
			"nrchop": p.Nrchop, "irchcb": p.Irchcb,
		}
	}
	return resp
}
