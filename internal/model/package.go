// Package model decodes a legacy groundwater-model input deck: the
// manifest (Name File) that maps tags and unit numbers to files, and the
// per-package decoders for the files it names.
package model

import (
	"github.com/hydrosolve/mfio/internal/mf"
)

// Package is one decodable input file type, identified by its manifest
// tag.
type Package interface {
	Tag() string
	Decode(ctx *mf.Context, fr *mf.FileReader) error
}

// GridUser is implemented by packages whose decode depends on the
// discretization. The manifest calls SetGrid after the grid package has
// been decoded and before the dependent package decodes; exactly one of
// dis and disu is non-nil.
type GridUser interface {
	SetGrid(dis *DIS, disu *DISU)
}
