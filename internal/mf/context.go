package mf

import (
	"github.com/hydrosolve/mfio/internal/logger"
)

// UnitResolver resolves a legacy integer unit number to an open Source.
// The manifest's unit registry implements it; array decodes hold only
// this non-owning view.
type UnitResolver interface {
	Unit(n int) (*Source, error)
}

// Range is a (start, count) slice along one dataset axis.
type Range struct {
	Start int
	Count int
}

// DatasetSlicer is the optional dataset-container capability: slice an
// n-dimensional numeric dataset, addressed by file path and dataset path,
// by per-axis ranges. Absent capability makes HDF5-style control records
// a hard ErrUnsupportedFeature.
type DatasetSlicer interface {
	Slice(path, dataset string, ranges []Range) ([]float64, error)
}

// Context carries everything a decode call chain needs: the diagnostics
// logger, the unit registry view, the optional dataset-container
// capability, and per-read policy. One Context is built per top-level
// manifest read and torn down with it; there is no process-wide state.
type Context struct {
	Log      logger.Logger
	Units    UnitResolver  // may be nil (standalone file reads)
	Datasets DatasetSlicer // may be nil
	RefDir   string        // directory OPEN/CLOSE and dataset files resolve against
	Float    ElemType      // Real or Double; the per-package numeric width
	ReadID   string        // opaque id stamped on diagnostics for this read
}

// NewContext returns a Context with single-precision reals and the given
// logger. A nil log falls back to the default logger.
func NewContext(log logger.Logger) *Context {
	if log == nil {
		log = logger.Default()
	}
	return &Context{Log: log, Float: Real}
}

// FloatType returns the configured floating-point element type, Real
// unless the context asks for Double.
func (c *Context) FloatType() ElemType {
	if c.Float == Double {
		return Double
	}
	return Real
}
