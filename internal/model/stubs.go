package model

import "github.com/hydrosolve/mfio/internal/mf"

// Stub is a recognised file type with no decode routine. Decode reports
// ErrNotImplemented, which the manifest treats as a deliberate skip.
type Stub struct {
	tag string
}

func (s *Stub) Tag() string { return s.tag }

func (s *Stub) Decode(ctx *mf.Context, fr *mf.FileReader) error {
	return mf.ErrNotImplemented
}
