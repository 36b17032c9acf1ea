// Package dset reads and writes DSET files: a small container of named
// n-dimensional float64 datasets that array control records can slice
// without loading whole files.
//
// Layout, all little-endian:
//
//	magic "DSET", u16 major, u16 minor, u32 dataset count
//	per dataset: u16 name length, name bytes, u8 ndim, ndim x u32 dims,
//	             u64 payload offset
//	payloads: row-major float64 values
package dset

const (
	MagicDSET = "DSET"

	// Current Major Version: 1 (breaking changes only)
	CurrentMajor uint16 = 1

	// Current Minor Version
	CurrentMinor uint16 = 0
)

const headerSize = 4 + 2 + 2 + 4

// Dataset is one directory entry: a name, a shape and the byte offset of
// its row-major float64 payload.
type Dataset struct {
	Name   string
	Dims   []int
	Offset uint64
}

// Len returns the element count implied by Dims.
func (d *Dataset) Len() int {
	n := 1
	for _, dim := range d.Dims {
		n *= dim
	}
	return n
}
