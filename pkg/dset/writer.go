package dset

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

type pendingDataset struct {
	name   string
	dims   []int
	values []float64
}

// Builder accumulates datasets and writes them out as one DSET file.
type Builder struct {
	datasets []pendingDataset
}

// Add stages one dataset. The value count must match the shape.
func (b *Builder) Add(name string, dims []int, values []float64) error {
	if name == "" || len(name) > math.MaxUint16 {
		return fmt.Errorf("invalid dataset name %q", name)
	}
	if len(dims) == 0 || len(dims) > math.MaxUint8 {
		return fmt.Errorf("dataset %q: invalid rank %d", name, len(dims))
	}
	n := 1
	for _, d := range dims {
		if d <= 0 || d > math.MaxUint32 {
			return fmt.Errorf("dataset %q: invalid dimension %d", name, d)
		}
		n *= d
	}
	if n != len(values) {
		return fmt.Errorf("dataset %q: shape holds %d elements, got %d values", name, n, len(values))
	}
	b.datasets = append(b.datasets, pendingDataset{name: name, dims: dims, values: values})
	return nil
}

// WriteFile encodes the staged datasets to path.
func (b *Builder) WriteFile(path string) error {
	dirSize := headerSize
	for _, ds := range b.datasets {
		dirSize += 2 + len(ds.name) + 1 + 4*len(ds.dims) + 8
	}

	buf := make([]byte, 0, dirSize)
	buf = append(buf, MagicDSET...)
	buf = binary.LittleEndian.AppendUint16(buf, CurrentMajor)
	buf = binary.LittleEndian.AppendUint16(buf, CurrentMinor)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.datasets)))

	offset := uint64(dirSize)
	for _, ds := range b.datasets {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(ds.name)))
		buf = append(buf, ds.name...)
		buf = append(buf, byte(len(ds.dims)))
		for _, d := range ds.dims {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(d))
		}
		buf = binary.LittleEndian.AppendUint64(buf, offset)
		offset += uint64(len(ds.values) * 8)
	}
	for _, ds := range b.datasets {
		for _, v := range ds.values {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return os.WriteFile(path, buf, 0o644)
}
