package dset

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"golang.org/x/sys/unix"

	"github.com/hydrosolve/mfio/internal/mf"
)

// File is an open DSET container.
type File struct {
	Data     []byte
	Major    uint16
	Minor    uint16
	Datasets []Dataset
	mmapped  bool
}

// Open maps a DSET file read-only and validates its directory. If mmap is
// unavailable, it falls back to ReadAt-based loading. The returned file
// must be closed to release any mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	size := int(size64)
	if size < headerSize {
		return nil, ErrCorruptFile
	}

	// Prefer mmap where available for zero-copy payload slices.
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		df, parseErr := parseFileData(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return df, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parseFileData(data []byte, mmapped bool) (*File, error) {
	if len(data) < headerSize {
		return nil, ErrCorruptFile
	}
	if string(data[:4]) != MagicDSET {
		return nil, ErrInvalidMagic
	}
	f := &File{
		Data:    data,
		Major:   binary.LittleEndian.Uint16(data[4:]),
		Minor:   binary.LittleEndian.Uint16(data[6:]),
		mmapped: mmapped,
	}
	if f.Major != CurrentMajor {
		return nil, ErrUnsupportedMajor
	}
	count := int(binary.LittleEndian.Uint32(data[8:]))

	off := headerSize
	f.Datasets = make([]Dataset, 0, count)
	for i := 0; i < count; i++ {
		if off+2 > len(data) {
			return nil, ErrCorruptFile
		}
		nameLen := int(binary.LittleEndian.Uint16(data[off:]))
		off += 2
		if off+nameLen+1 > len(data) {
			return nil, ErrCorruptFile
		}
		ds := Dataset{Name: string(data[off : off+nameLen])}
		off += nameLen
		ndim := int(data[off])
		off++
		if ndim == 0 || off+4*ndim+8 > len(data) {
			return nil, ErrCorruptFile
		}
		ds.Dims = make([]int, ndim)
		for d := range ds.Dims {
			ds.Dims[d] = int(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		ds.Offset = binary.LittleEndian.Uint64(data[off:])
		off += 8
		if ds.Offset+uint64(ds.Len()*8) > uint64(len(data)) {
			return nil, ErrCorruptFile
		}
		f.Datasets = append(f.Datasets, ds)
	}
	return f, nil
}

// Close releases the mapping, if any. The file's slices must not be used
// afterwards.
func (f *File) Close() error {
	if f.mmapped && f.Data != nil {
		data := f.Data
		f.Data = nil
		return unix.Munmap(data)
	}
	f.Data = nil
	return nil
}

// Dataset returns the directory entry for name.
func (f *File) Dataset(name string) (*Dataset, error) {
	for i := range f.Datasets {
		if f.Datasets[i].Name == name {
			return &f.Datasets[i], nil
		}
	}
	return nil, ErrUnknownDataset
}

// Slice reads the hyper-rectangle of dataset name selected by one
// start/count range per axis, in row-major order.
func (f *File) Slice(name string, ranges []mf.Range) ([]float64, error) {
	ds, err := f.Dataset(name)
	if err != nil {
		return nil, err
	}
	if len(ranges) != len(ds.Dims) {
		return nil, ErrBadRange
	}
	total := 1
	for i, r := range ranges {
		if r.Start < 0 || r.Count < 0 || r.Start+r.Count > ds.Dims[i] {
			return nil, ErrBadRange
		}
		total *= r.Count
	}

	// Strides in elements, innermost axis last.
	strides := make([]int, len(ds.Dims))
	stride := 1
	for i := len(ds.Dims) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= ds.Dims[i]
	}

	out := make([]float64, 0, total)
	if total == 0 {
		return out, nil
	}
	idx := make([]int, len(ranges))
	for {
		elem := 0
		for i, r := range ranges {
			elem += (r.Start + idx[i]) * strides[i]
		}
		off := ds.Offset + uint64(elem)*8
		out = append(out, math.Float64frombits(binary.LittleEndian.Uint64(f.Data[off:])))
		// Advance the odometer over the selected ranges.
		i := len(idx) - 1
		for i >= 0 {
			idx[i]++
			if idx[i] < ranges[i].Count {
				break
			}
			idx[i] = 0
			i--
		}
		if i < 0 {
			break
		}
	}
	return out, nil
}

// Slicer resolves dataset slices by opening the container per call. It
// implements the decode engine's dataset capability; each call is
// self-contained so decodes never hold mappings open.
type Slicer struct{}

func (Slicer) Slice(path, dataset string, ranges []mf.Range) ([]float64, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return f.Slice(dataset, ranges)
}
