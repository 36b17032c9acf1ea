package dset

import "errors"

var (
	ErrInvalidMagic     = errors.New("invalid DSET magic")
	ErrUnsupportedMajor = errors.New("unsupported DSET major version")
	ErrCorruptFile      = errors.New("corrupt DSET file")
	ErrUnknownDataset   = errors.New("dataset not in file")
	ErrBadRange         = errors.New("range outside dataset bounds")
)
