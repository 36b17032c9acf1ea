package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hydrosolve/mfio/internal/logger"
	"github.com/hydrosolve/mfio/internal/mf"
)

// ErrMissingDiscretization is returned when the manifest names neither a
// DIS nor a DISU file; nothing else can decode without a grid.
var ErrMissingDiscretization = errors.New("manifest names no DIS or DISU file")

// ManifestError reports a manifest line that cannot be interpreted.
type ManifestError struct {
	Path string
	Line int
	Msg  string
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// Entry is one manifest line: a file type tag, a unit number and a file,
// with an optional open mode.
type Entry struct {
	Tag        string
	Unit       int
	Fname      string // name as resolved, relative to the reference directory
	Fpath      string // full path
	Mode       string // OLD, REPLACE or UNKNOWN; empty when absent
	IsData     bool   // DATA and DATA(BINARY) entries are opaque to decoding
	Recognized bool
	Package    Package // nil for data and unrecognised entries
	Line       int
}

// Manifest is a parsed and optionally decoded simulation manifest. It
// owns the unit registry and the package set; array decodes see it only
// through the mf.UnitResolver interface.
type Manifest struct {
	Path   string
	RefDir string
	ReadID string

	Entries []*Entry
	Dis     *DIS
	Disu    *DISU

	// Errors collects non-fatal package decode failures, one per failed
	// sibling package.
	Errors []error

	registry *Registry
	units    map[int]*Entry
	sources  map[int]*mf.Source
	log      logger.Logger
}

func newManifest(path string, log logger.Logger) *Manifest {
	if log == nil {
		log = logger.Default()
	}
	return &Manifest{
		log:      log.With("manifest", filepath.Base(path)),
		Path:     path,
		RefDir:   filepath.Dir(path),
		registry: DefaultRegistry(),
		units:    make(map[int]*Entry),
		sources:  make(map[int]*mf.Source),
	}
}

// Open parses the manifest at path without decoding any package file.
// A nil log falls back to the default logger.
func Open(path string, log logger.Logger) (*Manifest, error) {
	m := newManifest(path, log)
	if err := m.parse(); err != nil {
		return nil, err
	}
	return m, nil
}

// ReadOpts customises a manifest read.
type ReadOpts struct {
	Log      logger.Logger
	RefDir   string           // overrides the manifest's directory
	Double   bool             // decode real arrays as float64
	Datasets mf.DatasetSlicer // optional dataset-container capability
}

// Read parses the manifest at path and decodes every recognised package.
// Non-fatal package failures are collected in Errors; the returned error
// covers only parse failures and grid decode failures.
func Read(path string, log logger.Logger) (*Manifest, error) {
	return ReadWith(path, ReadOpts{Log: log})
}

// ReadWith is Read with explicit decode options.
func ReadWith(path string, opts ReadOpts) (*Manifest, error) {
	m := newManifest(path, opts.Log)
	if opts.RefDir != "" {
		if fi, err := os.Stat(opts.RefDir); err != nil || !fi.IsDir() {
			m.log.Error("ref_dir is not a directory; using the manifest's",
				"ref_dir", opts.RefDir)
		} else {
			m.RefDir = opts.RefDir
		}
	}
	if err := m.parse(); err != nil {
		return nil, err
	}
	ctx := mf.NewContext(m.log)
	ctx.RefDir = m.RefDir
	ctx.Units = m
	ctx.Datasets = opts.Datasets
	ctx.ReadID = uuid.NewString()
	if opts.Double {
		ctx.Float = mf.Double
	}
	m.ReadID = ctx.ReadID
	if err := m.Decode(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) parse() error {
	m.log.Info("reading manifest", "path", m.Path)
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return err
	}
	dirCache := make(map[string]map[string]string)
	for ln, line := range strings.Split(string(data), "\n") {
		ln++
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(line) > 199 {
			m.log.Warn("manifest line too long", "line", ln, "length", len(line))
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		entry, err := m.parseEntry(ln, line, dirCache)
		if err != nil {
			return err
		}
		m.Entries = append(m.Entries, entry)
	}
	m.log.Debug("finished reading manifest", "entries", len(m.Entries))
	return nil
}

func (m *Manifest) parseEntry(ln int, line string, dirCache map[string]map[string]string) (*Entry, error) {
	dat := strings.Fields(line)
	if len(dat) < 3 {
		return nil, &ManifestError{
			Path: m.Path, Line: ln,
			Msg: fmt.Sprintf("has %d items, but 3 or 4 are expected", len(dat)),
		}
	}
	entry := &Entry{Line: ln}
	if len(dat) >= 4 {
		entry.Mode = strings.ToUpper(dat[3])
		switch entry.Mode {
		case "OLD", "REPLACE", "UNKNOWN":
		default:
			m.log.Warn("unrecognised file mode", "line", ln, "mode", dat[3])
		}
	}
	if len(dat) > 4 {
		m.log.Info("ignoring extra manifest items", "line", ln, "items", dat[4:])
	}

	// The tag may be entered in any case.
	entry.Tag = strings.ToUpper(dat[0])
	entry.IsData = strings.HasPrefix(entry.Tag, "DATA")
	if !entry.IsData {
		if pkg, ok := m.registry.New(entry.Tag); ok {
			entry.Recognized = true
			entry.Package = pkg
		} else {
			m.log.Warn("tag not identified as a supported file type",
				"line", ln, "tag", entry.Tag)
		}
	}

	unit, err := mf.ParseInt(dat[1], "unit")
	if err != nil {
		return nil, &ManifestError{Path: m.Path, Line: ln, Msg: err.Error()}
	}
	entry.Unit = unit
	if unit >= 96 && unit <= 99 {
		m.log.Error("unit number is reserved", "line", ln, "unit", unit)
	}
	if prev, ok := m.units[unit]; ok {
		m.log.Warn("unit already assigned",
			"line", ln, "unit", unit, "tag", prev.Tag)
	} else {
		m.units[unit] = entry
	}

	entry.Fname, entry.Fpath = m.resolveFile(ln, dat[2], dirCache)
	if !entry.IsData {
		if _, err := os.Stat(entry.Fpath); err != nil {
			m.log.Warn("file does not exist",
				"line", ln, "fname", entry.Fname, "ref_dir", m.RefDir)
		}
	}
	m.checkMode(ln, entry)
	return entry, nil
}

// resolveFile joins fname against the reference directory, falling back
// to a case-insensitive match when the exact name is not on disk. The
// per-directory listing is cached across entries.
func (m *Manifest) resolveFile(ln int, fname string, dirCache map[string]map[string]string) (string, string) {
	orig := fname
	fname = strings.Trim(fname, `"`)
	if filepath.Separator == '/' {
		// Manifests written on Windows carry backslash separators.
		fname = strings.ReplaceAll(fname, `\`, "/")
	}
	fpath := filepath.Join(m.RefDir, fname)
	if _, err := os.Stat(fpath); err != nil {
		subDir, base := filepath.Split(fname)
		dir := filepath.Join(m.RefDir, subDir)
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			cache, ok := dirCache[dir]
			if !ok {
				cache = make(map[string]string)
				if names, err := os.ReadDir(dir); err == nil {
					for _, de := range names {
						cache[strings.ToLower(de.Name())] = de.Name()
					}
				}
				dirCache[dir] = cache
			}
			if actual, ok := cache[strings.ToLower(base)]; ok {
				fname = filepath.Join(subDir, actual)
				fpath = filepath.Join(dir, actual)
			}
		}
	}
	if orig != fname {
		m.log.Info("fname changed", "line", ln, "from", orig, "to", fname)
	}
	return fname, fpath
}

func (m *Manifest) checkMode(ln int, entry *Entry) {
	_, statErr := os.Stat(entry.Fpath)
	switch entry.Mode {
	case "OLD":
		// The file must exist when the simulation starts.
		if entry.IsData && statErr != nil {
			m.log.Warn("mode is OLD, but file does not exist",
				"line", ln, "fname", entry.Fname)
		}
	case "REPLACE":
		if entry.IsData && statErr == nil {
			m.log.Debug("file exists and will be replaced",
				"line", ln, "fname", entry.Fname)
		}
	}
}

// Unit resolves a unit number to its open source, loading the file on
// first use and keeping its cursor position for subsequent reads.
func (m *Manifest) Unit(n int) (*mf.Source, error) {
	if src, ok := m.sources[n]; ok {
		return src, nil
	}
	entry, ok := m.units[n]
	if !ok {
		return nil, fmt.Errorf("unit %d is not named in the manifest", n)
	}
	src, err := mf.OpenSource(entry.Fpath)
	if err != nil {
		return nil, err
	}
	src.Unit = n
	m.sources[n] = src
	return src, nil
}

// Package returns the decoded package for tag, or nil.
func (m *Manifest) Package(tag string) Package {
	tag = strings.ToUpper(tag)
	for _, entry := range m.Entries {
		if entry.Tag == tag && entry.Package != nil {
			return entry.Package
		}
	}
	return nil
}

// Decode decodes every recognised package named by the manifest: the
// discretization first, then the rest with the grid attached. Failures in
// the grid package are fatal; failures in sibling packages are recorded
// in Errors and decoding continues.
func (m *Manifest) Decode(ctx *mf.Context) error {
	var disEntry, disuEntry *Entry
	for _, entry := range m.Entries {
		switch entry.Tag {
		case "DIS":
			disEntry = entry
		case "DISU":
			disuEntry = entry
		}
	}
	gridEntry := disEntry
	if disEntry != nil && disuEntry != nil {
		m.log.Warn("manifest names both DIS and DISU; using DIS")
	} else if disEntry == nil {
		gridEntry = disuEntry
	}
	if gridEntry == nil {
		return ErrMissingDiscretization
	}

	if err := m.decodePackage(ctx, gridEntry); err != nil {
		return err
	}
	switch pkg := gridEntry.Package.(type) {
	case *DIS:
		m.Dis = pkg
	case *DISU:
		m.Disu = pkg
	}

	m.log.Info("reading package data", "packages", len(m.Entries))
	for _, entry := range m.Entries {
		if entry == gridEntry || entry.Package == nil {
			continue
		}
		if _, ok := entry.Package.(*Stub); ok {
			// Skip before touching the file; stub decodes never read.
			m.log.Info("decode not implemented", "tag", entry.Tag)
			continue
		}
		if gu, ok := entry.Package.(GridUser); ok {
			gu.SetGrid(m.Dis, m.Disu)
		}
		err := m.decodePackage(ctx, entry)
		switch {
		case err == nil:
		case errors.Is(err, mf.ErrNotImplemented):
			m.log.Info("decode not implemented", "tag", entry.Tag)
		default:
			m.log.Error("package decode failed", "tag", entry.Tag, "error", err)
			m.Errors = append(m.Errors, err)
		}
	}
	return nil
}

// decodePackage runs one package decode, attaching the file location to
// any failure. This is the single point where decode errors are enriched.
func (m *Manifest) decodePackage(ctx *mf.Context, entry *Entry) error {
	src, err := m.Unit(entry.Unit)
	if err != nil {
		return &mf.DecodeError{Tag: entry.Tag, File: entry.Fname, Err: err}
	}
	fr := mf.NewFileReader(src, ctx)
	if err := entry.Package.Decode(ctx, fr); err != nil {
		var de *mf.DecodeError
		if errors.As(err, &de) || errors.Is(err, mf.ErrNotImplemented) {
			return err
		}
		return &mf.DecodeError{
			Tag:     entry.Tag,
			File:    entry.Fname,
			Line:    fr.Lineno(),
			DataSet: fr.DataSet(),
			Err:     err,
		}
	}
	return nil
}
