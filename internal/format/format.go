package format

import (
	"slices"
	"strings"

	"jhove2/internal/identifier"
)

// Format describes a digital object format known to the framework.
type Format struct {
	ID      identifier.Identifier   `json:"id" yaml:"id" cbor:"id"`
	Name    string                  `json:"name" yaml:"name" cbor:"name"`
	Aliases []identifier.Identifier `json:"aliases,omitempty" yaml:"aliases,omitempty" cbor:"aliases,omitempty"`
}

// New returns a format identified in the JHOVE2 namespace by its short name.
func New(short, name string, aliases ...identifier.Identifier) Format {
	return Format{ID: identifier.JHOVE2Term("format", short), Name: name, Aliases: aliases}
}

// HasAlias reports whether id names this format, directly or as an alias.
func (f Format) HasAlias(id identifier.Identifier) bool {
	if f.ID.Equal(id) {
		return true
	}
	return slices.ContainsFunc(f.Aliases, id.Equal)
}

// Alias returns the first alias in namespace ns.
func (f Format) Alias(ns identifier.Namespace) (identifier.Identifier, bool) {
	for _, alias := range f.Aliases {
		if alias.Namespace() == ns {
			return alias, true
		}
	}
	return identifier.Identifier{}, false
}

// Built-in formats recognized by the bundled modules.
var (
	Bytestream = New("bytestream", "Bytestream")
	Directory  = New("directory", "Directory")
	FileSet    = New("fileset", "FileSet")
	Clump      = New("clump", "Clump")
	PNG        = New("png", "PNG",
		identifier.New(identifier.MIME, "image/png"),
		identifier.New(identifier.PUID, "fmt/12"))
	TIFF = New("tiff", "TIFF",
		identifier.New(identifier.MIME, "image/tiff"),
		identifier.New(identifier.PUID, "fmt/353"))
	JPEG = New("jpeg", "JPEG",
		identifier.New(identifier.MIME, "image/jpeg"),
		identifier.New(identifier.PUID, "fmt/43"))
	GIF = New("gif", "GIF",
		identifier.New(identifier.MIME, "image/gif"),
		identifier.New(identifier.PUID, "fmt/4"))
	PDF = New("pdf", "PDF",
		identifier.New(identifier.MIME, "application/pdf"),
		identifier.New(identifier.PUID, "fmt/18"))
	ICC = New("icc", "ICC",
		identifier.New(identifier.MIME, "application/vnd.iccprofile"),
		identifier.New(identifier.PUID, "fmt/383"))
	GZIP = New("gzip", "GZIP",
		identifier.New(identifier.MIME, "application/gzip"),
		identifier.New(identifier.PUID, "x-fmt/266"))
	Zstandard = New("zstd", "Zstandard",
		identifier.New(identifier.MIME, "application/zstd"),
		identifier.New(identifier.PUID, "fmt/1561"))
	LZ4 = New("lz4", "LZ4",
		identifier.New(identifier.MIME, "application/x-lz4"))
	ZIP = New("zip", "ZIP",
		identifier.New(identifier.MIME, "application/zip"),
		identifier.New(identifier.PUID, "x-fmt/263"))
	UTF8 = New("utf8", "UTF-8",
		identifier.New(identifier.MIME, "text/plain; charset=utf-8"),
		identifier.New(identifier.PUID, "x-fmt/111"))
	XML = New("xml", "XML",
		identifier.New(identifier.MIME, "application/xml"),
		identifier.New(identifier.PUID, "fmt/101"))
	Shapefile = New("shapefile", "ESRI Shapefile",
		identifier.New(identifier.MIME, "application/x-esri-shape"),
		identifier.New(identifier.PUID, "x-fmt/235"))
	ShapefileMain = New("shp", "ESRI Shapefile main file")
	DBF           = New("dbf", "dBASE table",
		identifier.New(identifier.PUID, "x-fmt/9"))
)

// Registry maps format identifiers to formats.
type Registry struct {
	byKey map[string]Format
	order []Format
}

// NewRegistry returns a registry containing formats.
func NewRegistry(formats ...Format) *Registry {
	r := &Registry{byKey: make(map[string]Format, len(formats))}
	for _, f := range formats {
		r.Register(f)
	}
	return r
}

// DefaultRegistry returns a registry of the built-in formats.
func DefaultRegistry() *Registry {
	return NewRegistry(Bytestream, Directory, FileSet, Clump, PNG, TIFF, JPEG, GIF, PDF,
		ICC, GZIP, Zstandard, LZ4, ZIP, UTF8, XML, Shapefile, ShapefileMain, DBF)
}

// Register adds or replaces f.
func (r *Registry) Register(f Format) {
	key := f.ID.Key()
	if _, exists := r.byKey[key]; !exists {
		r.order = append(r.order, f)
	} else {
		for i := range r.order {
			if r.order[i].ID.Equal(f.ID) {
				r.order[i] = f
			}
		}
	}
	r.byKey[key] = f
	for _, alias := range f.Aliases {
		r.byKey[alias.Key()] = f
	}
}

// Lookup resolves a format by identifier or alias.
func (r *Registry) Lookup(id identifier.Identifier) (Format, bool) {
	f, ok := r.byKey[id.Key()]
	return f, ok
}

// ByName resolves a format by case-insensitive name or short identifier.
func (r *Registry) ByName(name string) (Format, bool) {
	name = strings.TrimSpace(name)
	for _, f := range r.order {
		if strings.EqualFold(f.Name, name) || strings.EqualFold(f.ID.Short(), name) {
			return f, true
		}
	}
	return Format{}, false
}

// Formats returns the registered formats in registration order.
func (r *Registry) Formats() []Format {
	return slices.Clone(r.order)
}
