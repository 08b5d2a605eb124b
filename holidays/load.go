package holidays

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of holiday data.
type Format int

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "<UNDEFINED>"
	}
}

const (
	FormatYAML Format = iota
	// FormatJSON is JSON that may contain comments and trailing commas.
	FormatJSON
)

// FormatOf returns the format for a file name by its extension.
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	}
	return 0, false
}

// Parse reads holiday data for any number of countries.
func Parse(r io.Reader, format Format) (Data, error) {
	var d Data
	if err := decode(r, format, &d); err != nil {
		return nil, err
	}
	d = normalize(d)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseRegion reads the holiday data of a single country.
func ParseRegion(r io.Reader, format Format) (Region, error) {
	var region Region
	if err := decode(r, format, &region); err != nil {
		return Region{}, err
	}
	return region, nil
}

func decode(r io.Reader, format Format, v any) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read holiday data: %w", err)
	}
	if format == FormatJSON {
		// Every JSON document is also a YAML document.
		b = jsonc.ToJSON(b)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("decode %v holiday data: %w", format, err)
	}
	return nil
}

// normalize lower cases all region codes.
func normalize(d Data) Data {
	out := make(Data, len(d))
	for code, r := range d {
		out[strings.ToLower(code)] = normalizeRegion(r)
	}
	return out
}

func normalizeRegion(r Region) Region {
	if len(r.Regions) == 0 {
		return r
	}
	subs := make(map[string]Region, len(r.Regions))
	for code, sub := range r.Regions {
		subs[strings.ToLower(code)] = normalizeRegion(sub)
	}
	r.Regions = subs
	return r
}

// ReadFS reads every *.yaml, *.yml and *.json file in the root of fsys.
// Each file holds the data of one country whose code is the file name
// without extension, e.g. de.yaml.
func ReadFS(fsys fs.FS) (Data, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read holiday directory: %w", err)
	}
	var (
		d    = make(Data)
		errs []error
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		format, ok := FormatOf(e.Name())
		if !ok {
			continue
		}
		f, err := fsys.Open(e.Name())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		region, err := ParseRegion(f, format)
		f.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		d[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = region
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	d = normalize(d)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// ReadArchive reads holiday data from a gzip-compressed tar archive.
// Files are handled as in ReadFS; directories inside the archive are ignored.
func ReadArchive(r io.Reader) (Data, error) {
	gunzip, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read gzip: %w", err)
	}
	tr := tar.NewReader(gunzip)

	d := make(Data)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		name := path.Base(header.Name)
		format, ok := FormatOf(name)
		if !ok {
			continue
		}
		region, err := ParseRegion(tr, format)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", header.Name, err)
		}
		d[strings.TrimSuffix(name, path.Ext(name))] = region
	}

	if len(d) == 0 {
		return nil, fmt.Errorf("no holiday files found")
	}
	d = normalize(d)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks that every region compiles into a calendar.
func (d Data) Validate() error {
	var errs []error
	for code, r := range d {
		errs = append(errs, validateRegion(code, r)...)
	}
	return errors.Join(errs...)
}

func validateRegion(code string, r Region) []error {
	var errs []error
	if _, err := NewCalendar(code, r.PH, r.SH); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", code, err))
	}
	for sub, s := range r.Regions {
		errs = append(errs, validateRegion(code+"-"+sub, s)...)
	}
	return errs
}
