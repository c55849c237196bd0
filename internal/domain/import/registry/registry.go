// Package registry loads the fixed set of known statement source formats.
// Definitions are YAML files, one per source; the file name without
// extension is the source key. A Registry never changes after Load.
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-ingest/internal/domain/ingesterr"
)

// Canonical column names.
const (
	ColumnDate        = "date"
	ColumnAmount      = "amount"
	ColumnDescription = "description"
	ColumnCategory    = "category"
)

// RequiredColumns must be located in every file.
var RequiredColumns = []string{ColumnDate, ColumnAmount, ColumnDescription}

var canonicalColumns = map[string]bool{
	ColumnDate:        true,
	ColumnAmount:      true,
	ColumnDescription: true,
	ColumnCategory:    true,
}

// ErrFormatNotFound is wrapped in a ConfigError by Lookup.
var ErrFormatNotFound = errors.New("unknown source format")

// SourceFormat describes how one bank export maps to canonical columns.
type SourceFormat struct {
	HasHeader                   bool
	Columns                     []string
	ColumnAliases               map[string][]string
	DatePattern                 string
	SignFlip                    bool
	ExcludedDescriptionPatterns []string
	OriginalCategoryColumn      string
	CategoryTranslation         map[string]string
	Delimiter                   rune
	DecimalComma                bool
}

// HasCategory reports whether the source carries its own category column.
func (f SourceFormat) HasCategory() bool {
	if f.OriginalCategoryColumn != "" {
		return true
	}
	if f.HasHeader {
		return len(f.ColumnAliases[ColumnCategory]) > 0
	}
	for _, c := range f.Columns {
		if strings.EqualFold(c, ColumnCategory) {
			return true
		}
	}
	return false
}

// Aliases returns the alias list for a canonical column. For the category
// column the original category column name is appended when not already listed.
func (f SourceFormat) Aliases(column string) []string {
	aliases := f.ColumnAliases[column]
	if column != ColumnCategory || f.OriginalCategoryColumn == "" {
		return aliases
	}
	for _, a := range aliases {
		if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(f.OriginalCategoryColumn)) {
			return aliases
		}
	}
	out := make([]string, 0, len(aliases)+1)
	out = append(out, aliases...)
	return append(out, f.OriginalCategoryColumn)
}

func (f SourceFormat) clone() SourceFormat {
	out := f
	out.Columns = append([]string(nil), f.Columns...)
	out.ExcludedDescriptionPatterns = append([]string(nil), f.ExcludedDescriptionPatterns...)
	if f.ColumnAliases != nil {
		out.ColumnAliases = make(map[string][]string, len(f.ColumnAliases))
		for k, v := range f.ColumnAliases {
			out.ColumnAliases[k] = append([]string(nil), v...)
		}
	}
	if f.CategoryTranslation != nil {
		out.CategoryTranslation = make(map[string]string, len(f.CategoryTranslation))
		for k, v := range f.CategoryTranslation {
			out.CategoryTranslation[k] = v
		}
	}
	return out
}

// Entry is one (key, format) pair in iteration order.
type Entry struct {
	Key    string
	Format SourceFormat
}

// Registry is an immutable set of source formats.
type Registry struct {
	formats map[string]SourceFormat
	keys    []string
}

// New builds a registry from already validated formats.
func New(formats map[string]SourceFormat) *Registry {
	r := &Registry{
		formats: make(map[string]SourceFormat, len(formats)),
		keys:    make([]string, 0, len(formats)),
	}
	for k, f := range formats {
		r.formats[k] = f.clone()
		r.keys = append(r.keys, k)
	}
	sort.Strings(r.keys)
	return r
}

// Lookup returns the format registered under key.
func (r *Registry) Lookup(key string) (SourceFormat, error) {
	f, ok := r.formats[key]
	if !ok {
		return SourceFormat{}, &ingesterr.ConfigError{Source: key, Err: ErrFormatNotFound}
	}
	return f.clone(), nil
}

// All returns every format in lexical key order.
func (r *Registry) All() []Entry {
	out := make([]Entry, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, Entry{Key: k, Format: r.formats[k].clone()})
	}
	return out
}

// Keys returns the registered source keys in lexical order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of registered formats.
func (r *Registry) Len() int {
	return len(r.keys)
}

// Load reads every *.yaml / *.yml definition in dir. Any malformed
// definition aborts the load with a ConfigError.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ingesterr.ConfigError{Source: dir, Err: err}
	}

	formats := make(map[string]SourceFormat)
	origin := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		key := strings.TrimSuffix(name, filepath.Ext(name))
		if prev, dup := origin[key]; dup {
			return nil, &ingesterr.ConfigError{Source: name, Err: fmt.Errorf("source key %q already defined by %s", key, prev)}
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, &ingesterr.ConfigError{Source: name, Err: err}
		}
		f, err := Parse(name, data)
		if err != nil {
			return nil, err
		}
		formats[key] = f
		origin[key] = name
	}

	if len(formats) == 0 {
		return nil, &ingesterr.ConfigError{Source: dir, Err: errors.New("no format definitions found")}
	}
	return New(formats), nil
}

// definition is the on-disk shape of a source format.
type definition struct {
	HasHeader                   *bool               `yaml:"has_header"`
	Columns                     []string            `yaml:"columns"`
	ColumnAliases               map[string][]string `yaml:"column_aliases"`
	DatePattern                 string              `yaml:"date_pattern"`
	SignFlip                    bool                `yaml:"sign_flip"`
	ExcludedDescriptionPatterns []string            `yaml:"excluded_description_patterns"`
	OriginalCategoryColumn      string              `yaml:"original_category_column"`
	CategoryTranslation         map[string]string   `yaml:"category_translation"`
	Delimiter                   string              `yaml:"delimiter"`
	DecimalComma                bool                `yaml:"decimal_comma"`
}

// Parse decodes and validates one definition. source names it in errors.
func Parse(source string, data []byte) (SourceFormat, error) {
	var def definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty definition")
		}
		return SourceFormat{}, &ingesterr.ConfigError{Source: source, Err: err}
	}
	return def.validate(source)
}

func (d definition) validate(source string) (SourceFormat, error) {
	fail := func(field, msg string, args ...any) (SourceFormat, error) {
		return SourceFormat{}, &ingesterr.ConfigError{Source: source, Field: field, Err: fmt.Errorf(msg, args...)}
	}

	if d.HasHeader == nil {
		return fail("has_header", "is required")
	}

	f := SourceFormat{
		HasHeader:              *d.HasHeader,
		DatePattern:            d.DatePattern,
		SignFlip:               d.SignFlip,
		OriginalCategoryColumn: strings.TrimSpace(d.OriginalCategoryColumn),
		CategoryTranslation:    d.CategoryTranslation,
		DecimalComma:           d.DecimalComma,
	}

	if f.HasHeader {
		if len(d.ColumnAliases) == 0 {
			return fail("column_aliases", "is required when has_header is true")
		}
		f.ColumnAliases = make(map[string][]string, len(d.ColumnAliases))
		for col, aliases := range d.ColumnAliases {
			canonical := strings.ToLower(strings.TrimSpace(col))
			if !canonicalColumns[canonical] {
				return fail("column_aliases", "unknown canonical column %q", col)
			}
			cleaned := make([]string, 0, len(aliases))
			for _, a := range aliases {
				if a = strings.TrimSpace(a); a != "" {
					cleaned = append(cleaned, a)
				}
			}
			if len(cleaned) == 0 {
				return fail("column_aliases", "column %q has no aliases", col)
			}
			f.ColumnAliases[canonical] = cleaned
		}
		for _, req := range RequiredColumns {
			if len(f.ColumnAliases[req]) == 0 {
				return fail("column_aliases", "missing aliases for required column %q", req)
			}
		}
	} else {
		if len(d.Columns) == 0 {
			return fail("columns", "is required when has_header is false")
		}
		seen := make(map[string]bool, len(d.Columns))
		for _, c := range d.Columns {
			c = strings.ToLower(strings.TrimSpace(c))
			if c != "" && seen[c] {
				return fail("columns", "duplicate column %q", c)
			}
			seen[c] = true
			f.Columns = append(f.Columns, c)
		}
		for _, req := range RequiredColumns {
			if !seen[req] {
				return fail("columns", "missing required column %q", req)
			}
		}
		if f.OriginalCategoryColumn != "" && !seen[strings.ToLower(f.OriginalCategoryColumn)] {
			return fail("original_category_column", "%q is not one of columns", f.OriginalCategoryColumn)
		}
	}

	if _, err := parser.NewDateParser(d.DatePattern); err != nil {
		return fail("date_pattern", "%v", err)
	}

	for _, p := range d.ExcludedDescriptionPatterns {
		if p = strings.TrimSpace(p); p != "" {
			f.ExcludedDescriptionPatterns = append(f.ExcludedDescriptionPatterns, p)
		}
	}

	codes := make([]string, 0, len(d.CategoryTranslation))
	for code := range d.CategoryTranslation {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	folded := make(map[string]string, len(codes))
	for _, code := range codes {
		if strings.TrimSpace(d.CategoryTranslation[code]) == "" {
			return fail("category_translation", "code %q maps to an empty category", code)
		}
		key := strings.ToLower(strings.TrimSpace(code))
		if prev, ok := folded[key]; ok {
			return fail("category_translation", "codes %q and %q differ only by case", prev, code)
		}
		folded[key] = code
	}
	if len(d.CategoryTranslation) > 0 && !f.HasCategory() {
		return fail("category_translation", "set without a category column")
	}

	switch r := []rune(d.Delimiter); {
	case len(r) == 0:
	case d.Delimiter == `\t` || d.Delimiter == "tab":
		f.Delimiter = '\t'
	case len(r) == 1:
		f.Delimiter = r[0]
	default:
		return fail("delimiter", "must be a single character, got %q", d.Delimiter)
	}

	return f, nil
}
