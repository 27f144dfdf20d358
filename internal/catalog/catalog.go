// Package catalog holds the static table of known Omarchy themes. A Catalog is
// built once at startup and never mutated afterwards; callers share it by
// pointer.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/omatheme/internal/match"
)

//go:embed themes.json
var defaultData []byte

var (
	ErrNotFound      = errors.New("theme not found")
	ErrInvalidScheme = errors.New("invalid color scheme")
)

// Scheme is the color scheme of a theme.
type Scheme int

const (
	SchemeDark Scheme = iota
	SchemeLight
)

func (s Scheme) String() string {
	switch s {
	case SchemeDark:
		return "Dark"
	case SchemeLight:
		return "Light"
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// ParseScheme parses a scheme name case-insensitively.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dark":
		return SchemeDark, nil
	case "light":
		return SchemeLight, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidScheme, s)
}

// ThemeRecord is one catalog entry. RepoURL is only set for themes that can be
// installed from a repository; PreviewURL may be empty.
type ThemeRecord struct {
	Name       string
	Scheme     Scheme
	RepoURL    string
	PreviewURL string
}

// Installable reports whether the theme has a source repository.
func (r ThemeRecord) Installable() bool { return r.RepoURL != "" }

// NotFoundError is returned when a query matches no catalog entry.
type NotFoundError struct {
	Query       string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("theme '%s' not found in available themes", e.Query)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean: " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Catalog is an ordered, read-only list of themes.
type Catalog struct {
	records []ThemeRecord
}

// New builds a Catalog from records, preserving their order.
func New(records []ThemeRecord) *Catalog {
	cp := make([]ThemeRecord, len(records))
	copy(cp, records)
	return &Catalog{records: cp}
}

// fileRecord mirrors the on-disk catalog format.
type fileRecord struct {
	Name       string `yaml:"name"`
	Scheme     string `yaml:"scheme"`
	GithubURL  string `yaml:"github_url"`
	PreviewURL string `yaml:"preview_url"`
}

// Parse decodes a catalog from JSON or YAML data. Both formats are accepted
// because JSON is a subset of YAML.
func Parse(data []byte) (*Catalog, error) {
	var raw []fileRecord
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	records := make([]ThemeRecord, 0, len(raw))
	for i, r := range raw {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog: entry %d: missing name", i)
		}
		scheme, err := ParseScheme(r.Scheme)
		if err != nil {
			return nil, fmt.Errorf("catalog: entry %q: %w", name, err)
		}
		records = append(records, ThemeRecord{
			Name:       name,
			Scheme:     scheme,
			RepoURL:    strings.TrimSpace(r.GithubURL),
			PreviewURL: strings.TrimSpace(r.PreviewURL),
		})
	}
	return New(records), nil
}

// Load reads a catalog file from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read: %w", err)
	}
	return Parse(data)
}

// Default returns the catalog embedded in the binary. It names the built-in
// Omarchy themes only; none of them has a repository or preview URL.
func Default() (*Catalog, error) {
	return Parse(defaultData)
}

// All returns every record in catalog order.
func (c *Catalog) All() []ThemeRecord {
	out := make([]ThemeRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of records.
func (c *Catalog) Len() int { return len(c.records) }

// FindByName returns the first record, in catalog order, whose normalized name
// contains the normalized query. A short query can match several entries; the
// earliest one wins.
func (c *Catalog) FindByName(query string) (ThemeRecord, error) {
	for _, r := range c.records {
		if match.Matches(query, r.Name) {
			return r, nil
		}
	}
	return ThemeRecord{}, &NotFoundError{Query: query, Suggestions: c.Suggest(query, 3)}
}

// Lookup returns the entry whose normalized name equals name. It is used to
// attach metadata to names reported by the system, so substring matches are
// not considered.
func (c *Catalog) Lookup(name string) (ThemeRecord, bool) {
	for _, r := range c.records {
		if match.Equal(name, r.Name) {
			return r, true
		}
	}
	return ThemeRecord{}, false
}

// recordNames implements fuzzy.Source over normalized catalog names.
type recordNames []ThemeRecord

func (r recordNames) String(i int) string { return match.Normalize(r[i].Name) }
func (r recordNames) Len() int            { return len(r) }

// Suggest returns up to n catalog names that fuzzily resemble query, best
// first.
func (c *Catalog) Suggest(query string, n int) []string {
	q := match.Normalize(query)
	if q == "" || n <= 0 {
		return nil
	}
	matches := fuzzy.FindFrom(q, recordNames(c.records))
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, c.records[m.Index].Name)
	}
	return out
}
