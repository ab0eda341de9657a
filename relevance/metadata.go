// Package relevance derives an audio-independent ground truth from curated
// catalog metadata.
package relevance

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
)

var (
	// ErrMalformedMetadata is returned when the metadata table is missing a
	// column, a row has the wrong shape or an id is empty
	ErrMalformedMetadata = errors.New("malformed metadata")

	// ErrUnknownQuery is returned when a query id has no metadata record
	ErrUnknownQuery = errors.New("unknown query")
)

// Columns names the header cells read from the metadata table
type Columns struct {
	ID       string `mapstructure:"id" yaml:"id"`
	Artist   string `mapstructure:"artist" yaml:"artist"`
	Title    string `mapstructure:"title" yaml:"title"`
	Quadrant string `mapstructure:"quadrant" yaml:"quadrant"`
	Emotions string `mapstructure:"emotions" yaml:"emotions"`
	Genres   string `mapstructure:"genres" yaml:"genres"`
}

// DefaultColumns matches the MIREX-style mood dataset export
func DefaultColumns() Columns {
	return Columns{
		ID:       "Song",
		Artist:   "Artist",
		Title:    "Title",
		Quadrant: "Quadrant",
		Emotions: "MoodsAll",
		Genres:   "Genres",
	}
}

// Options controls how raw cells are cleaned
type Options struct {
	Delimiter    rune   `mapstructure:"delimiter" yaml:"delimiter"`
	TagDelimiter string `mapstructure:"tag_delimiter" yaml:"tag_delimiter"`
	Wrappers     string `mapstructure:"wrappers" yaml:"wrappers"`
}

// DefaultOptions reads comma-separated rows with ';'-joined tags wrapped in
// single or double quotes
func DefaultOptions() Options {
	return Options{
		Delimiter:    ',',
		TagDelimiter: ";",
		Wrappers:     `"'`,
	}
}

// TagSet is a set of case-folded tags
type TagSet map[string]struct{}

// Intersect returns how many tags s shares with other
func (s TagSet) Intersect(other TagSet) int {
	if len(other) < len(s) {
		s, other = other, s
	}
	n := 0
	for tag := range s {
		if _, ok := other[tag]; ok {
			n++
		}
	}
	return n
}

// Record is one catalog item's metadata
type Record struct {
	ID       string
	Artist   string
	Title    string
	Quadrant string
	Emotions TagSet
	Genres   TagSet
}

// Load reads the metadata table at path
func Load(path string, columns Columns, opts Options) (*Oracle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	records, err := Parse(bytes.NewReader(raw), columns, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	sum := sha256.New()
	sum.Write(raw)
	fmt.Fprintf(sum, "\x00%+v\x00%+v", columns, opts)
	return NewOracle(records, hex.EncodeToString(sum.Sum(nil))), nil
}

// Parse decodes metadata rows. Every configured column must be present in
// the header, every row must have the header's width and a non-empty id.
func Parse(r io.Reader, columns Columns, opts Options) ([]Record, error) {
	if opts.TagDelimiter == "" {
		opts.TagDelimiter = DefaultOptions().TagDelimiter
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformedMetadata)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.Trim(name, opts.Wrappers))] = i
	}
	col := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("%w: column %q not in header", ErrMalformedMetadata, name)
		}
		return i, nil
	}

	var idx [6]int
	for k, name := range []string{columns.ID, columns.Artist, columns.Title, columns.Quadrant, columns.Emotions, columns.Genres} {
		if idx[k], err = col(name); err != nil {
			return nil, err
		}
	}

	fold := cases.Fold()
	clean := func(s string) string {
		return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), opts.Wrappers))
	}
	tags := func(s string) TagSet {
		set := make(TagSet)
		for _, tag := range strings.Split(clean(s), opts.TagDelimiter) {
			tag = clean(tag)
			if tag == "" {
				continue
			}
			set[fold.String(tag)] = struct{}{}
		}
		return set
	}

	var records []Record
	seen := make(map[string]int)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedMetadata, line, err)
		}

		rec := Record{
			ID:       clean(row[idx[0]]),
			Artist:   clean(row[idx[1]]),
			Title:    clean(row[idx[2]]),
			Quadrant: clean(row[idx[3]]),
			Emotions: tags(row[idx[4]]),
			Genres:   tags(row[idx[5]]),
		}
		if rec.ID == "" {
			return nil, fmt.Errorf("%w: line %d: empty id", ErrMalformedMetadata, line)
		}
		if first, dup := seen[rec.ID]; dup {
			return nil, fmt.Errorf("%w: line %d: id %q already on line %d", ErrMalformedMetadata, line, rec.ID, first)
		}
		seen[rec.ID] = line
		records = append(records, rec)
	}
	return records, nil
}
