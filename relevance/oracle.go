package relevance

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/matrixio"
)

// SelfScore marks a record compared with itself
const SelfScore = -1

// DefaultTopN is the ground-truth size of a query
const DefaultTopN = 20

// Matrix holds item x item relevance scores in metadata order
type Matrix [][]int

// Ranked is one entry of a query's relevance ranking
type Ranked struct {
	ID     string `yaml:"id" json:"id"`
	Title  string `yaml:"title" json:"title"`
	Artist string `yaml:"artist" json:"artist"`
	Score  int    `yaml:"score" json:"score"`
}

// Oracle scores catalog items against each other from metadata alone
type Oracle struct {
	records []Record
	byID    map[string]int
	key     string
	logger  logging.Logger
}

// NewOracle wraps parsed records. key identifies the metadata the records
// came from and tags persisted matrices.
func NewOracle(records []Record, key string) *Oracle {
	byID := make(map[string]int, len(records))
	for i, rec := range records {
		if _, dup := byID[rec.ID]; !dup {
			byID[rec.ID] = i
		}
	}
	return &Oracle{
		records: records,
		byID:    byID,
		key:     key,
		logger:  logging.WithFields(logging.Fields{"component": "relevance_oracle"}),
	}
}

// SetLogger replaces the oracle's logger
func (o *Oracle) SetLogger(logger logging.Logger) {
	o.logger = logging.OrGlobal(logger, "relevance_oracle")
}

// Len returns the number of records
func (o *Oracle) Len() int {
	return len(o.records)
}

// Key identifies the metadata source
func (o *Oracle) Key() string {
	return o.key
}

// Records returns the records in metadata order
func (o *Oracle) Records() []Record {
	return o.records
}

// Lookup returns the record for id. A trailing file extension is ignored.
func (o *Oracle) Lookup(id string) (Record, bool) {
	i, ok := o.index(id)
	if !ok {
		return Record{}, false
	}
	return o.records[i], true
}

func (o *Oracle) index(id string) (int, bool) {
	id = filepath.Base(strings.TrimSpace(id))
	if i, ok := o.byID[id]; ok {
		return i, true
	}
	i, ok := o.byID[strings.TrimSuffix(id, filepath.Ext(id))]
	return i, ok
}

// Score is the relevance of other to row: one point for the same artist,
// one for the same quadrant, plus shared genre and emotion tags. Comparing a
// record with itself, or with another record of the same id, scores
// SelfScore.
func (o *Oracle) Score(row, other int) int {
	if row == other || o.records[row].ID == o.records[other].ID {
		return SelfScore
	}
	return score(&o.records[row], &o.records[other])
}

func score(a, b *Record) int {
	s := 0
	if a.Artist == b.Artist {
		s++
	}
	if a.Quadrant == b.Quadrant {
		s++
	}
	s += a.Genres.Intersect(b.Genres)
	s += a.Emotions.Intersect(b.Emotions)
	return s
}

// Matrix scores every ordered pair of records
func (o *Oracle) Matrix() Matrix {
	n := len(o.records)
	m := make(Matrix, n)
	for i := range n {
		m[i] = make([]int, n)
		for j := range n {
			m[i][j] = o.Score(i, j)
		}
	}
	return m
}

// BuildMatrix returns the relevance matrix, persisted at outPath with an
// integer format. An artifact built from the same metadata is reused.
func (o *Oracle) BuildMatrix(outPath string, recompute bool) (Matrix, error) {
	logger := o.logger.WithFields(logging.Fields{"function": "BuildMatrix", "output": outPath})

	switch matrixio.CheckCache(outPath, o.key, recompute) {
	case matrixio.CacheHit:
		logger.Debug("Reusing relevance matrix")
		return LoadMatrix(outPath)
	case matrixio.CacheUnverified:
		logger.Warn("Reusing relevance matrix without manifest; metadata unverified")
		return LoadMatrix(outPath)
	case matrixio.CacheStale:
		logger.Info("Relevance matrix was built from other metadata, rebuilding")
	}

	logger.Info("Calculating relevance matrix", logging.Fields{"rows": o.Len()})
	m := o.Matrix()

	rows := make([][]float64, len(m))
	ids := make([]string, len(m))
	for i, r := range m {
		rows[i] = make([]float64, len(r))
		for j, v := range r {
			rows[i][j] = float64(v)
		}
		ids[i] = o.records[i].ID
	}

	if err := matrixio.Write(outPath, rows, matrixio.FormatInteger); err != nil {
		return nil, err
	}
	if err := matrixio.WriteManifest(outPath, &matrixio.Manifest{
		Kind:    matrixio.KindRelevance,
		Key:     o.key,
		Rows:    len(m),
		Cols:    len(m),
		Files:   ids,
		Created: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadMatrix reads a persisted relevance matrix
func LoadMatrix(path string) (Matrix, error) {
	rows, err := matrixio.Read(path)
	if err != nil {
		return nil, err
	}
	m := make(Matrix, len(rows))
	for i, row := range rows {
		m[i] = make([]int, len(row))
		for j, v := range row {
			m[i][j] = int(v)
		}
	}
	return m, nil
}

// Query returns the n records most relevant to id, highest score first. The
// query itself is never included and ties keep metadata order. n <= 0 uses
// DefaultTopN.
func (o *Oracle) Query(id string, n int) ([]Ranked, error) {
	q, ok := o.index(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, id)
	}
	if n <= 0 {
		n = DefaultTopN
	}

	order := make([]int, 0, len(o.records))
	scores := make([]int, len(o.records))
	for i := range o.records {
		scores[i] = o.Score(q, i)
		if o.records[i].ID != o.records[q].ID {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	if n < len(order) {
		order = order[:n]
	}
	ranked := make([]Ranked, len(order))
	for k, i := range order {
		rec := o.records[i]
		ranked[k] = Ranked{ID: rec.ID, Title: rec.Title, Artist: rec.Artist, Score: scores[i]}
	}
	return ranked, nil
}

// IDs returns the ids of a ranking
func IDs(ranked []Ranked) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	return ids
}
