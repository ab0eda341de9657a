package relevance

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-mmir/logging"
	"github.com/RyanBlaney/sonido-mmir/matrixio"
)

const metadata = `Song,Artist,Title,Quadrant,MoodsAll,Genres
'MT0001','Ann','First','Q1','Happy; Bright','Pop; Rock'
'MT0002','Ann','Second','Q2','Sad','pop'
'MT0003','Bob','Third','Q1','happy; Sad; ','Jazz'
'MT0004','Cid','Fourth','Q4','','ROCK; pop'
`

func writeMetadata(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadOracle(t *testing.T) *Oracle {
	t.Helper()
	oracle, err := Load(writeMetadata(t, metadata), DefaultColumns(), DefaultOptions())
	require.NoError(t, err)
	oracle.SetLogger(&logging.NoOpLogger{})
	return oracle
}

func TestParseCleansCells(t *testing.T) {
	records, err := Parse(strings.NewReader(metadata), DefaultColumns(), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 4)

	first := records[0]
	assert.Equal(t, "MT0001", first.ID)
	assert.Equal(t, "Ann", first.Artist)
	assert.Equal(t, "First", first.Title)
	assert.Equal(t, "Q1", first.Quadrant)
	assert.Equal(t, TagSet{"happy": {}, "bright": {}}, first.Emotions)
	assert.Equal(t, TagSet{"pop": {}, "rock": {}}, first.Genres)

	assert.Equal(t, TagSet{"happy": {}, "sad": {}}, records[2].Emotions, "empty tags are dropped")
	assert.Empty(t, records[3].Emotions)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"missing column", "Song,Artist,Title,Quadrant,MoodsAll\n'MT1','A','T','Q1','x'\n"},
		{"short row", "Song,Artist,Title,Quadrant,MoodsAll,Genres\n'MT1','A','T','Q1','x'\n"},
		{"empty id", "Song,Artist,Title,Quadrant,MoodsAll,Genres\n'','A','T','Q1','x','y'\n"},
		{"duplicate id", "Song,Artist,Title,Quadrant,MoodsAll,Genres\n'MT1','A','T','Q1','x','y'\nMT1,B,U,Q2,z,w\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.content), DefaultColumns(), DefaultOptions())
			assert.True(t, errors.Is(err, ErrMalformedMetadata), "got %v", err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"), DefaultColumns(), DefaultOptions())
	assert.Error(t, err)
}

func TestScore(t *testing.T) {
	oracle := loadOracle(t)

	// same artist, different quadrant, shared "pop"
	assert.Equal(t, 2, oracle.Score(0, 1))
	// same quadrant, shared "happy"
	assert.Equal(t, 2, oracle.Score(0, 2))
	// shared "pop" and "rock"
	assert.Equal(t, 2, oracle.Score(0, 3))
	assert.Equal(t, oracle.Score(1, 2), oracle.Score(2, 1))

	for i := range oracle.Len() {
		assert.Equal(t, SelfScore, oracle.Score(i, i))
	}
}

func TestArtistMatchIsCaseSensitive(t *testing.T) {
	content := "Song,Artist,Title,Quadrant,MoodsAll,Genres\n" +
		"'A','Ann','x','Q1','',''\n" +
		"'B','ann','y','Q2','',''\n"
	oracle, err := Load(writeMetadata(t, content), DefaultColumns(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, oracle.Score(0, 1))
}

func TestScoreSameIDIsSelf(t *testing.T) {
	records := []Record{
		{ID: "MT1", Artist: "Ann", Quadrant: "Q1", Genres: TagSet{"pop": {}}, Emotions: TagSet{}},
		{ID: "MT2", Artist: "Bob", Quadrant: "Q2", Genres: TagSet{}, Emotions: TagSet{}},
		{ID: "MT1", Artist: "Ann", Quadrant: "Q1", Genres: TagSet{"pop": {}}, Emotions: TagSet{}},
	}
	oracle := NewOracle(records, "k")

	assert.Equal(t, SelfScore, oracle.Score(0, 2))
	assert.Equal(t, SelfScore, oracle.Score(2, 0))

	ranked, err := oracle.Query("MT1", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"MT2"}, IDs(ranked))
}

func TestMatrix(t *testing.T) {
	oracle := loadOracle(t)
	m := oracle.Matrix()
	require.Len(t, m, 4)
	for i := range m {
		assert.Equal(t, -1, m[i][i])
		for j := range m {
			assert.Equal(t, m[i][j], m[j][i])
		}
	}
}

func TestBuildMatrix(t *testing.T) {
	oracle := loadOracle(t)
	out := filepath.Join(t.TempDir(), "metadata", "relevance.csv")

	m, err := oracle.BuildMatrix(out, false)
	require.NoError(t, err)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "-1,2,2,2\n"))

	manifest, err := matrixio.ReadManifest(out)
	require.NoError(t, err)
	assert.Equal(t, oracle.Key(), manifest.Key)
	assert.Equal(t, []string{"MT0001", "MT0002", "MT0003", "MT0004"}, manifest.Files)

	loaded, err := oracle.BuildMatrix(out, false)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)
}

func TestQuery(t *testing.T) {
	oracle := loadOracle(t)

	ranked, err := oracle.Query("MT0001.mp3", 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"MT0002", "MT0003", "MT0004"}, IDs(ranked), "ties keep metadata order")
	assert.Equal(t, Ranked{ID: "MT0002", Title: "Second", Artist: "Ann", Score: 2}, ranked[0])

	ranked, err = oracle.Query("MT0003", 1)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "MT0001", ranked[0].ID)
	assert.NotEqual(t, "MT0003", ranked[0].ID)

	_, err = oracle.Query("MT9999", 5)
	assert.True(t, errors.Is(err, ErrUnknownQuery))

	rec, ok := oracle.Lookup("MT0004")
	require.True(t, ok)
	assert.Equal(t, "Cid", rec.Artist)
}
