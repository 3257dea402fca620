package compression

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/opendota-datasource/pkg/errors"
)

func sampleRows() []byte {
	var b strings.Builder
	b.WriteString("match_id,duration,radiant_win\n")
	for i := 0; i < 500; i++ {
		b.WriteString("7890123456,2410,true\n")
	}
	return []byte(b.String())
}

func TestRoundTrip(t *testing.T) {
	data := sampleRows()
	for _, algorithm := range Algorithms() {
		for _, level := range []Level{Fastest, Default, Better, Best} {
			algorithm, level := algorithm, level
			t.Run(string(algorithm), func(t *testing.T) {
				compressed, err := Compress(data, algorithm, level)
				require.NoError(t, err)
				if algorithm != None {
					assert.Less(t, len(compressed), len(data))
				}

				out, err := Decompress(compressed, algorithm)
				require.NoError(t, err)
				assert.Equal(t, data, out)
			})
		}
	}
}

func TestWriterDoesNotCloseUnderlying(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, LZ4, Default)
	require.NoError(t, err)
	_, err = w.Write([]byte(`[{"id":1}]`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	buf.WriteString("trailer")
	assert.True(t, strings.HasSuffix(buf.String(), "trailer"))
}

func TestParse(t *testing.T) {
	a, err := ParseAlgorithm(" GZIP ")
	require.NoError(t, err)
	assert.Equal(t, Gzip, a)

	a, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, a)

	_, err = ParseAlgorithm("brotli")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	l, err := ParseLevel("best")
	require.NoError(t, err)
	assert.Equal(t, Best, l)

	l, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, Default, l)

	_, err = ParseLevel("max")
	assert.Error(t, err)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".gz", Gzip.Extension())
	assert.Equal(t, ".zst", Zstd.Extension())
	assert.Equal(t, ".lz4", LZ4.Extension())
	assert.Equal(t, "", None.Extension())
}

func TestDecompressCorrupt(t *testing.T) {
	_, err := Decompress([]byte("not gzip"), Gzip)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, Algorithm("brotli"), Default)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	_, err = NewReader(&bytes.Buffer{}, Algorithm("brotli"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
