package fetcher

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, ctx context.Context, r io.Reader, opts CSVOptions) ([][]string, error) {
	t.Helper()
	rowCh, errCh := StreamCSV(ctx, r, opts)
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func TestStreamCSV_Basic(t *testing.T) {
	input := "customer_id,full_name\n1,Ann Lee\n2,Bo Diaz\n"
	rows, err := readAll(t, context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"customer_id", "full_name"}, rows[0])
	assert.Equal(t, []string{"2", "Bo Diaz"}, rows[2])
}

func TestStreamCSV_StripsBOM(t *testing.T) {
	input := "\xef\xbb\xbfid,zip\n1,78701\n"
	rows, err := readAll(t, context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0][0])
}

func TestStreamCSV_HeaderChannel(t *testing.T) {
	input := "name,zip\nalice,78701\nbob,02134\n"
	headerCh := make(chan []string, 1)

	rows, err := readAll(t, context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"alice", "78701"}, rows[0])
	assert.Equal(t, []string{"name", "zip"}, <-headerCh)
}

func TestStreamCSV_HeaderWithoutChannelIsDropped(t *testing.T) {
	input := "name\nalice\n"
	rows, err := readAll(t, context.Background(), strings.NewReader(input), CSVOptions{HasHeader: true})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"alice"}}, rows)
}

func TestStreamCSV_TabDelimitedTrimmed(t *testing.T) {
	input := " a \t b \n 1 \t 2 \n"
	rows, err := readAll(t, context.Background(), strings.NewReader(input), CSVOptions{
		Delimiter: '\t',
		TrimSpace: true,
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, rows)
}

func TestStreamCSV_LazyQuotes(t *testing.T) {
	input := "a,b\n1,\"12\" Oak St\"\n"
	rows, err := readAll(t, context.Background(), strings.NewReader(input), CSVOptions{LazyQuotes: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestStreamCSV_Empty(t *testing.T) {
	rows, err := readAll(t, context.Background(), strings.NewReader(""), CSVOptions{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestStreamCSV_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := readAll(t, ctx, strings.NewReader("a\nb\n"), CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestStreamCSV_ReadError(t *testing.T) {
	_, err := readAll(t, context.Background(), failingReader{}, CSVOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: read row")
}
