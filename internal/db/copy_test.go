package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "match_candidates", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"match_candidates"}, []string{"a", "b"}).WillReturnResult(3)

	rows := [][]any{{1, "x"}, {2, "y"}, {3, "z"}}
	n, err := CopyFrom(context.Background(), mock, "match_candidates", []string{"a", "b"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"match_candidates"}, []string{"a", "b"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{1, "x"}}
	_, err = CopyFrom(context.Background(), mock, "match_candidates", []string{"a", "b"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO match_candidates")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyInBatches_Splits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"match_candidates"}, []string{"a"}).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"match_candidates"}, []string{"a"}).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"match_candidates"}, []string{"a"}).WillReturnResult(1)

	rows := [][]any{{1}, {2}, {3}, {4}, {5}}
	n, err := CopyInBatches(context.Background(), mock, "match_candidates", []string{"a"}, rows, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyInBatches_StopsOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"match_candidates"}, []string{"a"}).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"match_candidates"}, []string{"a"}).WillReturnError(fmt.Errorf("disk full"))

	rows := [][]any{{1}, {2}, {3}, {4}, {5}}
	n, err := CopyInBatches(context.Background(), mock, "match_candidates", []string{"a"}, rows, 2)
	require.Error(t, err)
	assert.Equal(t, int64(2), n)
	assert.Contains(t, err.Error(), "batch at row 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyInBatches_DefaultBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"match_candidates"}, []string{"a"}).WillReturnResult(3)

	n, err := CopyInBatches(context.Background(), mock, "match_candidates", []string{"a"}, [][]any{{1}, {2}, {3}}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
