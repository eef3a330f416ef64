package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.Background(), nil, "action_plan_items", []string{"id", "description"}, nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"action_plan_items"}, []string{"id", "position"}).WillReturnResult(2)

	n, err := CopyFrom(context.Background(), mock, "action_plan_items", []string{"id", "position"}, [][]any{{"a", 1}, {"b", 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_SchemaQualified(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"health", "alerts"}, []string{"id"}).WillReturnResult(1)

	n, err := CopyFrom(context.Background(), mock, "health.alerts", []string{"id"}, [][]any{{"x"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"action_plan_items"}, []string{"id"}).WillReturnError(errors.New("copy failed"))

	_, err = CopyFrom(context.Background(), mock, "action_plan_items", []string{"id"}, [][]any{{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: copy into action_plan_items")
	assert.NoError(t, mock.ExpectationsWereMet())
}
