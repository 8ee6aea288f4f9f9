package query

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/stretchr/testify/require"

	"github.com/shibukawa/dynquery/typesys"
)

func TestExecutionLogging(t *testing.T) {
	var entries []QueryLogEntry

	logger := func(_ context.Context, e QueryLogEntry) { entries = append(entries, e) }

	q, err := Where(source(t), "Price > 10")
	require.NoError(t, err)

	t.Run("sequence execution", func(t *testing.T) {
		entries = nil
		ctx := WithLogger(context.Background(), logger)

		_, err := Collect(ctx, q)
		assert.NoError(t, err)

		require.Equal(t, 1, len(entries))
		assert.Equal(t, 3, entries[0].Rows)
		assert.Equal(t, q.Expression().String(), entries[0].Expression)
		assert.Equal(t, "", entries[0].Error)
		assert.False(t, entries[0].EndAt.Before(entries[0].StartAt))
		assert.Equal(t, 0, len(entries[0].StackTrace))
	})

	t.Run("scalar execution", func(t *testing.T) {
		entries = nil
		ctx := WithLogger(context.Background(), logger, LoggerOpt{IncludeStack: true})

		n, err := Count(ctx, q)
		assert.NoError(t, err)
		assert.Equal(t, 3, n)

		require.Equal(t, 1, len(entries))
		assert.Equal(t, -1, entries[0].Rows)
		assert.Equal(t, typesys.Int32.Name(), entries[0].ResultType)
		assert.NotEqual(t, 0, len(entries[0].StackTrace))
	})

	t.Run("errors are always logged", func(t *testing.T) {
		entries = nil
		ctx := WithLogger(context.Background(), logger, LoggerOpt{SlowQueryThreshold: time.Hour})

		_, err := Collect(ctx, q)
		assert.NoError(t, err)
		assert.Equal(t, 0, len(entries))

		failing, err := Where(source(t), "100 / Qty > 1")
		require.NoError(t, err)

		_, err = Collect(ctx, failing)
		assert.Error(t, err)
		require.Equal(t, 1, len(entries))
		assert.Contains(t, entries[0].Error, "divide by zero")
	})

	t.Run("no logger", func(t *testing.T) {
		entries = nil

		_, err := Collect(context.Background(), q)
		assert.NoError(t, err)
		assert.Equal(t, 0, len(entries))
	})
}
