package correlation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/offgrid-labs/gridlog/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDsAreUnique(t *testing.T) {
	seen := make(map[correlation.ID]struct{})
	for i := 0; i < 1000; i++ {
		id := correlation.New()
		assert.NotEmpty(t, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate correlation id: %s", id)
		seen[id] = struct{}{}
	}
}

func TestAdoptKeepsExternalIDUnchanged(t *testing.T) {
	id := correlation.Adopt("req-from-header-42")
	assert.Equal(t, "req-from-header-42", id.String())
}

func TestWithIDAndFromContext(t *testing.T) {
	ctx := context.Background()

	_, ok := correlation.FromContext(ctx)
	assert.False(t, ok)

	ctx = correlation.WithID(ctx, correlation.Adopt("X"))
	id, ok := correlation.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, correlation.ID("X"), id)
}

func TestNestedScopesShadowAndRestore(t *testing.T) {
	outer := correlation.WithID(context.Background(), correlation.Adopt("outer"))

	err := correlation.Run(outer, correlation.Adopt("inner"), func(ctx context.Context) error {
		id, ok := correlation.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, correlation.ID("inner"), id)
		return nil
	})
	require.NoError(t, err)

	// 内层作用域退出后外层 ID 原样生效
	id, ok := correlation.FromContext(outer)
	require.True(t, ok)
	assert.Equal(t, correlation.ID("outer"), id)
}

func TestRunRestoresOnPanic(t *testing.T) {
	outer := correlation.WithID(context.Background(), correlation.Adopt("outer"))

	assert.Panics(t, func() {
		_ = correlation.Run(outer, correlation.Adopt("doomed"), func(ctx context.Context) error {
			panic("boom")
		})
	})

	id, ok := correlation.FromContext(outer)
	require.True(t, ok)
	assert.Equal(t, correlation.ID("outer"), id)
}

func TestRunPropagatesError(t *testing.T) {
	sentinel := errors.New("op failed")
	err := correlation.Run(context.Background(), correlation.New(), func(ctx context.Context) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestRunNewInstallsSpanAndID(t *testing.T) {
	err := correlation.RunNew(context.Background(), "checkout", func(ctx context.Context, id correlation.ID) error {
		got, ok := correlation.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, id, got)

		span, ok := correlation.SpanFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "checkout", span)
		return nil
	})
	require.NoError(t, err)
}
