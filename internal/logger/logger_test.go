package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContext(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		l := WithContext(context.Background())
		assert.Equal(t, "unknown", l.Data["user"])
		assert.NotContains(t, l.Data, "request_id")
	})

	t.Run("user and request id", func(t *testing.T) {
		ctx := ContextWithUser(context.Background(), "alice")
		ctx = ContextWithRequestID(ctx, "req-1")

		l := WithContext(ctx)
		assert.Equal(t, "alice", l.Data["user"])
		assert.Equal(t, "req-1", l.Data["request_id"])
	})

	t.Run("untyped keys are ignored", func(t *testing.T) {
		//nolint:staticcheck
		ctx := context.WithValue(context.Background(), "user", "mallory")
		assert.Equal(t, "unknown", WithContext(ctx).Data["user"])
	})
}

func TestFieldsAreCarried(t *testing.T) {
	hook := test.NewGlobal()
	t.Cleanup(hook.Reset)

	New().WithFields(map[string]interface{}{"group_id": "g1"}).
		WithField("members", 3).
		WithError(errors.New("boom")).
		Warn("transition failed")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "g1", entry.Data["group_id"])
	assert.Equal(t, 3, entry.Data["members"])
	assert.Equal(t, "transition failed", entry.Message)
}
