package recovery

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yuyuan/litportal/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGo_RecoversPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	before := testutil.ToFloat64(metrics.PanicsRecoveredTotal.WithLabelValues("goroutine"))

	<-Go(zap.New(core), "refresh", func() { panic("boom") })

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "panic recovered", entry.Message)
	assert.Equal(t, "refresh", entry.ContextMap()["task"])
	assert.Equal(t, "boom", entry.ContextMap()["panic"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PanicsRecoveredTotal.WithLabelValues("goroutine"))-before)
}

func TestGo_NormalReturn(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	ran := false

	<-Go(zap.New(core), "noop", func() { ran = true })

	assert.True(t, ran)
	assert.Equal(t, 0, logs.Len())
}

func TestGo_NilLogger(t *testing.T) {
	<-Go(nil, "nil-logger", func() { panic(errors.New("boom")) })
}

func TestDo(t *testing.T) {
	err := Do(func() error { panic("bad state") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad state")

	sentinel := errors.New("plain")
	assert.ErrorIs(t, Do(func() error { return sentinel }), sentinel)
	assert.NoError(t, Do(func() error { return nil }))
}
