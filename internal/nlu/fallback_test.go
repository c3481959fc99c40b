package nlu

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/whattoeat-linebot/internal/errors"
	"github.com/garyellow/whattoeat-linebot/internal/metrics"
)

// mockClassifier is a test mock for the Classifier interface
type mockClassifier struct {
	classifyFunc func(ctx context.Context, q Query) (*Result, error)
	provider     Provider
	calls        atomic.Int32
	closeCalled  bool
}

func (m *mockClassifier) Classify(ctx context.Context, q Query) (*Result, error) {
	m.calls.Add(1)
	if m.classifyFunc != nil {
		return m.classifyFunc(ctx, q)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClassifier) Provider() Provider {
	return m.provider
}

func (m *mockClassifier) Close() error {
	m.closeCalled = true
	return nil
}

func succeed(name string, p Provider) func(context.Context, Query) (*Result, error) {
	return func(context.Context, Query) (*Result, error) {
		return &Result{Name: name, Provider: p}, nil
	}
}

func fail(err error) func(context.Context, Query) (*Result, error) {
	return func(context.Context, Query) (*Result, error) {
		return nil, err
	}
}

var fastRetry = RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestFallbackClassifier_PrimarySuccess(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	primary := &mockClassifier{provider: ProviderDialogflow, classifyFunc: succeed(IntentNameWhatToEat, ProviderDialogflow)}
	secondary := &mockClassifier{provider: ProviderGemini}

	f := NewFallbackClassifier(fastRetry, m, primary, secondary)
	result, err := f.Classify(context.Background(), Query{Text: "餓了"})

	require.NoError(t, err)
	assert.Equal(t, IntentNameWhatToEat, result.Name)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(0), secondary.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NLUClassificationsTotal.WithLabelValues("dialogflow", IntentNameWhatToEat)))
}

func TestFallbackClassifier_RetriesTransientError(t *testing.T) {
	t.Parallel()

	var n atomic.Int32
	primary := &mockClassifier{
		provider: ProviderDialogflow,
		classifyFunc: func(context.Context, Query) (*Result, error) {
			if n.Add(1) == 1 {
				return nil, domerrors.NewAPIError("dialogflow", "/query", http.StatusServiceUnavailable, errors.New("unavailable"))
			}
			return &Result{Name: IntentNameGoodbye, Provider: ProviderDialogflow}, nil
		},
	}

	f := NewFallbackClassifier(fastRetry, nil, primary)
	result, err := f.Classify(context.Background(), Query{Text: "bye"})

	require.NoError(t, err)
	assert.Equal(t, IntentNameGoodbye, result.Name)
	assert.Equal(t, int32(2), primary.calls.Load())
}

func TestFallbackClassifier_FallsBackOnClientError(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	primary := &mockClassifier{
		provider:     ProviderDialogflow,
		classifyFunc: fail(domerrors.NewAPIError("dialogflow", "/query", http.StatusUnauthorized, errors.New("bad token"))),
	}
	secondary := &mockClassifier{provider: ProviderGroq, classifyFunc: succeed(IntentNameWelcome, ProviderGroq)}

	f := NewFallbackClassifier(fastRetry, m, primary, secondary)
	result, err := f.Classify(context.Background(), Query{Text: "hi"})

	require.NoError(t, err)
	assert.Equal(t, ProviderGroq, result.Provider)
	assert.Equal(t, int32(1), primary.calls.Load(), "4xx is not retried")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NLUFallbackTotal.WithLabelValues("dialogflow", "groq")))
}

func TestFallbackClassifier_AllFail(t *testing.T) {
	t.Parallel()

	primary := &mockClassifier{provider: ProviderDialogflow, classifyFunc: fail(errors.New("503 unavailable"))}
	secondary := &mockClassifier{provider: ProviderGemini, classifyFunc: fail(errors.New("quota exceeded"))}

	f := NewFallbackClassifier(fastRetry, nil, primary, secondary)
	_, err := f.Classify(context.Background(), Query{Text: "hi"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialogflow")
	assert.Contains(t, err.Error(), "gemini")
	assert.Equal(t, int32(2), primary.calls.Load())
	assert.Equal(t, int32(1), secondary.calls.Load())
}

func TestFallbackClassifier_StopsOnInvalidInput(t *testing.T) {
	t.Parallel()

	primary := &mockClassifier{provider: ProviderDialogflow, classifyFunc: fail(domerrors.ErrInvalidInput)}
	secondary := &mockClassifier{provider: ProviderGemini, classifyFunc: succeed(IntentNameWelcome, ProviderGemini)}

	f := NewFallbackClassifier(fastRetry, nil, primary, secondary)
	_, err := f.Classify(context.Background(), Query{})

	require.ErrorIs(t, err, domerrors.ErrInvalidInput)
	assert.Equal(t, int32(0), secondary.calls.Load())
}

func TestFallbackClassifier_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &mockClassifier{
		provider: ProviderDialogflow,
		classifyFunc: func(ctx context.Context, _ Query) (*Result, error) {
			return nil, ctx.Err()
		},
	}
	secondary := &mockClassifier{provider: ProviderGemini, classifyFunc: succeed(IntentNameWelcome, ProviderGemini)}

	f := NewFallbackClassifier(fastRetry, nil, primary, secondary)
	_, err := f.Classify(ctx, Query{Text: "hi"})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), secondary.calls.Load())
}

func TestFallbackClassifier_Empty(t *testing.T) {
	t.Parallel()

	var f *FallbackClassifier
	_, err := f.Classify(context.Background(), Query{Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, Provider(""), f.Provider())
	assert.NoError(t, f.Close())
}

func TestFallbackClassifier_Close(t *testing.T) {
	t.Parallel()

	a := &mockClassifier{provider: ProviderDialogflow}
	b := &mockClassifier{provider: ProviderGroq}
	f := NewFallbackClassifier(fastRetry, nil, a, b)

	require.NoError(t, f.Close())
	assert.True(t, a.closeCalled)
	assert.True(t, b.closeCalled)
	assert.Equal(t, ProviderDialogflow, f.Provider())
	assert.Equal(t, 2, f.Len())
}
