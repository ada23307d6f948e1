package appender_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/slackmgr/appenders/appender"
	"github.com/slackmgr/appenders/internal/logtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type write struct {
	event   string
	payload string
}

// fakeWriter records lifecycle calls and payloads.
type fakeWriter struct {
	mu       sync.Mutex
	starts   int
	stops    int
	writes   []write
	startErr error
	writeErr error
}

func (w *fakeWriter) Start(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.starts++

	return w.startErr
}

func (w *fakeWriter) Stop(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stops++

	return nil
}

func (w *fakeWriter) Write(_ context.Context, event string, payload string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writeErr != nil {
		return w.writeErr
	}

	w.writes = append(w.writes, write{event: event, payload: payload})

	return nil
}

type upperEncoder struct {
	err error
}

func (e upperEncoder) Encode(event string) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}

	return []byte(strings.ToUpper(event)), nil
}

func newTestAppender(w *fakeWriter, opts ...appender.Option[string]) (*appender.Appender[string], *logtest.Recorder) {
	logger := logtest.New()
	opts = append([]appender.Option[string]{appender.WithEncoder[string](upperEncoder{})}, opts...)

	return appender.New("test", w, logger, opts...), logger
}

func TestStart_RequiresEncoder(t *testing.T) {
	t.Parallel()

	a := appender.New[string]("test", &fakeWriter{}, logtest.New())

	err := a.Start(context.Background())

	require.ErrorIs(t, err, appender.ErrNoEncoder)
	assert.False(t, a.IsStarted())
}

func TestStart_IsIdempotent(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	a, _ := newTestAppender(w)

	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Start(context.Background()))

	assert.True(t, a.IsStarted())
	assert.Equal(t, 1, w.starts)
}

func TestStart_WriterFailureLeavesAppenderStopped(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{startErr: errors.New("no credentials")}
	a, _ := newTestAppender(w)

	err := a.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start appender 'test'")
	assert.Contains(t, err.Error(), "no credentials")
	assert.False(t, a.IsStarted())

	// Stop after a failed start must not reach the writer.
	require.NoError(t, a.Stop(context.Background()))
	assert.Equal(t, 0, w.stops)
}

func TestStart_NegativeMaxPayloadSize(t *testing.T) {
	t.Parallel()

	a, _ := newTestAppender(&fakeWriter{}, appender.WithMaxPayloadSize[string](-1))

	require.Error(t, a.Start(context.Background()))
}

func TestStart_InvalidCharset(t *testing.T) {
	t.Parallel()

	a, _ := newTestAppender(&fakeWriter{}, appender.WithConverter[string](appender.StringConverter{Charset: "no-such-charset"}))

	err := a.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid converter")
}

func TestStop_WithoutStartIsNoop(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	a, _ := newTestAppender(w)

	require.NoError(t, a.Stop(context.Background()))
	assert.Equal(t, 0, w.stops)
}

func TestStop_Twice(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	a, _ := newTestAppender(w)

	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Stop(context.Background()))
	require.NoError(t, a.Stop(context.Background()))

	assert.Equal(t, 1, w.stops)
	assert.False(t, a.IsStarted())
}

func TestAppend_NotStarted(t *testing.T) {
	t.Parallel()

	a, _ := newTestAppender(&fakeWriter{})

	err := a.Append(context.Background(), "hello")

	require.ErrorIs(t, err, appender.ErrNotStarted)
}

func TestAppend_EncodesAndWrites(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	a, _ := newTestAppender(w)
	require.NoError(t, a.Start(context.Background()))

	require.NoError(t, a.Append(context.Background(), "hello"))

	require.Len(t, w.writes, 1)
	assert.Equal(t, write{event: "hello", payload: "HELLO"}, w.writes[0])
	assert.Equal(t, appender.Stats{Appended: 1}, a.Stats())
}

func TestAppend_DropsOversizedPayload(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	a, logger := newTestAppender(w, appender.WithMaxPayloadSize[string](4))
	require.NoError(t, a.Start(context.Background()))

	err := a.Append(context.Background(), "hello")

	require.ErrorIs(t, err, appender.ErrPayloadTooLarge)
	assert.Empty(t, w.writes)
	assert.Equal(t, uint64(1), a.Stats().Dropped)
	assert.Equal(t, 1, logger.Count("error", "exceeding the maximum payload size of 4 bytes"))

	require.NoError(t, a.Append(context.Background(), "hey"))
	assert.Len(t, w.writes, 1)
}

func TestAppend_EncodingFailure(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	a, logger := newTestAppender(w, appender.WithEncoder[string](upperEncoder{err: errors.New("boom")}))
	require.NoError(t, a.Start(context.Background()))

	err := a.Append(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Empty(t, w.writes)
	assert.Equal(t, 1, logger.Count("error", "failed to encode"))
}

func TestAppend_SubmissionFailureIsReturned(t *testing.T) {
	t.Parallel()

	submitErr := errors.New("client closed")
	w := &fakeWriter{writeErr: submitErr}
	a, _ := newTestAppender(w)
	require.NoError(t, a.Start(context.Background()))

	err := a.Append(context.Background(), "hello")

	require.ErrorIs(t, err, submitErr)
	assert.Equal(t, appender.Stats{Appended: 1, Dropped: 1}, a.Stats())
}

func TestSetDefaultEncoder_KeepsExplicitEncoder(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	a, _ := newTestAppender(w)
	a.SetDefaultEncoder(upperEncoder{err: errors.New("should not be used")})
	require.NoError(t, a.Start(context.Background()))

	require.NoError(t, a.Append(context.Background(), "x"))
}

func TestSetDefaultEncoder_InstallsWhenMissing(t *testing.T) {
	t.Parallel()

	w := &fakeWriter{}
	a := appender.New[string]("test", w, logtest.New())
	a.SetDefaultEncoder(upperEncoder{})

	require.NoError(t, a.Start(context.Background()))
	require.NoError(t, a.Append(context.Background(), "x"))
	assert.Equal(t, "X", w.writes[0].payload)
}

func TestNew_NilLoggerFallsBack(t *testing.T) {
	t.Parallel()

	a := appender.New[string]("test", &fakeWriter{}, nil)

	assert.NotNil(t, a.Logger())
	assert.Equal(t, "test", a.Name())
}
