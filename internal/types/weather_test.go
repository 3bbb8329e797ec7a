package types

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeCurrent, m)

	m, err = ParseMode("hourly")
	require.NoError(t, err)
	assert.Equal(t, ModeHourly, m)

	_, err = ParseMode("daily")
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeValidationInvalidMode))
}

func TestGradientCSSClasses(t *testing.T) {
	assert.Equal(t, "from-gray-300 to-gray-500", GradientCloudy.CSSClasses())
	assert.Equal(t, "from-blue-200 to-white", GradientSnow.CSSClasses())
	assert.Equal(t, GradientNeutral.CSSClasses(), Gradient("lava").CSSClasses())
}

type recordingLogger struct {
	messages []string
}

func (m *recordingLogger) Info(msg string, args ...any)  { m.messages = append(m.messages, "info:"+msg) }
func (m *recordingLogger) Error(msg string, args ...any) { m.messages = append(m.messages, "error:"+msg) }
func (m *recordingLogger) Warn(msg string, args ...any)  { m.messages = append(m.messages, "warn:"+msg) }
func (m *recordingLogger) With(args ...any) Logger        { return m }

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Nil(t, LoggerFromContext(ctx))

	logger := &recordingLogger{}
	ctx = WithLogger(WithRequestID(ctx, "req-1"), logger)

	assert.Equal(t, "req-1", GetRequestID(ctx))
	got := LoggerFromContext(ctx)
	require.NotNil(t, got)
	got.Info("hello")
	assert.Equal(t, []string{"info:hello"}, logger.messages)
}
