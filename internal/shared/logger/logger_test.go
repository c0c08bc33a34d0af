package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"local", "prod"} {
		l, err := New("auraflow", env)
		require.NoError(t, err, env)
		require.NotNil(t, l)
		assert.Equal(t, env == "local", l.Core().Enabled(zapcore.DebugLevel), env)
	}
}
