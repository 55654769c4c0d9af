package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func timeInPast() time.Time {
	return time.Now().Add(-time.Second)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}

func TestGormLogger_TraceErrors(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), MapGormLogLevel("error"))
	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "r-9")

	gl.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT * FROM characters", 0 }, gormlogger.ErrRecordNotFound)
	assert.Empty(t, recorded.All())

	gl.Trace(ctx, time.Now(), func() (string, int64) { return "INSERT INTO items", 0 }, errors.New("duplicate key"))
	entry := findEntry(recorded.All(), "SQL Error")
	require.NotNil(t, entry)
	assert.Equal(t, "r-9", entry.ContextMap()["request_id"])
	assert.Equal(t, "duplicate key", entry.ContextMap()["error"])
}
