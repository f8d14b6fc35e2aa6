package logger

import (
	"context"
	"sync"
	"testing"

	common_models "go-travel/internal/common/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockLogSink struct {
	mu      sync.Mutex
	Records []common_models.Log
}

func (m *MockLogSink) Insert(ctx context.Context, record common_models.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, record)
	return nil
}

func TestDBCoreMirrorsEntries(t *testing.T) {
	base, observed := observer.New(zapcore.InfoLevel)
	sink := &MockLogSink{}
	writer := NewDBLogWriter(sink, "go-travel-test")

	log := zap.New(NewDBCore(base, writer)).With(zap.String("component", "workflow"))
	log.Info("decision committed", zap.String("application_id", "app-1"))
	log.Debug("below level, not mirrored")

	writer.Close()

	require.Equal(t, 1, observed.Len())
	require.Len(t, sink.Records, 1)

	record := sink.Records[0]
	assert.Equal(t, "go-travel-test", record.AppID)
	assert.Equal(t, 20, record.Level)
	assert.Equal(t, "decision committed", record.Message)
	assert.Equal(t, "workflow", record.Fields["component"])
	assert.Equal(t, "app-1", record.Fields["application_id"])
}

func TestAddLogDropsWhenClosedBufferFull(t *testing.T) {
	writer := &DBLogWriter{logChan: make(chan LogEntry), done: make(chan struct{})}
	// unbuffered channel with no reader: must not block
	writer.AddLog(LogEntry{Message: "dropped"})
}
