package logger

import (
	"context"
	"sync"
	"testing"

	common_models "charity-admin/internal/common/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type memorySink struct {
	mu      sync.Mutex
	records []common_models.Log
}

func (s *memorySink) Insert(ctx context.Context, record common_models.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func TestDBCorePersistsWarningsOnly(t *testing.T) {
	sink := &memorySink{}
	writer := newDBLogWriter(sink, func() bool { return true }, 10)

	core := NewDBCore(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(discard{}),
		zapcore.DebugLevel,
	), writer)

	log := zap.New(core, zap.AddCaller())
	log.Info("member created")
	log.Warn("vehicle registration expiring", zap.String("userId", "u1"), zap.String("ip", "10.0.0.1"))
	log.Error("payment sync failed")

	writer.Close()

	if len(sink.records) != 2 {
		t.Fatalf("expected 2 persisted records, got %d", len(sink.records))
	}
	first := sink.records[0]
	if first.Message != "vehicle registration expiring" || first.LogLevelId != 30 {
		t.Errorf("unexpected first record %+v", first)
	}
	if first.UserID != "u1" || first.IpAddress != "10.0.0.1" {
		t.Errorf("context fields not captured: %+v", first)
	}
	if sink.records[1].LogLevelId != 40 {
		t.Errorf("unexpected level id %d", sink.records[1].LogLevelId)
	}
}

func TestDBLogWriterSkipsWhileDisconnected(t *testing.T) {
	sink := &memorySink{}
	writer := newDBLogWriter(sink, func() bool { return false }, 10)

	writer.AddLog(LogEntry{Level: zapcore.ErrorLevel, Message: "db down"})
	writer.Close()

	if len(sink.records) != 0 {
		t.Fatalf("expected nothing persisted while disconnected, got %d", len(sink.records))
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
