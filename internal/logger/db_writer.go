package logger

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	common_models "charity-admin/internal/common/models"
	"charity-admin/internal/database"

	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to the worker
type LogEntry struct {
	Level   zapcore.Level
	Message string
	IP      string
	UserID  string
	Caller  string
}

// LogSink persists one log record.
type LogSink interface {
	Insert(ctx context.Context, record common_models.Log) error
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	sink    LogSink
	ready   func() bool
	logChan chan LogEntry
	done    chan struct{}
	once    sync.Once
}

type mongoSink struct {
	db *database.MongodbDB
}

func (s mongoSink) Insert(ctx context.Context, record common_models.Log) error {
	_, err := s.db.DB.Collection("logs").InsertOne(ctx, record)
	return err
}

func NewDBLogWriter(mongodb *database.MongodbDB) *DBLogWriter {
	return newDBLogWriter(mongoSink{db: mongodb}, mongodb.Connected, 1000)
}

func newDBLogWriter(sink LogSink, ready func() bool, buffer int) *DBLogWriter {
	writer := &DBLogWriter{
		sink:    sink,
		ready:   ready,
		logChan: make(chan LogEntry, buffer),
		done:    make(chan struct{}),
	}

	go writer.processLogs()

	return writer
}

// AddLog never blocks; when the buffer is full the entry is dropped.
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		fmt.Fprintln(os.Stderr, "DB log channel full, dropping log:", entry.Message)
	}
}

// Close drains pending entries and stops the worker.
func (w *DBLogWriter) Close() {
	w.once.Do(func() {
		close(w.logChan)
		<-w.done
	})
}

func (w *DBLogWriter) processLogs() {
	defer close(w.done)
	for entry := range w.logChan {
		// Nothing to write to while the database is down.
		if !w.ready() {
			continue
		}

		record := common_models.Log{
			Message:      entry.Message,
			Level:        entry.Level.String(),
			LogLevelId:   mapLevelToInt(entry.Level),
			IpAddress:    entry.IP,
			UserID:       entry.UserID,
			Caller:       entry.Caller,
			CreatedOnUtc: time.Now().UTC(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := w.sink.Insert(ctx, record); err != nil {
			fmt.Fprintln(os.Stderr, "failed to persist log:", err)
		}
		cancel()
	}
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
