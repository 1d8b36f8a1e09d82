package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore wraps an existing core and forwards warn-and-above entries to the DB writer.
type DBCore struct {
	zapcore.Core
	writer *DBLogWriter
}

func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter) zapcore.Core {
	return &DBCore{
		Core:   baseCore,
		writer: writer,
	}
}

func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	return &DBCore{
		Core:   c.Core.With(fields),
		writer: c.writer,
	}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= zapcore.WarnLevel {
		var ip, userID string
		for _, f := range fields {
			switch f.Key {
			case "ip":
				ip = f.String
			case "userId":
				userID = f.String
			}
		}

		// Function name is only present because the logger is built with AddCaller.
		c.writer.AddLog(LogEntry{
			Level:   entry.Level,
			Message: entry.Message,
			IP:      ip,
			UserID:  userID,
			Caller:  entry.Caller.Function,
		})
	}

	return c.Core.Write(entry, fields)
}

func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
