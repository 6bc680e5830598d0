package log

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
			logrus.FieldKeyMsg:  "action",
		},
	})
	return l
}

// SetOutput redirects every subsequent line; tests use it to capture output.
func SetOutput(w io.Writer) { logger.SetOutput(w) }

// Writer returns the current sink.
func Writer() io.Writer { return logger.Out }

// SetLevel accepts logrus level names; unknown names keep the current level.
func SetLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
}

func write(level logrus.Level, kind string, c *fiber.Ctx, action string, err error, fields map[string]any) {
	f := logrus.Fields{}
	if kind != "" {
		f["kind"] = kind
	}
	if c != nil {
		f["ip"] = c.IP()
		f["method"] = c.Method()
		f["path"] = c.Path()
		f["status"] = c.Response().StatusCode()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			f["req_id"] = rid
		}
		if uid, ok := c.Locals("user_id").(string); ok && uid != "" {
			f["user_id"] = uid
		}
	}
	if err != nil {
		f["err"] = err.Error()
	}
	if len(fields) > 0 {
		f["fields"] = fields
	}
	logger.WithFields(f).Log(level, action)
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(logrus.InfoLevel, "", c, action, nil, fields)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(logrus.InfoLevel, "audit", c, action, nil, fields)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(logrus.WarnLevel, "security", c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(logrus.ErrorLevel, "", c, action, err, fields)
}

// Warn records a recoverable failure that did not fail the request.
func Warn(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(logrus.WarnLevel, "", c, action, err, fields)
}
