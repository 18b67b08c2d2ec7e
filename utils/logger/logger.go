// Package logger writes "|object|message" lines through logrus from a single
// background goroutine so decoders never block on the output.
package logger

import (
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

const (
	logSize   = 1000
	objWidth  = 20
	lineFmt   = "|%20s|%-100s"
	timestamp = "2006/01/02 15:04:05"
)

type entry struct {
	lvl logrus.Level
	obj string
	msg string
	ack chan struct{}
}

var (
	logCh    = make(chan entry, logSize)
	initOnce sync.Once
	started  atomic.Bool
)

func objToString(obj any) string {
	switch o := obj.(type) {
	case nil:
		return "NIL"
	case fmt.Stringer:
		return o.String()
	case string:
		return o
	}
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func clip(obj string) string {
	if len(obj) > objWidth {
		return obj[:objWidth]
	}
	return obj
}

// Init sets the level and formatter and starts the writer goroutine. Calls
// after the first only change the level. Lines logged before Init are dropped.
func Init(lvl logrus.Level) {
	logrus.SetLevel(lvl)
	initOnce.Do(func() {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			PadLevelText:    true,
			TimestampFormat: timestamp,
		})
		go func() {
			for e := range logCh {
				if e.ack != nil {
					close(e.ack)
					continue
				}
				logrus.StandardLogger().Log(e.lvl, fmt.Sprintf(lineFmt, clip(e.obj), e.msg))
			}
		}()
		started.Store(true)
	})
}

// SetOutput redirects the log output.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// Flush blocks until every queued line has been written. It is a no-op
// before Init.
func Flush() {
	if !started.Load() {
		return
	}
	ack := make(chan struct{})
	logCh <- entry{ack: ack}
	<-ack
}

func enqueue(lvl logrus.Level, object any, msg string) {
	if !started.Load() || !logrus.IsLevelEnabled(lvl) {
		return
	}
	logCh <- entry{lvl: lvl, obj: objToString(object), msg: msg}
}

func Trace(object any, message string) {
	enqueue(logrus.TraceLevel, object, message)
}

func Tracef(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		enqueue(logrus.TraceLevel, object, fmt.Sprintf(message, args...))
	}
}

func Debug(object any, message string) {
	enqueue(logrus.DebugLevel, object, message)
}

func Debugf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		enqueue(logrus.DebugLevel, object, fmt.Sprintf(message, args...))
	}
}

func Info(object any, message string) {
	enqueue(logrus.InfoLevel, object, message)
}

func Infof(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.InfoLevel) {
		enqueue(logrus.InfoLevel, object, fmt.Sprintf(message, args...))
	}
}

func Warning(object any, message string) {
	enqueue(logrus.WarnLevel, object, message)
}

func Warningf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.WarnLevel) {
		enqueue(logrus.WarnLevel, object, fmt.Sprintf(message, args...))
	}
}

func Error(object any, message string) {
	enqueue(logrus.ErrorLevel, object, message)
}

func Errorf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.ErrorLevel) {
		enqueue(logrus.ErrorLevel, object, fmt.Sprintf(message, args...))
	}
}

// Fatalf flushes the queue and exits through logrus.
func Fatalf(object any, message string, args ...any) {
	Flush()
	logrus.Fatalf(lineFmt, clip(objToString(object)), fmt.Sprintf(message, args...))
}
