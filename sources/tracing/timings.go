package tracing

import (
	"time"
)

func ReportExecutionForR[R any](log *Logger, action func() R, report func(l *Logger)) R {
	start, result := time.Now(), action()
	report(log.With(ExecutionTime, time.Since(start).String()))
	return result
}

func ReportExecutionForRIn[R any](log *Logger, action func() R, report func(l *Logger, result R)) R {
	start := time.Now()
	result := action()
	report(log.With(ExecutionTime, time.Since(start).String()), result)
	return result
}
