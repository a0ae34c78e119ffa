package download

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// progressWriter logs transfer progress at most once per second.
// transferred starts at the resume offset when appending to a partial
// file; total is the full expected size including that offset, or -1
// when the server did not say.
type progressWriter struct {
	w           io.Writer
	logger      *slog.Logger
	transferred int64
	total       int64
	startTime   time.Time
	lastLog     time.Time
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.transferred += int64(n)

	switch {
	case pw.total >= 0 && pw.transferred == pw.total:
		pw.log("download complete")
	case time.Since(pw.lastLog) >= time.Second:
		pw.lastLog = time.Now()
		pw.log("downloading")
	}

	return n, err
}

// log emits the progress record. Percentage is omitted when the total
// is unknown, and the rate when no measurable time has elapsed.
func (pw *progressWriter) log(msg string) {
	elapsed := time.Since(pw.startTime)

	attrs := []any{
		"transferred", pw.transferred,
		"elapsed", elapsed.Round(time.Millisecond).String(),
	}

	if pw.total > 0 {
		attrs = append(attrs,
			"total", pw.total,
			"progress", fmt.Sprintf("%.1f%%", float64(pw.transferred)/float64(pw.total)*100),
		)
	}

	if secs := elapsed.Seconds(); secs > 0 {
		attrs = append(attrs, "rate", fmt.Sprintf("%.2f MB/s", float64(pw.transferred)/secs/(1024*1024)))
	}

	pw.logger.Info(msg, attrs...)
}
