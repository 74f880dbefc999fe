// Пакет logging настраивает zerolog для сервера и клиента.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New возвращает корневой логгер сервиса. В dev режиме пишет
// человекочитаемый вывод, иначе JSON.
func New(w io.Writer, service, level string, dev bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if dev {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	}

	return zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// OpenFile открывает файл для логов клиента. Пустой путь
// означает, что логи выбрасываются.
func OpenFile(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{io.Discard}, nil
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
