package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"work-allocation/internal/apperr"
	"work-allocation/internal/events"
	"work-allocation/internal/metrics"

	"github.com/sirupsen/logrus"
)

// newLogger возвращает логгер сервиса по умолчанию
func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

// storeErr переводит ошибку хранилища в категорию apperr и добавляет контекст
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, apperr.FromStore(err))
}

type field struct {
	name  string
	value string
}

// missing возвращает имена пустых обязательных полей в порядке перечисления
func missing(fields ...field) []string {
	var names []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			names = append(names, f.name)
		}
	}
	return names
}

// broadcaster публикует события после коммита. Доставка best-effort:
// ошибка транспорта логируется и не отменяет уже сохранённое изменение.
type broadcaster struct {
	publisher events.Publisher
	room      string
	logger    *logrus.Logger
}

func (b broadcaster) emit(ctx context.Context, name string, payload any) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Publish(ctx, b.room, name, payload); err != nil {
		b.logger.WithError(err).WithFields(logrus.Fields{
			"room":  b.room,
			"event": name,
		}).Error("Failed to publish event")
	}
}

type options struct {
	room    string
	now     func() time.Time
	metrics *metrics.Recorder
	logger  *logrus.Logger
}

// Option настраивает сервисы пакета
type Option func(*options)

// WithRoom задаёт комнату, в которую публикуются события
func WithRoom(room string) Option {
	return func(o *options) {
		if room != "" {
			o.room = room
		}
	}
}

// WithClock подменяет источник времени создания планов
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithMetrics(rec *metrics.Recorder) Option {
	return func(o *options) { o.metrics = rec }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		room: events.DefaultRoom,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = newLogger()
	}
	return o
}

func (o options) broadcaster(publisher events.Publisher) broadcaster {
	if publisher == nil {
		publisher = events.Nop
	}
	return broadcaster{publisher: publisher, room: o.room, logger: o.logger}
}

// observe записывает длительность и исход операции
func observe(rec *metrics.Recorder, op string, started time.Time, err *error) {
	rec.ObserveOperation(op, started, *err)
}
