package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"storefront-api/internal/config"
	"storefront-api/internal/observability"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaNotifierPublishesJSON(t *testing.T) {
	writer := &recordingWriter{}
	notifier := newKafkaNotifier(writer)
	notifier.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, notifier.Send(context.Background(), Message{To: "a@x.com", Subject: "Hi", Body: "Body"}))
	require.Len(t, writer.messages, 1)
	assert.Equal(t, "a@x.com", string(writer.messages[0].Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &decoded))
	assert.Equal(t, "Hi", decoded["subject"])
	assert.Equal(t, "2025-01-02T03:04:05Z", decoded["queued_at"])

	require.NoError(t, notifier.Close())
	assert.True(t, writer.closed)
}

func TestKafkaNotifierWrapsErrors(t *testing.T) {
	writer := &recordingWriter{err: errors.New("broker down")}
	err := newKafkaNotifier(writer).Send(context.Background(), Message{To: "a@x.com"})
	assert.ErrorContains(t, err, "publish notification")
}

func TestNewKafkaNotifierValidates(t *testing.T) {
	_, err := NewKafkaNotifier(nil, "topic")
	assert.Error(t, err)
	_, err = NewKafkaNotifier([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	notifier, err := NewKafkaNotifier([]string{"localhost:9092"}, "topic")
	require.NoError(t, err)
	assert.NoError(t, notifier.Close())
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	notifier := NewLogNotifier(observability.NewLoggerFromZap(zap.New(core)))

	require.NoError(t, notifier.Send(context.Background(), Message{To: "a@x.com", Subject: "Hi", Body: "secret body"}))

	entries := logs.FilterMessage("notification").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "a@x.com", fields["to"])
	assert.NotContains(t, fields, "body")
}

func TestBuildMessage(t *testing.T) {
	m, err := buildMessage("shop@x.com", Message{To: "a@x.com", Subject: "Devis reçu", Body: "line1\nline2"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "<shop@x.com>")
	assert.Contains(t, raw, "<a@x.com>")
	assert.Contains(t, raw, "Subject: =?")
	assert.NotContains(t, raw, "Devis reçu")
	assert.Contains(t, raw, "line1")
	assert.Contains(t, raw, "line2")
}

func TestBuildMessageRejectsHeaderInjection(t *testing.T) {
	_, err := buildMessage("shop@x.com", Message{To: "a@x.com\r\nBcc: evil@x.com", Subject: "hi"})
	assert.Error(t, err)

	_, err = buildMessage("shop@x.com", Message{To: "  "})
	assert.Error(t, err)

	m, err := buildMessage("shop@x.com", Message{To: "a@x.com", Subject: "hi\r\nBcc: evil@x.com"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "\r\nBcc:")
	assert.NotContains(t, buf.String(), "\nBcc:")
}

func TestNewSMTPNotifierValidates(t *testing.T) {
	_, err := NewSMTPNotifier(config.MailConfig{Username: "shop@x.com"})
	assert.Error(t, err)

	_, err = NewSMTPNotifier(config.MailConfig{Server: "smtp.x.com", DefaultSender: "not an address"})
	assert.Error(t, err)

	n, err := NewSMTPNotifier(config.MailConfig{Server: "smtp.x.com", DefaultSender: "Shop <shop@x.com>"})
	require.NoError(t, err)
	assert.Equal(t, "Shop <shop@x.com>", n.from)
}

func TestNewSelectsDriver(t *testing.T) {
	logger := observability.NopLogger()

	n, err := New(config.NotifyConfig{Driver: "log"}, config.MailConfig{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	n, err = New(config.NotifyConfig{Driver: "smtp"}, config.MailConfig{Server: "smtp.x.com", Port: 587, Username: "shop@x.com"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &SMTPNotifier{}, n)

	_, err = New(config.NotifyConfig{Driver: "smtp"}, config.MailConfig{Server: "smtp.x.com"}, logger)
	assert.Error(t, err)

	n, err = New(config.NotifyConfig{Driver: "kafka", KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "t"}, config.MailConfig{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &KafkaNotifier{}, n)

	_, err = New(config.NotifyConfig{Driver: "pigeon"}, config.MailConfig{}, logger)
	assert.Error(t, err)
}
