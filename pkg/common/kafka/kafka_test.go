package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zyntel-ai/labops/pkg/common/models"
)

type fakeReader struct {
	messages  []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.messages) == 0 {
		f.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.messages[0]
	f.messages = f.messages[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

type fakeWriter struct {
	messages []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func eventBytes(t *testing.T, dataset string) []byte {
	b, err := json.Marshal(models.DatasetEvent{ID: dataset + "-1", Type: models.DatasetImported, Dataset: dataset})
	require.NoError(t, err)
	return b
}

func TestConsumeCommitsHandledAndMalformed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &fakeReader{
		cancel: cancel,
		messages: []kafka.Message{
			{Offset: 1, Value: eventBytes(t, "tat")},
			{Offset: 2, Value: []byte("{not json")},
			{Offset: 3, Value: eventBytes(t, "broken")},
			{Offset: 4, Value: eventBytes(t, "revenue")},
		},
	}

	var seen []string
	err := NewConsumerWithReader(reader).Consume(ctx, func(_ context.Context, ev models.DatasetEvent) error {
		if ev.Dataset == "broken" {
			return errors.New("boom")
		}
		seen = append(seen, ev.Dataset)
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"tat", "revenue"}, seen)
	// failed handler leaves offset 3 uncommitted
	assert.Equal(t, []int64{1, 2, 4}, reader.committed)
}

func TestPublishDatasetEvent(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "lab.datasets")
	require.NoError(t, p.PublishDatasetEvent(context.Background(), models.DatasetRefresh, "numbers", "dashboard-service"))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "numbers", string(w.messages[0].Key))

	var ev models.DatasetEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &ev))
	assert.Equal(t, "numbers", ev.Dataset)
	assert.Equal(t, models.DatasetRefresh, ev.Type)
	assert.NotEmpty(t, ev.ID)
}
