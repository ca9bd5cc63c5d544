package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"taskflow-api/domain"
)

// QueuePublisher announces change events on an Azure Storage queue so
// downstream consumers (exports, reminders) can react to mutations.
type QueuePublisher struct {
	queue *azqueue.QueueClient
}

// NewQueuePublisher creates a publisher for the named queue.
func NewQueuePublisher(connStr, queueName string) (*QueuePublisher, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &opts)
	if err != nil {
		return nil, err
	}
	return &QueuePublisher{queue: q}, nil
}

func (p *QueuePublisher) Publish(ctx context.Context, ev domain.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.queue.EnqueueMessage(ctx, string(data), nil)
	return err
}

// NopPublisher discards change events. It is used when no queue is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.ChangeEvent) error { return nil }
