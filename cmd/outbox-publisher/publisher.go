package main

import (
	"context"
	"errors"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// gcpPublisher adapts a Pub/Sub publisher. A failed ordered publish pauses
// its key, so the key is resumed to let the next attempt through.
type gcpPublisher struct {
	handle *gcppubsub.Publisher
}

func newGCPPublisher(handle *gcppubsub.Publisher) publisher {
	if handle == nil {
		return nil
	}
	return &gcpPublisher{handle: handle}
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return &gcpResult{
		result:      p.handle.Publish(ctx, msg),
		handle:      p.handle,
		orderingKey: msg.OrderingKey,
	}
}

type gcpResult struct {
	result      *gcppubsub.PublishResult
	handle      *gcppubsub.Publisher
	orderingKey string
}

func (r *gcpResult) Get(ctx context.Context) (string, error) {
	if r.result == nil {
		return "", errors.New("publish result is nil")
	}
	id, err := r.result.Get(ctx)
	if err != nil && r.orderingKey != "" {
		r.handle.ResumePublish(r.orderingKey)
	}
	return id, err
}
