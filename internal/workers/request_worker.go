package workers

import (
	"context"
	"time"
)

// RequestExpirer is implemented by the service request service.
type RequestExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// RequestExpiryWorker expires pending service requests past their deadline.
type RequestExpiryWorker struct {
	requests RequestExpirer
	interval time.Duration
}

func NewRequestExpiryWorker(requests RequestExpirer, interval time.Duration) *RequestExpiryWorker {
	return &RequestExpiryWorker{requests: requests, interval: interval}
}

func (w *RequestExpiryWorker) Name() string            { return "request_expiry" }
func (w *RequestExpiryWorker) Interval() time.Duration { return w.interval }

func (w *RequestExpiryWorker) Run(ctx context.Context) (int64, error) {
	return w.requests.ExpireOverdue(ctx)
}
