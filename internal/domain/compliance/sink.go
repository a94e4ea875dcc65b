package compliance

import "context"

// Notification is the payload handed to a NotificationSink.
type Notification struct {
	CompanyID string
	Findings  []Finding
	Summary   Summary
}

// NotificationSink receives evaluation output. Delivery channels are chosen
// by the embedding system; evaluation never sends anything itself.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

// MultiSink fans a notification out to several sinks and returns the first
// error after trying all of them.
type MultiSink []NotificationSink

func (m MultiSink) Notify(ctx context.Context, n Notification) error {
	var first error
	for _, s := range m {
		if err := s.Notify(ctx, n); err != nil && first == nil {
			first = err
		}
	}
	return first
}
