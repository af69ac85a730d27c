package events

import (
	"context"
	"errors"
)

// MultiPublisher fans events out to several publishers.
type MultiPublisher struct {
	Publishers []Publisher
}

// NewMultiPublisher skips nil publishers.
func NewMultiPublisher(pubs ...Publisher) *MultiPublisher {
	m := &MultiPublisher{}
	for _, p := range pubs {
		if p != nil {
			m.Publishers = append(m.Publishers, p)
		}
	}
	return m
}

// Publish forwards the event to every publisher. A failing publisher does not
// stop delivery to the others; all errors are joined.
func (m *MultiPublisher) Publish(ctx context.Context, room, name string, payload any) error {
	var errs []error
	for _, p := range m.Publishers {
		if err := p.Publish(ctx, room, name, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
