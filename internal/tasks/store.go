package tasks

import "context"

// Store owns the task list. Implementations serialize Append against List so a
// reader never observes a partial append and concurrent appends never lose an entry.
type Store interface {
	List(ctx context.Context) ([]Task, error)
	Append(ctx context.Context, text string) error
	Mode() string
	Close() error
}
