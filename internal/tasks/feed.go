package tasks

import "sync"

// Feed fans out appended tasks to live subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type Feed struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
	onDrop func()
}

type Subscription struct {
	feed *Feed
	ch   chan Task
	once sync.Once
}

func NewFeed(buffer int) *Feed {
	if buffer <= 0 {
		buffer = 16
	}
	return &Feed{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// SetDropHook registers fn to run whenever an event is dropped.
func (f *Feed) SetDropHook(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onDrop = fn
}

func (f *Feed) Subscribe() *Subscription {
	sub := &Subscription{feed: f, ch: make(chan Task, f.buffer)}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

func (f *Feed) Publish(text Task) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	delivered := 0
	for sub := range f.subs {
		select {
		case sub.ch <- text:
			delivered++
		default:
			if f.onDrop != nil {
				f.onDrop()
			}
		}
	}
	return delivered
}

func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// C delivers published tasks until Close.
func (s *Subscription) C() <-chan Task {
	return s.ch
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		close(s.ch)
	})
}
