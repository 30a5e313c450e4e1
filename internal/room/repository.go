package room

import "context"

// Repository is the shared room document store. Every read returns a
// private copy; Update is an atomic read-modify-write on one document.
type Repository interface {
	Create(ctx context.Context, room *Room) error
	Get(ctx context.Context, id string) (*Room, error)
	// Update aborts without writing when fn returns an error.
	Update(ctx context.Context, id string, fn func(room *Room) error) (*Room, error)
	// Delete is best-effort: deleting a missing room is not an error.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]*Room, error)
	// Subscribe pushes the current document immediately and then every
	// committed change, in commit order. A nil value means the room was
	// deleted; the channel is closed afterwards.
	Subscribe(ctx context.Context, id string) (*Subscription, error)
}

type ListFilter struct {
	Visibility Visibility
	JoinCode   string
	Limit      int
}

type Subscription struct {
	C      <-chan *Room
	cancel func()
}

// Cancel stops delivery and closes C. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// CommitHook observes committed documents. room is nil when id was deleted.
type CommitHook func(id string, room *Room)
