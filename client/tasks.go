package client

import (
	"context"
	"sync"

	"github.com/equillibrium/synergy406todo/internal/models"
)

// Filter selects which part of the list Filtered returns. It is a pure
// projection; nothing about it is persisted or sent to the server.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// TaskStore mirrors the server-side task list for a UI. Mutations apply
// locally before the network call resolves; on failure the snapshot taken
// beforehand is restored and the server's error message is surfaced.
//
// Each todo carries a monotonic mutation sequence number. A reconciliation
// (success or revert) is discarded when a newer mutation has touched the same
// todo in the meantime, so a slow response cannot resurrect stale state.
type TaskStore struct {
	api *Client

	mu      sync.Mutex
	todos   []models.Todo
	filter  Filter
	lastErr string

	seq map[int]uint64
	// gen invalidates all in-flight per-todo reconciliations; bumped by
	// whole-list operations (Load, ClearCompleted).
	gen uint64
}

func NewTaskStore(api *Client) *TaskStore {
	return &TaskStore{api: api, filter: FilterAll, seq: make(map[int]uint64)}
}

// Load replaces the local list with the server's.
func (s *TaskStore) Load(ctx context.Context) error {
	todos, err := s.api.ListTodos(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return err
	}
	s.todos = todos
	s.seq = make(map[int]uint64)
	s.gen++
	s.lastErr = ""
	return nil
}

// Add creates a todo on the server and prepends the result. Creation is not
// optimistic: the entry needs its server-assigned id before it can be shown.
func (s *TaskStore) Add(ctx context.Context, title, priority string) error {
	todo, err := s.api.CreateTodo(ctx, title, priority)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return err
	}
	s.todos = append([]models.Todo{*todo}, s.todos...)
	s.lastErr = ""
	return nil
}

// Toggle flips the completed flag optimistically.
func (s *TaskStore) Toggle(ctx context.Context, id int) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.todos[idx]
	completed := !snapshot.Completed
	s.todos[idx].Completed = completed
	n, gen := s.bump(id)
	s.mu.Unlock()

	updated, err := s.api.UpdateTodo(ctx, id, models.UpdateTodoRequest{Completed: &completed})
	return s.reconcile(id, n, gen, snapshot, updated, err)
}

// Update applies a partial update optimistically.
func (s *TaskStore) Update(ctx context.Context, id int, upd models.UpdateTodoRequest) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.todos[idx]
	if upd.Title != nil {
		s.todos[idx].Title = *upd.Title
	}
	if upd.Completed != nil {
		s.todos[idx].Completed = *upd.Completed
	}
	if upd.Priority != nil {
		s.todos[idx].Priority = *upd.Priority
	}
	n, gen := s.bump(id)
	s.mu.Unlock()

	updated, err := s.api.UpdateTodo(ctx, id, upd)
	return s.reconcile(id, n, gen, snapshot, updated, err)
}

// Delete removes the todo optimistically and restores it in place on failure.
func (s *TaskStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.todos[idx]
	s.todos = append(s.todos[:idx:idx], s.todos[idx+1:]...)
	n, gen := s.bump(id)
	s.mu.Unlock()

	err := s.api.DeleteTodo(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(id, n, gen) {
		return err
	}
	if err != nil {
		// Put the entry back where it was.
		if idx > len(s.todos) {
			idx = len(s.todos)
		}
		s.todos = append(s.todos[:idx], append([]models.Todo{snapshot}, s.todos[idx:]...)...)
		s.lastErr = err.Error()
		return err
	}
	delete(s.seq, id)
	s.lastErr = ""
	return nil
}

// ClearCompleted removes every completed todo optimistically, restoring the
// full list snapshot on failure.
func (s *TaskStore) ClearCompleted(ctx context.Context) error {
	s.mu.Lock()
	snapshot := make([]models.Todo, len(s.todos))
	copy(snapshot, s.todos)

	remaining := s.todos[:0:0]
	for _, t := range s.todos {
		if !t.Completed {
			remaining = append(remaining, t)
		}
	}
	s.todos = remaining
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	_, err := s.api.DeleteCompleted(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return err
	}
	if err != nil {
		s.todos = snapshot
		s.lastErr = err.Error()
		return err
	}
	s.lastErr = ""
	return nil
}

// Todos returns a copy of the full list.
func (s *TaskStore) Todos() []models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

// Filtered returns the list projected through the current filter.
func (s *TaskStore) Filtered() []models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Todo
	for _, t := range s.todos {
		switch s.filter {
		case FilterActive:
			if !t.Completed {
				out = append(out, t)
			}
		case FilterCompleted:
			if t.Completed {
				out = append(out, t)
			}
		default:
			out = append(out, t)
		}
	}
	return out
}

// SetFilter changes the projection.
func (s *TaskStore) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// Counts returns total, active and completed counts of the local list.
func (s *TaskStore) Counts() (total, active, completed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.todos {
		if t.Completed {
			completed++
		} else {
			active++
		}
	}
	return len(s.todos), active, completed
}

// Err returns the last mutation error message, if any.
func (s *TaskStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// reconcile commits the server's representation or reverts to the snapshot,
// unless a newer mutation made this outcome stale.
func (s *TaskStore) reconcile(id int, n, gen uint64, snapshot models.Todo, updated *models.Todo, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(id, n, gen) {
		return err
	}

	idx := s.indexOf(id)
	if err != nil {
		if idx >= 0 {
			s.todos[idx] = snapshot
		}
		s.lastErr = err.Error()
		return err
	}
	if idx >= 0 && updated != nil {
		s.todos[idx] = *updated
	}
	s.lastErr = ""
	return nil
}

// bump advances the todo's mutation sequence. Callers hold s.mu.
func (s *TaskStore) bump(id int) (seq, gen uint64) {
	s.seq[id]++
	return s.seq[id], s.gen
}

// stale reports whether a reconciliation for (id, n, gen) has been overtaken
// by a newer mutation. Callers hold s.mu.
func (s *TaskStore) stale(id int, n, gen uint64) bool {
	return s.gen != gen || s.seq[id] != n
}

// indexOf returns the position of id in the local list. Callers hold s.mu.
func (s *TaskStore) indexOf(id int) int {
	for i, t := range s.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}
