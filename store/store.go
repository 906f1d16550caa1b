// Package store owns the canonical task collection per account and
// applies all mutations to it. Every mutation is a full
// read-modify-write of the durable collection under a per-account
// lock, so interleaved calls cannot lose updates; a failed write
// leaves the durable copy untouched and surfaces a PersistenceError.
package store

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"vibelist-api/domain"
	"vibelist-api/storage"
)

// Store applies task mutations scoped to one account per call.
type Store struct {
	kv     storage.KV
	logger *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// Injectable for tests.
	now       func() time.Time
	newID     func() string
	pickColor func() int
}

// New creates a Store over the given persistence adapter.
func New(kv storage.KV, logger *log.Logger) *Store {
	if kv == nil {
		panic("store.New: kv is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{
		kv:        kv,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
		now:       time.Now,
		newID:     uuid.NewString,
		pickColor: func() int { return rand.Intn(len(domain.ColorPalette)) },
	}
}

// lock returns the mutex serializing mutations for one account.
func (s *Store) lock(email string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[email]
	if !ok {
		l = &sync.Mutex{}
		s.locks[email] = l
	}
	return l
}

func (s *Store) load(ctx context.Context, email string) ([]domain.Task, error) {
	tasks := []domain.Task{}
	if _, err := s.kv.Get(ctx, storage.TasksKey(email), &tasks); err != nil {
		return nil, domain.PersistenceError{Op: "read tasks", Err: err}
	}
	return tasks, nil
}

func (s *Store) persist(ctx context.Context, email string, tasks []domain.Task) error {
	if err := s.kv.Set(ctx, storage.TasksKey(email), tasks); err != nil {
		s.logger.WithFields(log.Fields{"email": email, "error": err}).Error("task write failed")
		return domain.PersistenceError{Op: "write tasks", Err: err}
	}
	return nil
}

// Load reads the account's collection. An absent key is a valid
// initial state and yields an empty slice.
func (s *Store) Load(ctx context.Context, sess domain.Session) ([]domain.Task, error) {
	return s.load(ctx, sess.Email)
}

// Create validates the draft, assigns id and metadata, prepends the
// task and persists the full collection.
func (s *Store) Create(ctx context.Context, sess domain.Session, draft domain.Draft) (domain.Task, error) {
	task := domain.Task{
		Text:     strings.TrimSpace(draft.Text),
		Priority: draft.Priority,
		Category: draft.Category,
		DueDate:  draft.DueDate,
		Notes:    draft.Notes,
	}
	if task.Text == "" {
		return domain.Task{}, domain.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if task.Priority == "" {
		task.Priority = domain.DefaultPriority
	} else if !domain.ValidPriority(task.Priority) {
		return domain.Task{}, domain.ValidationError{Field: "priority", Reason: "must be low, medium or high"}
	}
	if task.Category == "" {
		task.Category = domain.Categories[0]
	} else if !domain.ValidCategory(task.Category) {
		return domain.Task{}, domain.ValidationError{Field: "category", Reason: "unknown category"}
	}
	if err := validateDueDate(task.DueDate); err != nil {
		return domain.Task{}, err
	}

	l := s.lock(sess.Email)
	l.Lock()
	defer l.Unlock()

	tasks, err := s.load(ctx, sess.Email)
	if err != nil {
		return domain.Task{}, err
	}

	task.ID = s.newID()
	task.CreatedAt = s.now().UnixMilli()
	task.ColorTag = s.pickColor()

	next := append([]domain.Task{task}, tasks...)
	if err := s.persist(ctx, sess.Email, next); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// Update merges patch fields onto the task identified by id. A patch
// that would leave the text empty is rejected without mutating state.
func (s *Store) Update(ctx context.Context, sess domain.Session, id string, patch domain.Patch) (domain.Task, error) {
	if err := validatePatch(patch); err != nil {
		return domain.Task{}, err
	}

	l := s.lock(sess.Email)
	l.Lock()
	defer l.Unlock()

	tasks, err := s.load(ctx, sess.Email)
	if err != nil {
		return domain.Task{}, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}

	updated := applyPatch(tasks[i], patch)
	tasks[i] = updated
	if err := s.persist(ctx, sess.Email, tasks); err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

// ToggleDone flips the task's done flag. Toggling twice returns the
// task to its original state.
func (s *Store) ToggleDone(ctx context.Context, sess domain.Session, id string) (domain.Task, error) {
	l := s.lock(sess.Email)
	l.Lock()
	defer l.Unlock()

	tasks, err := s.load(ctx, sess.Email)
	if err != nil {
		return domain.Task{}, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}

	tasks[i].Done = !tasks[i].Done
	if err := s.persist(ctx, sess.Email, tasks); err != nil {
		return domain.Task{}, err
	}
	return tasks[i], nil
}

// Delete removes exactly one task and persists the remainder.
func (s *Store) Delete(ctx context.Context, sess domain.Session, id string) error {
	l := s.lock(sess.Email)
	l.Lock()
	defer l.Unlock()

	tasks, err := s.load(ctx, sess.Email)
	if err != nil {
		return err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return domain.ErrTaskNotFound
	}

	next := append(tasks[:i:i], tasks[i+1:]...)
	return s.persist(ctx, sess.Email, next)
}

// ClearCompleted removes every done task and reports how many were
// removed. Nothing is written when the count is zero.
func (s *Store) ClearCompleted(ctx context.Context, sess domain.Session) (int, error) {
	l := s.lock(sess.Email)
	l.Lock()
	defer l.Unlock()

	tasks, err := s.load(ctx, sess.Email)
	if err != nil {
		return 0, err
	}

	remaining := tasks[:0:0]
	for _, t := range tasks {
		if !t.Done {
			remaining = append(remaining, t)
		}
	}
	removed := len(tasks) - len(remaining)
	if removed == 0 {
		return 0, nil
	}
	if err := s.persist(ctx, sess.Email, remaining); err != nil {
		return 0, err
	}
	return removed, nil
}

func indexOf(tasks []domain.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func validatePatch(patch domain.Patch) error {
	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		return domain.ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if patch.Priority != nil && !domain.ValidPriority(*patch.Priority) {
		return domain.ValidationError{Field: "priority", Reason: "must be low, medium or high"}
	}
	if patch.Category != nil && !domain.ValidCategory(*patch.Category) {
		return domain.ValidationError{Field: "category", Reason: "unknown category"}
	}
	if patch.DueDate != nil {
		if err := validateDueDate(*patch.DueDate); err != nil {
			return err
		}
	}
	return nil
}

func validateDueDate(d string) error {
	if d == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", d); err != nil {
		return domain.ValidationError{Field: "dueDate", Reason: "must be an ISO date (YYYY-MM-DD)"}
	}
	return nil
}

func applyPatch(task domain.Task, patch domain.Patch) domain.Task {
	if patch.Text != nil {
		task.Text = strings.TrimSpace(*patch.Text)
	}
	if patch.Done != nil {
		task.Done = *patch.Done
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Category != nil {
		task.Category = *patch.Category
	}
	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}
	if patch.Notes != nil {
		task.Notes = *patch.Notes
	}
	return task
}
