// Package shortlist persists the recruiter's shortlist of candidates and groups
// it for display.
package shortlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/common/validation"
	"talent-shortlist/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultStorageKey = "shortlist"

	// ReasonAlreadyShortlisted is reported when an add matches an existing entry.
	ReasonAlreadyShortlisted = "already in your shortlist"

	DefaultNotifyTimeout = 10 * time.Second
)

var errCorruptValue = errors.New("stored value does not decode")

// AddResult reports the outcome of Add. Entry is the stored entry: the new one
// when Added, otherwise the existing entry with the same identity.
type AddResult struct {
	Added  bool                   `json:"added"`
	Reason string                 `json:"reason,omitempty"`
	Entry  models.CandidateRecord `json:"entry"`
}

// Recorder observes store operations. Implemented by the metrics packages.
type Recorder interface {
	RecordOperation(ctx context.Context, operation, status string, duration time.Duration)
}

type Option func(*Store)

func WithNotifiers(n ...Notifier) Option {
	return func(s *Store) { s.notifiers = append(s.notifiers, n...) }
}

func WithRecorders(r ...Recorder) Option {
	return func(s *Store) { s.recorders = append(s.recorders, r...) }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// WithNotifyTimeout bounds the time all notifiers together get per change.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// WithOrigin stamps emitted events so a RedisWatcher in the same process can
// skip its own publications.
func WithOrigin(origin string) Option {
	return func(s *Store) { s.origin = origin }
}

// Store is the shortlist persisted as a JSON array under a single key.
// Entries are unique by (name, email) and kept in insertion order.
type Store struct {
	kv        KV
	key       string
	log       logger.Logger
	notifiers []Notifier
	recorders []Recorder
	newID     func() string
	now       func() time.Time
	origin    string

	notifyTimeout time.Duration

	// serializes writers in this process; backends guard against other processes
	mu sync.Mutex
}

func NewStore(kv KV, key string, log logger.Logger, opts ...Option) *Store {
	if key == "" {
		key = DefaultStorageKey
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Store{
		kv:            kv,
		key:           key,
		log:           log,
		newID:         func() string { return uuid.New().String() },
		now:           time.Now,
		notifyTimeout: DefaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Key() string {
	return s.key
}

// Add appends record unless an entry with the same name and email exists. A
// duplicate is not an error: the result carries Added=false and nothing is written.
func (s *Store) Add(ctx context.Context, record models.CandidateRecord) (AddResult, error) {
	start := time.Now()
	res, err := s.add(ctx, record)

	status := "added"
	switch {
	case err != nil:
		status = "error"
	case !res.Added:
		status = "duplicate"
	}
	s.record(ctx, "add", status, time.Since(start))
	return res, err
}

func (s *Store) add(ctx context.Context, record models.CandidateRecord) (AddResult, error) {
	if err := checkRecord(record); err != nil {
		return AddResult{}, err
	}

	entry := record.Clone()
	if entry.ApplicationLabel == "" {
		entry.ApplicationLabel = entry.LegacyApplicationName()
	}

	res, err := s.commitAdd(ctx, entry)
	if err != nil {
		s.log.Error("Failed to add candidate to shortlist", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
		return AddResult{}, err
	}

	if !res.Added {
		s.log.Debug("Candidate already shortlisted", map[string]interface{}{
			"entryId": res.Entry.ID.String(),
		})
		return res, nil
	}

	s.log.Info("Candidate shortlisted", map[string]interface{}{
		"entryId": res.Entry.ID.String(),
		"phase":   res.Entry.ShortlistedFrom,
	})
	added := res.Entry.Clone()
	s.notify(ctx, ChangeEvent{Type: EventAdded, EntryID: added.ID.String(), Entry: &added})
	return res, nil
}

// commitAdd holds the write lock only for the read-modify-write itself.
func (s *Store) commitAdd(ctx context.Context, entry models.CandidateRecord) (AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res AddResult
	err := s.update(ctx, func(entries []models.CandidateRecord) ([]byte, error) {
		for _, existing := range entries {
			if existing.SameIdentity(entry) {
				res = AddResult{Added: false, Reason: ReasonAlreadyShortlisted, Entry: existing}
				return nil, ErrSkipWrite
			}
		}

		entry.ID = models.EntryID(s.newID())
		next, err := json.Marshal(append(entries, entry))
		if err != nil {
			return nil, fmt.Errorf("%w: encode: %v", ErrWriteFailed, err)
		}
		res = AddResult{Added: true, Entry: entry}
		return next, nil
	})
	if err != nil && !errors.Is(err, ErrSkipWrite) {
		return AddResult{}, err
	}
	return res, nil
}

// Remove deletes the entry with the given id. Unknown ids are a no-op and do
// not write. It reports whether an entry was removed.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	removed, err := s.remove(ctx, id)

	status := "removed"
	switch {
	case err != nil:
		status = "error"
	case !removed:
		status = "not_found"
	}
	s.record(ctx, "remove", status, time.Since(start))
	return removed, err
}

func (s *Store) remove(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	gone, err := s.commitRemove(ctx, id)
	if err != nil {
		s.log.Error("Failed to remove candidate from shortlist", map[string]interface{}{
			"key":     s.key,
			"entryId": id,
			"error":   err.Error(),
		})
		return false, err
	}
	if gone == nil {
		return false, nil
	}

	s.log.Info("Candidate removed from shortlist", map[string]interface{}{"entryId": id})
	s.notify(ctx, ChangeEvent{Type: EventRemoved, EntryID: id, Entry: gone})
	return true, nil
}

// commitRemove returns the removed entry, or nil when no entry has id.
func (s *Store) commitRemove(ctx context.Context, id string) (*models.CandidateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var gone *models.CandidateRecord
	err := s.update(ctx, func(entries []models.CandidateRecord) ([]byte, error) {
		gone = nil
		kept := make([]models.CandidateRecord, 0, len(entries))
		for i := range entries {
			if gone == nil && entries[i].ID.String() == id {
				e := entries[i]
				gone = &e
				continue
			}
			kept = append(kept, entries[i])
		}
		if gone == nil {
			return nil, ErrSkipWrite
		}
		next, err := json.Marshal(kept)
		if err != nil {
			return nil, fmt.Errorf("%w: encode: %v", ErrWriteFailed, err)
		}
		return next, nil
	})
	if errors.Is(err, ErrSkipWrite) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return gone, nil
}

// update runs apply against the decoded list. When the stored value does not
// decode and apply wants to replace it, the old value is first copied to
// CorruptKey so the overwrite cannot lose it.
func (s *Store) update(ctx context.Context, apply func([]models.CandidateRecord) ([]byte, error)) error {
	preserved := false
	for {
		var corrupt []byte
		err := s.kv.Update(ctx, s.key, func(current []byte) ([]byte, error) {
			entries, ok := s.decode(current)
			next, err := apply(entries)
			if err != nil {
				return nil, err
			}
			if !ok && !preserved {
				corrupt = append([]byte(nil), current...)
				return nil, errCorruptValue
			}
			return next, nil
		})
		if !errors.Is(err, errCorruptValue) {
			return err
		}
		if err := s.preserveCorrupt(ctx, corrupt); err != nil {
			return err
		}
		preserved = true
	}
}

// CorruptKey is where an undecodable shortlist value is kept before it is replaced.
func (s *Store) CorruptKey() string {
	return s.key + ".corrupt"
}

func (s *Store) preserveCorrupt(ctx context.Context, raw []byte) error {
	err := s.kv.Update(ctx, s.CorruptKey(), func([]byte) ([]byte, error) {
		return raw, nil
	})
	if err != nil {
		return fmt.Errorf("%w: preserve undecodable value: %v", ErrWriteFailed, err)
	}
	s.log.Error("Replacing undecodable shortlist, previous value preserved", map[string]interface{}{
		"key":       s.key,
		"backupKey": s.CorruptKey(),
		"bytes":     len(raw),
	})
	return nil
}

// List returns the current entries in insertion order. An absent key or a value
// that does not decode yields an empty list; only transport failures are errors.
func (s *Store) List(ctx context.Context) ([]models.CandidateRecord, error) {
	start := time.Now()
	entries, err := s.list(ctx)

	status := "ok"
	if err != nil {
		status = "error"
	}
	s.record(ctx, "list", status, time.Since(start))
	return entries, err
}

func (s *Store) list(ctx context.Context) ([]models.CandidateRecord, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrKeyNotFound) {
		return []models.CandidateRecord{}, nil
	}
	if err != nil {
		if !errors.Is(err, ErrReadFailed) {
			err = fmt.Errorf("%w: %v", ErrReadFailed, err)
		}
		s.log.Error("Failed to read shortlist", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
		return nil, err
	}
	entries, _ := s.decode(raw)
	return entries, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (models.CandidateRecord, bool, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return models.CandidateRecord{}, false, err
	}
	for _, e := range entries {
		if e.ID.String() == id {
			return e, true, nil
		}
	}
	return models.CandidateRecord{}, false, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Contains reports whether an entry with the given name and email exists.
func (s *Store) Contains(ctx context.Context, name, email string) (bool, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	want := models.CandidateRecord{Name: name, Email: email}
	for _, e := range entries {
		if e.SameIdentity(want) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

// decode parses the stored list. A value that does not parse reads as empty and
// ok is false.
func (s *Store) decode(raw []byte) (entries []models.CandidateRecord, ok bool) {
	entries = []models.CandidateRecord{}
	if len(raw) == 0 {
		return entries, true
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.log.Error("Stored shortlist is not a valid entry list, treating as empty", map[string]interface{}{
			"key":   s.key,
			"error": err.Error(),
		})
		return []models.CandidateRecord{}, false
	}
	if entries == nil {
		entries = []models.CandidateRecord{}
	}
	return entries, true
}

// notify runs after the write has committed and the lock is released. Notifiers
// get a context detached from the caller's cancellation so a disconnected client
// does not cost the mirrors a committed change.
func (s *Store) notify(ctx context.Context, event ChangeEvent) {
	event.Key = s.key
	event.Origin = s.origin
	event.At = s.now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	for _, n := range s.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			s.log.Warn("Change notification failed", map[string]interface{}{
				"event":   string(event.Type),
				"entryId": event.EntryID,
				"error":   err.Error(),
			})
		}
	}
}

func (s *Store) record(ctx context.Context, op, status string, d time.Duration) {
	for _, r := range s.recorders {
		r.RecordOperation(ctx, op, status, d)
	}
}

func checkRecord(record models.CandidateRecord) error {
	res, err := validation.ValidateCandidate(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if res.Valid {
		return nil
	}
	if res.IdentityMissing() {
		return fmt.Errorf("%w: %s", ErrMissingIdentity, res.Summary())
	}
	return fmt.Errorf("%w: %s", ErrInvalidRecord, res.Summary())
}
