// Package memory provides an in-process DocumentStore used by tests
// and local runs. Transactions stage their writes and commit them
// atomically under the store lock; subscribers are notified in commit
// order per document.
package memory

import (
	"context"
	"sync"

	"github.com/maroltinger/votebox/internal/core/ports"
)

type subscriber struct {
	key      string
	onChange func(ports.Document)
	active   bool
}

type Store struct {
	// BeforeCommit, when set, runs before every transaction commit;
	// returning an error aborts the transaction. Tests use it to force
	// conflicts.
	BeforeCommit func() error

	// OnGet, when set, runs before every non-transactional Get and can
	// fail it. Tests use it to simulate fetch failures.
	OnGet func(collection, id string) error

	// notifyMu is taken for the whole commit-and-notify sequence so
	// change events reach subscribers in commit order.
	notifyMu sync.Mutex
	mu       sync.Mutex
	docs     map[string]ports.Document
	subs     map[string][]*subscriber
}

func NewStore() *Store {
	return &Store{
		docs: make(map[string]ports.Document),
		subs: make(map[string][]*subscriber),
	}
}

func docKey(collection, id string) string {
	return collection + "/" + id
}

func (s *Store) Get(ctx context.Context, collection, id string) (ports.Document, bool, error) {
	if s.OnGet != nil {
		if err := s.OnGet(collection, id); err != nil {
			return nil, false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docKey(collection, id)]
	if !ok {
		return nil, false, nil
	}
	return copyDoc(doc), true, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data ports.Document) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.docs[docKey(collection, id)] = copyDoc(data)
	subs, doc := s.snapshotForNotify(collection, id)
	s.mu.Unlock()

	notify(subs, doc)
	return nil
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx ports.DocumentTx) error) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	tx := &memoryTx{store: s, staged: make(map[string]ports.Document)}
	err := fn(tx)
	if err == nil && s.BeforeCommit != nil {
		err = s.BeforeCommit()
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}

	type event struct {
		subs []*subscriber
		doc  ports.Document
	}
	events := make([]event, 0, len(tx.order))
	for _, key := range tx.order {
		s.docs[key] = tx.staged[key]
		collection, id := splitKey(key)
		subs, doc := s.snapshotForNotify(collection, id)
		events = append(events, event{subs: subs, doc: doc})
	}
	s.mu.Unlock()

	for _, ev := range events {
		notify(ev.subs, ev.doc)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, collection, id string, onChange func(ports.Document)) (ports.UnsubscribeFunc, error) {
	key := docKey(collection, id)
	sub := &subscriber{key: key, onChange: onChange, active: true}

	s.mu.Lock()
	s.subs[key] = append(s.subs[key], sub)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		sub.active = false
		kept := s.subs[key][:0]
		for _, existing := range s.subs[key] {
			if existing != sub {
				kept = append(kept, existing)
			}
		}
		s.subs[key] = kept
	}, nil
}

// SubscriberCount reports the active subscriptions for one document.
func (s *Store) SubscriberCount(collection, id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[docKey(collection, id)])
}

func (s *Store) snapshotForNotify(collection, id string) ([]*subscriber, ports.Document) {
	key := docKey(collection, id)
	subs := make([]*subscriber, len(s.subs[key]))
	copy(subs, s.subs[key])
	return subs, copyDoc(s.docs[key])
}

func notify(subs []*subscriber, doc ports.Document) {
	for _, sub := range subs {
		if sub.active {
			sub.onChange(copyDoc(doc))
		}
	}
}

type memoryTx struct {
	store  *Store
	staged map[string]ports.Document
	order  []string
}

func (tx *memoryTx) Get(collection, id string) (ports.Document, bool, error) {
	key := docKey(collection, id)
	if doc, ok := tx.staged[key]; ok {
		return copyDoc(doc), true, nil
	}
	doc, ok := tx.store.docs[key]
	if !ok {
		return nil, false, nil
	}
	return copyDoc(doc), true, nil
}

func (tx *memoryTx) Set(collection, id string, data ports.Document) error {
	tx.stage(docKey(collection, id), copyDoc(data))
	return nil
}

func (tx *memoryTx) Update(collection, id string, fields ports.Document) error {
	key := docKey(collection, id)
	base, ok := tx.staged[key]
	if !ok {
		if committed, exists := tx.store.docs[key]; exists {
			base = copyDoc(committed)
		} else {
			base = ports.Document{}
		}
	}
	for k, v := range fields {
		base[k] = v
	}
	tx.stage(key, base)
	return nil
}

func (tx *memoryTx) DeleteField(collection, id, field string) error {
	key := docKey(collection, id)
	base, ok := tx.staged[key]
	if !ok {
		committed, exists := tx.store.docs[key]
		if !exists {
			return nil
		}
		base = copyDoc(committed)
	}
	delete(base, field)
	tx.stage(key, base)
	return nil
}

func (tx *memoryTx) stage(key string, doc ports.Document) {
	if _, ok := tx.staged[key]; !ok {
		tx.order = append(tx.order, key)
	}
	tx.staged[key] = doc
}

func copyDoc(doc ports.Document) ports.Document {
	if doc == nil {
		return ports.Document{}
	}
	out := make(ports.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func splitKey(key string) (string, string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return key, ""
}
