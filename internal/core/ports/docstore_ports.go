package ports

import "context"

// Collection names of the persisted layout: one document per item and
// one document per user holding its vote map.
const (
	CollectionItems     = "items"
	CollectionUserVotes = "userVotes"
)

// Document is the schemaless payload of one stored document.
type Document map[string]any

// DocumentTx is the read-then-write view handed to a transaction
// function. All reads see a consistent snapshot; all writes commit
// together or not at all.
type DocumentTx interface {
	Get(collection, id string) (Document, bool, error)
	// Set creates or overwrites a document.
	Set(collection, id string, data Document) error
	// Update merges fields into a document, creating it when absent.
	Update(collection, id string, fields Document) error
	// DeleteField removes one field from a document; removing a field
	// from an absent document is a no-op.
	DeleteField(collection, id, field string) error
}

// UnsubscribeFunc cancels one change subscription. Safe to call more
// than once.
type UnsubscribeFunc func()

// DocumentStore is the transactional document store the voting core is
// built against.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (Document, bool, error)
	Set(ctx context.Context, collection, id string, data Document) error

	// RunTransaction executes fn atomically. Any error returned by fn
	// aborts the transaction and is returned unchanged.
	RunTransaction(ctx context.Context, fn func(tx DocumentTx) error) error

	// Subscribe registers onChange for every committed change to the
	// given document. Changes are delivered in commit order per
	// document.
	Subscribe(ctx context.Context, collection, id string, onChange func(Document)) (UnsubscribeFunc, error)
}
