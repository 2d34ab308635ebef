package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maroltinger/votebox/internal/core/ports"
)

func TestDocumentStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)
	ctx := context.Background()

	_, ok, err := app.Store.Get(ctx, "items", "POT")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, app.Store.Set(ctx, "items", "POT", ports.Document{"likes": 2, "dislikes": 1}))

	doc, ok, err := app.Store.Get(ctx, "items", "POT")
	require.NoError(t, err)
	require.True(t, ok)
	// jsonb numbers come back as float64.
	assert.EqualValues(t, 2, doc["likes"])
	assert.EqualValues(t, 1, doc["dislikes"])
}

func TestDocumentStoreTransaction(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)
	ctx := context.Background()

	require.NoError(t, app.Store.Set(ctx, "items", "POT", ports.Document{"likes": 0, "dislikes": 0}))

	err := app.Store.RunTransaction(ctx, func(tx ports.DocumentTx) error {
		doc, ok, err := tx.Get("items", "POT")
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("item missing")
		}
		likes := int(doc["likes"].(float64)) + 1
		if err := tx.Update("items", "POT", ports.Document{"likes": likes}); err != nil {
			return err
		}
		return tx.Update("userVotes", "u1", ports.Document{"POT": "like"})
	})
	require.NoError(t, err)

	item, _, err := app.Store.Get(ctx, "items", "POT")
	require.NoError(t, err)
	assert.EqualValues(t, 1, item["likes"])
	assert.EqualValues(t, 0, item["dislikes"], "update must merge into the document")

	votes, ok, err := app.Store.Get(ctx, "userVotes", "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "like", votes["POT"])

	// Field delete inside a transaction.
	err = app.Store.RunTransaction(ctx, func(tx ports.DocumentTx) error {
		return tx.DeleteField("userVotes", "u1", "POT")
	})
	require.NoError(t, err)

	votes, _, err = app.Store.Get(ctx, "userVotes", "u1")
	require.NoError(t, err)
	assert.NotContains(t, votes, "POT")
}

func TestDocumentStoreTransactionAbort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)
	ctx := context.Background()

	require.NoError(t, app.Store.Set(ctx, "items", "POT", ports.Document{"likes": 5}))

	boom := errors.New("boom")
	err := app.Store.RunTransaction(ctx, func(tx ports.DocumentTx) error {
		if err := tx.Update("items", "POT", ports.Document{"likes": 99}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	doc, _, err := app.Store.Get(ctx, "items", "POT")
	require.NoError(t, err)
	assert.EqualValues(t, 5, doc["likes"])
}

func TestDocumentStoreSubscribe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []ports.Document
	unsub, err := app.Store.Subscribe(ctx, "items", "POT", func(doc ports.Document) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, doc)
	})
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, app.Store.Set(ctx, "items", "POT", ports.Document{"likes": 1, "dislikes": 0}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 1
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	assert.EqualValues(t, 1, seen[0]["likes"])
	mu.Unlock()

	// Changes to other documents are not delivered here.
	require.NoError(t, app.Store.Set(ctx, "items", "MAI", ports.Document{"likes": 7}))
	time.Sleep(250 * time.Millisecond)

	mu.Lock()
	for _, doc := range seen {
		assert.NotEqualValues(t, 7, doc["likes"])
	}
	mu.Unlock()
}
