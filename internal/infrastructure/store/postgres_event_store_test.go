package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	lockQuery    = "SELECT pg_advisory_xact_lock(hashtext($1))"
	versionQuery = "SELECT COALESCE(MAX(version), 0) FROM activity_events WHERE aggregate_id = $1"
	insertQuery  = "INSERT INTO activity_events"
	selectEvents = "SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at"
)

func newMockPostgresStore(t *testing.T, publisher Publisher) (*PostgresEventStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresEventStore(db, publisher), mock
}

// ============================================
// PostgresEventStore Append Tests
// ============================================

func TestPostgresEventStore_Append_LocksAggregateBeforeReadingVersion(t *testing.T) {
	publisher := &recordingPublisher{}
	es, mock := newMockPostgresStore(t, publisher)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(lockQuery)).
		WithArgs("cart-s1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(versionQuery)).
		WithArgs("cart-s1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(insertQuery)).
		WithArgs(sqlmock.AnyArg(), "cart-s1", "Cart", "ItemAddedToCart", sqlmock.AnyArg(), 4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	event, err := es.Append(context.Background(), "cart-s1", "Cart", "ItemAddedToCart", map[string]int{"product_id": 1})

	require.NoError(t, err)
	assert.Equal(t, 4, event.Version)
	assert.Len(t, publisher.keys, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresEventStore_Append_LockFailure(t *testing.T) {
	publisher := &recordingPublisher{}
	es, mock := newMockPostgresStore(t, publisher)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(lockQuery)).
		WithArgs("cart-s1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := es.Append(context.Background(), "cart-s1", "Cart", "ItemAddedToCart", map[string]int{})

	assert.ErrorContains(t, err, "failed to lock aggregate cart-s1")
	assert.Empty(t, publisher.keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// PostgresEventStore Read Tests
// ============================================

func TestPostgresEventStore_GetEvents(t *testing.T) {
	es, mock := newMockPostgresStore(t, nil)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(selectEvents)).
		WithArgs("5").
		WillReturnRows(sqlmock.NewRows([]string{"id", "aggregate_id", "aggregate_type", "event_type", "data", "version", "created_at"}).
			AddRow("e1", "5", "Product", "ProductSubmitted", []byte(`{"ok":true}`), 1, created))

	events, err := es.GetEvents(context.Background(), "5")

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ProductSubmitted", events[0].EventType)
	assert.JSONEq(t, `{"ok":true}`, string(events[0].Data))
	assert.Equal(t, created, events[0].Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}
