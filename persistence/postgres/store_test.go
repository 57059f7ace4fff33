package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fthyco/simorg/kernel/engine"
	"github.com/fthyco/simorg/persistence"
)

func TestAppendEventExecutesInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO simorg_events").
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := New(db)
	err = store.AppendEvent(context.Background(), persistence.StoredEvent{
		ProjectID: "p1",
		Sequence:  0,
		Event:     engine.Event{EventType: engine.EventInitializeConstants, EventUUID: "u1", Payload: []byte(`{}`)},
		StateHash: "h0",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLoadLatestSnapshotNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT sequence, canonical_json, state_hash").
		WillReturnRows(sqlmock.NewRows([]string{"sequence", "canonical_json", "state_hash"}))

	store := New(db)
	_, err = store.LoadLatestSnapshot(context.Background(), "p1")
	if err != persistence.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPutStreamMetaExecutesUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO simorg_stream_meta").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := New(db)
	err = store.PutStreamMeta(context.Background(), persistence.StreamMeta{ProjectID: "p1", LastSequence: 5, LastHash: "abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
