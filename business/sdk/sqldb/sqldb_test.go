package sqldb

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jcpaschoal/confmgmt/foundation/logger"
)

func Test_Classify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{name: "serialization", err: &pgconn.PgError{Code: "40001"}, transient: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, transient: true},
		{name: "connection", err: &pgconn.PgError{Code: "08006"}, transient: true},
		{name: "shutdown", err: &pgconn.PgError{Code: "57P01"}, transient: true},
		{name: "badconn", err: fmt.Errorf("exec: %w", driver.ErrBadConn), transient: true},
		{name: "syntax", err: &pgconn.PgError{Code: "42601"}, transient: false},
		{name: "plain", err: errors.New("boom"), transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)

			if IsTransient(got) != tt.transient {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, IsTransient(got), tt.transient)
			}

			if !errors.Is(got, tt.err) {
				t.Errorf("Classified error should keep the driver error in the chain")
			}
		})
	}
}

func Test_ClassifyDuplicate(t *testing.T) {
	err := classify(&pgconn.PgError{Code: "23505", ConstraintName: "uq_service_name"})

	var dup ErrDBDuplicatedEntry
	if !errors.As(err, &dup) {
		t.Fatalf("Should be a duplicated entry, got %T", err)
	}

	if dup.Column != "uq_service_name" {
		t.Errorf("got column %q", dup.Column)
	}

	if IsTransient(err) {
		t.Errorf("Unique violation is not transient")
	}
}

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Commit() error   { tx.committed = true; return nil }
func (tx *fakeTx) Rollback() error { tx.rolledBack = true; return nil }

type fakeBeginner struct {
	tx *fakeTx
}

func (b *fakeBeginner) Begin(ctx context.Context) (CommitRollbacker, error) {
	b.tx = &fakeTx{}
	return b.tx, nil
}

func Test_WithinTran(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	t.Run("commit", func(t *testing.T) {
		b := &fakeBeginner{}

		err := WithinTran(context.Background(), log, b, func(tx CommitRollbacker) error {
			return nil
		})

		if err != nil {
			t.Fatalf("Should commit: %s", err)
		}

		if !b.tx.committed || b.tx.rolledBack {
			t.Errorf("committed=%v rolledBack=%v", b.tx.committed, b.tx.rolledBack)
		}
	})

	t.Run("rollback", func(t *testing.T) {
		b := &fakeBeginner{}
		errBoom := errors.New("boom")

		err := WithinTran(context.Background(), log, b, func(tx CommitRollbacker) error {
			return errBoom
		})

		if !errors.Is(err, errBoom) {
			t.Fatalf("Should return fn error, got %v", err)
		}

		if b.tx.committed || !b.tx.rolledBack {
			t.Errorf("committed=%v rolledBack=%v", b.tx.committed, b.tx.rolledBack)
		}
	})
}
