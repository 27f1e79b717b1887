package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/dmitrijs2005/preshare/internal/common"
)

// BadgerLedger is an embedded durable Ledger on top of badger. Badger's
// serializable transactions provide the per-key atomicity the contract
// requires without any external service.
type BadgerLedger struct {
	db *badger.DB
}

// NewBadgerLedger opens (or creates) a badger database at path.
func NewBadgerLedger(path string) (*BadgerLedger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: badger open: %v", common.ErrUnavailable, err)
	}
	return &BadgerLedger{db: db}, nil
}

func (l *BadgerLedger) PutIfAbsent(ctx context.Context, key string, value []byte) error {
	err := l.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return common.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(key), value)
	})
	return mapBadgerErr(err)
}

func (l *BadgerLedger) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, mapBadgerErr(err)
	}
	return value, nil
}

func (l *BadgerLedger) Update(ctx context.Context, key string, fn UpdateFunc) error {
	err := l.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		cur, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		return txn.Set([]byte(key), next)
	})
	return mapBadgerErr(err)
}

func (l *BadgerLedger) Close() error {
	return l.db.Close()
}

// mapBadgerErr translates badger errors into the shared sentinel kinds.
// Callback errors pass through untouched so state machine preconditions keep
// their identity.
func mapBadgerErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return common.ErrNotFound
	case errors.Is(err, common.ErrAlreadyExists),
		errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrPreconditionFailed):
		return err
	case errors.Is(err, badger.ErrConflict), errors.Is(err, badger.ErrDBClosed):
		return fmt.Errorf("%w: badger: %v", common.ErrUnavailable, err)
	default:
		return err
	}
}
