package ledger

import (
	"github.com/google/uuid"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
)

// TransactionLog is the append-only, most-recent-first record of a session.
// Entries are never edited except for status transitions.
type TransactionLog struct {
	entries []entities.Transaction
	seq     uint64
}

// NewTransactionLog creates an empty log
func NewTransactionLog() *TransactionLog {
	return &TransactionLog{}
}

// Record assigns the next sequence number and puts tx at the head of the log
func (l *TransactionLog) Record(tx entities.Transaction) entities.Transaction {
	l.seq++
	tx.Sequence = l.seq
	if tx.ID == uuid.Nil {
		tx.ID = newID()
	}

	l.entries = append(l.entries, entities.Transaction{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = tx
	return tx
}

// List returns a copy of the log, newest first
func (l *TransactionLog) List() []entities.Transaction {
	out := make([]entities.Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}

// Get looks up a transaction by id
func (l *TransactionLog) Get(id uuid.UUID) (entities.Transaction, error) {
	for _, tx := range l.entries {
		if tx.ID == id {
			return tx, nil
		}
	}
	return entities.Transaction{}, domainerrors.TransactionNotFoundError(id.String())
}

// Transition moves a pending transaction to completed or failed
func (l *TransactionLog) Transition(id uuid.UUID, status entities.TransactionStatus) (entities.Transaction, error) {
	for i := range l.entries {
		if l.entries[i].ID != id {
			continue
		}
		current := l.entries[i].Status
		if !current.CanTransitionTo(status) {
			return entities.Transaction{}, domainerrors.InvalidTransitionError(string(current), string(status))
		}
		l.entries[i].Status = status
		return l.entries[i], nil
	}
	return entities.Transaction{}, domainerrors.TransactionNotFoundError(id.String())
}

// Len returns the number of recorded transactions
func (l *TransactionLog) Len() int {
	return len(l.entries)
}
