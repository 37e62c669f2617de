package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// A transfer is a single transaction owned by the source account with
// TargetAccountID set to the destination. The stored amount is the
// negative outflow; the balance engine credits the destination with its
// absolute value.

// TransferRequest describes money moved from Source to Destination.
type TransferRequest struct {
	Date        time.Time // zero means now
	Amount      decimal.Decimal
	CategoryID  *uuid.UUID
	Note        string
	Usage       string
	Source      uuid.UUID
	Destination uuid.UUID
}

// TransferEdit lists the fields of a transfer to change. Nil fields are kept.
type TransferEdit struct {
	Amount             *decimal.Decimal
	Source             *uuid.UUID
	Destination        *uuid.UUID
	Date               *time.Time
	Note               *string
	Usage              *string
	ExcludeFromBalance *bool
}

// CreateTransfer moves req.Amount from the source account to the
// destination in one write.
func (l *Ledger) CreateTransfer(ctx context.Context, req TransferRequest) (*model.Transaction, error) {
	date := req.Date
	if date.IsZero() {
		date = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.validateTransfer(ctx, req.Source, req.Destination, req.Amount); err != nil {
		return nil, err
	}

	txn := &model.Transaction{
		AccountID:       req.Source,
		TargetAccountID: &req.Destination,
		CategoryID:      req.CategoryID,
		Type:            model.TransactionTypeTransfer,
		Amount:          req.Amount.Neg(),
		Date:            date,
		Note:            req.Note,
		Usage:           req.Usage,
	}
	if err := l.store.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create transfer: %w", err)
	}

	slog.Info("created transfer",
		"id", txn.ID,
		"source", req.Source,
		"destination", req.Destination,
		"amount", req.Amount)
	return txn, nil
}

// EditTransfer applies edit to an existing transfer. The merged result is
// validated as a whole before anything is written, so a transfer never
// ends up pointing at its own source.
func (l *Ledger) EditTransfer(ctx context.Context, id uuid.UUID, edit TransferEdit) (*model.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !txn.IsTransfer() {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotTransfer, id, txn.Type)
	}

	amount := txn.Amount.Abs()
	if edit.Amount != nil {
		amount = *edit.Amount
	}
	source := txn.AccountID
	if edit.Source != nil {
		source = *edit.Source
	}

	// A transfer whose destination was deleted needs a new one before it
	// can be edited.
	var destination uuid.UUID
	switch {
	case edit.Destination != nil:
		destination = *edit.Destination
	case txn.TargetAccountID != nil:
		destination = *txn.TargetAccountID
	default:
		return nil, fmt.Errorf("%w: transfer %s has no destination", ErrUnknownAccount, id)
	}

	if err := l.validateTransfer(ctx, source, destination, amount); err != nil {
		return nil, err
	}

	txn.AccountID = source
	txn.TargetAccountID = &destination
	txn.Amount = amount.Neg()
	if edit.Date != nil {
		txn.Date = *edit.Date
	}
	if edit.Note != nil {
		txn.Note = *edit.Note
	}
	if edit.Usage != nil {
		txn.Usage = *edit.Usage
	}
	if edit.ExcludeFromBalance != nil {
		txn.ExcludeFromBalance = *edit.ExcludeFromBalance
	}

	if err := l.store.UpdateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to update transfer: %w", err)
	}

	slog.Info("edited transfer", "id", id, "source", source, "destination", destination, "amount", amount)
	return txn, nil
}

// DeleteTransfer removes a transfer. Both accounts' balances change with
// the one delete.
func (l *Ledger) DeleteTransfer(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if !txn.IsTransfer() {
		return fmt.Errorf("%w: %s is a %s", ErrNotTransfer, id, txn.Type)
	}

	if err := l.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("failed to delete transfer: %w", err)
	}

	slog.Info("deleted transfer", "id", id)
	return nil
}

func (l *Ledger) validateTransfer(ctx context.Context, source, destination uuid.UUID, amount decimal.Decimal) error {
	if source == destination {
		return fmt.Errorf("%w: %s", ErrSameAccount, source)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrNonPositiveAmount, amount)
	}
	if err := l.requireAccount(ctx, source); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := l.requireAccount(ctx, destination); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	return nil
}
