package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

const transactionColumns = `id, seq, account_id, target_account_id, category_id, type, amount,
	date, note, usage, exclude_from_balance, external_id, created_at`

// CreateTransaction persists a posting or transfer. It fails with
// common.ErrIntegrity if the transaction references an account or category
// that does not exist.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return insertTransaction(ctx, tx, txn)
	})
	if err != nil {
		return err
	}

	slog.Debug("created transaction", "id", txn.ID, "type", txn.Type, "account_id", txn.AccountID)
	return nil
}

// ImportTransactions inserts a batch of transactions in one commit. Rows
// whose ExternalID is already recorded for the same account are skipped.
// It returns how many rows were inserted.
func (s *SQLiteStorage) ImportTransactions(ctx context.Context, txns []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i := range txns {
		if err := validateTransaction(&txns[i]); err != nil {
			return 0, fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}

	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for i := range txns {
			txn := &txns[i]
			if txn.ExternalID != "" {
				var seen bool
				err := tx.QueryRowContext(ctx, `
					SELECT EXISTS(SELECT 1 FROM transactions WHERE account_id = ? AND external_id = ?)
				`, txn.AccountID, txn.ExternalID).Scan(&seen)
				if err != nil {
					return storeErr("failed to check external id", err)
				}
				if seen {
					continue
				}
			}
			if err := insertTransaction(ctx, tx, txn); err != nil {
				return fmt.Errorf("transaction at index %d: %w", i, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("imported transactions", "inserted", inserted, "skipped", len(txns)-inserted)
	return inserted, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, txn *model.Transaction) error {
	if err := requireTransactionRefs(ctx, tx, txn); err != nil {
		return err
	}

	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.CreatedAt = time.Now().UTC()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions`).Scan(&txn.Seq); err != nil {
		return storeErr("failed to allocate sequence", err)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, txn.ID, txn.Seq, txn.AccountID, txn.TargetAccountID, txn.CategoryID, string(txn.Type),
		txn.Amount, txn.Date.UTC(), txn.Note, txn.Usage, txn.ExcludeFromBalance, txn.ExternalID, txn.CreatedAt)
	if err != nil {
		return storeErr("failed to insert transaction", err)
	}
	return nil
}

// GetTransaction retrieves a single transaction by ID.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	txn, err := scanTransaction(s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, storeErr("failed to get transaction", err)
	}

	return txn, nil
}

// UpdateTransaction rewrites every mutable field of a transaction in one
// statement, so readers see either the old or the new version.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireTransactionRefs(ctx, tx, txn); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET account_id = ?, target_account_id = ?, category_id = ?, type = ?, amount = ?,
			    date = ?, note = ?, usage = ?, exclude_from_balance = ?
			WHERE id = ?
		`, txn.AccountID, txn.TargetAccountID, txn.CategoryID, string(txn.Type), txn.Amount,
			txn.Date.UTC(), txn.Note, txn.Usage, txn.ExcludeFromBalance, txn.ID)
		if err != nil {
			return storeErr("failed to update transaction", err)
		}
		return requireAffected(result, "transaction", txn.ID)
	})
}

// DeleteTransaction removes a single transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return storeErr("failed to delete transaction", err)
	}
	if err := requireAffected(result, "transaction", id); err != nil {
		return err
	}

	slog.Debug("deleted transaction", "id", id)
	return nil
}

// SetTransactionCategory sets or, with a nil categoryID, clears the
// category of a transaction.
func (s *SQLiteStorage) SetTransactionCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireCategory(ctx, tx, categoryID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `UPDATE transactions SET category_id = ? WHERE id = ?`, categoryID, id)
		if err != nil {
			return storeErr("failed to set transaction category", err)
		}
		return requireAffected(result, "transaction", id)
	})
}

// ListTransactions returns transactions matching filter ordered by date,
// then by insertion order.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, fmt.Errorf("%w: end date %v is before start date %v", ErrInvalidDateRange, *filter.EndDate, *filter.StartDate)
	}

	query, args := buildTransactionQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("failed to query transactions", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, storeErr("failed to scan transaction", err)
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating transactions", err)
	}

	return transactions, nil
}

func buildTransactionQuery(filter service.TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.AccountID != nil {
		if filter.IncludeTargeted {
			conds = append(conds, "(account_id = ? OR target_account_id = ?)")
			args = append(args, *filter.AccountID, *filter.AccountID)
		} else {
			conds = append(conds, "account_id = ?")
			args = append(args, *filter.AccountID)
		}
	}
	if filter.TargetAccountID != nil {
		conds = append(conds, "target_account_id = ?")
		args = append(args, *filter.TargetAccountID)
	}
	if filter.CategoryID != nil {
		conds = append(conds, "category_id = ?")
		args = append(args, *filter.CategoryID)
	} else if filter.Uncategorized {
		conds = append(conds, "category_id IS NULL")
	}
	if filter.StartDate != nil {
		conds = append(conds, "date >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		conds = append(conds, "date <= ?")
		args = append(args, filter.EndDate.UTC())
	}
	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, typ := range filter.Types {
			placeholders[i] = "?"
			args = append(args, string(typ))
		}
		conds = append(conds, "type IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date ASC, seq ASC"

	switch {
	case filter.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	case filter.Offset > 0:
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	return query, args
}

// CountTransactions returns the total number of transactions.
func (s *SQLiteStorage) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, storeErr("failed to count transactions", err)
	}
	return count, nil
}

// requireTransactionRefs fails with common.ErrIntegrity if any account or
// category the transaction points at is missing.
func requireTransactionRefs(ctx context.Context, q queryable, txn *model.Transaction) error {
	found, err := exists(ctx, q, "accounts", txn.AccountID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: account %s does not exist", common.ErrIntegrity, txn.AccountID)
	}

	if txn.TargetAccountID != nil {
		found, err := exists(ctx, q, "accounts", *txn.TargetAccountID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: target account %s does not exist", common.ErrIntegrity, *txn.TargetAccountID)
		}
	}

	return requireCategory(ctx, q, txn.CategoryID)
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn        model.Transaction
		targetID   uuid.NullUUID
		categoryID uuid.NullUUID
		typ        string
	)
	err := row.Scan(
		&txn.ID,
		&txn.Seq,
		&txn.AccountID,
		&targetID,
		&categoryID,
		&typ,
		&txn.Amount,
		&txn.Date,
		&txn.Note,
		&txn.Usage,
		&txn.ExcludeFromBalance,
		&txn.ExternalID,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	txn.Type = model.TransactionType(typ)
	txn.TargetAccountID = nullableID(targetID)
	txn.CategoryID = nullableID(categoryID)
	return &txn, nil
}
