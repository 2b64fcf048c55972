// internal/infra/database/postgres_ledger_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"payflow/internal/domain/ledger"

	"github.com/shopspring/decimal"
)

// Custom errors specific to the ledger repository
var ErrPostingNotFound = fmt.Errorf("posting not found")
var ErrOverAllocation = fmt.Errorf("allocation exceeds the credit's remaining amount")

type PostgresLedgerRepository struct {
	db *sql.DB
}

func NewPostgresLedgerRepository(db *sql.DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

const postingColumns = `id, merchant_id, customer_id, kind, amount, description, posted_date, due_date, payment_method, created_at`

func scanPosting(row interface{ Scan(...interface{}) error }) (*ledger.Posting, error) {
	p := &ledger.Posting{}
	err := row.Scan(&p.ID, &p.MerchantID, &p.CustomerID, &p.Kind, &p.Amount,
		&p.Description, &p.PostedDate, &p.DueDate, &p.Method, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresLedgerRepository) CreateCredit(ctx context.Context, p *ledger.Posting) error {
	query := `INSERT INTO transactions (merchant_id, customer_id, kind, amount, description, posted_date, due_date, payment_method)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		p.MerchantID, p.CustomerID, p.Kind, p.Amount, p.Description, p.PostedDate, p.DueDate, p.Method,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating credit posting: %w", err)
	}
	return nil
}

// CreatePaymentWithAllocations writes the payment posting and all of its
// allocation rows in one transaction. Each referenced credit row is locked
// with FOR UPDATE and its remaining re-computed inside the transaction, so two
// concurrent payments can never both pass the remaining check against a stale
// value. Any violation rolls back everything.
func (r *PostgresLedgerRepository) CreatePaymentWithAllocations(ctx context.Context, p *ledger.Posting, allocations []*ledger.Allocation) error {
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for payment: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	insertPayment := `INSERT INTO transactions (merchant_id, customer_id, kind, amount, description, posted_date, due_date, payment_method)
                       VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                       RETURNING id, created_at`
	err = txn.QueryRowContext(ctx, insertPayment,
		p.MerchantID, p.CustomerID, p.Kind, p.Amount, p.Description, p.PostedDate, p.DueDate, p.Method,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating payment posting: %w", err)
	}

	lockCredit := `SELECT amount FROM transactions
                    WHERE id = $1 AND merchant_id = $2 AND customer_id = $3 AND kind = 'CREDIT'
                    FOR UPDATE`
	sumAllocated := `SELECT COALESCE(SUM(allocated_amount), 0) FROM payment_allocations WHERE credit_id = $1`
	insertAllocation := `INSERT INTO payment_allocations (merchant_id, customer_id, payment_id, credit_id, allocated_amount)
                          VALUES ($1, $2, $3, $4, $5)
                          RETURNING id, created_at`

	for _, a := range allocations {
		var creditAmount decimal.Decimal
		err = txn.QueryRowContext(ctx, lockCredit, a.CreditID, p.MerchantID, p.CustomerID).Scan(&creditAmount)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrPostingNotFound
			}
			return fmt.Errorf("error locking credit %d: %w", a.CreditID, err)
		}

		var allocated decimal.Decimal
		if err = txn.QueryRowContext(ctx, sumAllocated, a.CreditID).Scan(&allocated); err != nil {
			return fmt.Errorf("error summing allocations for credit %d: %w", a.CreditID, err)
		}
		if a.AllocatedAmount.GreaterThan(creditAmount.Sub(allocated)) {
			return ErrOverAllocation
		}

		a.PaymentID = p.ID
		err = txn.QueryRowContext(ctx, insertAllocation,
			a.MerchantID, a.CustomerID, a.PaymentID, a.CreditID, a.AllocatedAmount,
		).Scan(&a.ID, &a.CreatedAt)
		if err != nil {
			return fmt.Errorf("error creating allocation for credit %d: %w", a.CreditID, err)
		}
	}

	return txn.Commit()
}

func (r *PostgresLedgerRepository) GetPosting(ctx context.Context, id int64) (*ledger.Posting, error) {
	query := `SELECT ` + postingColumns + ` FROM transactions WHERE id = $1`
	p, err := scanPosting(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPostingNotFound
		}
		return nil, fmt.Errorf("error getting posting by ID: %w", err)
	}
	return p, nil
}

func (r *PostgresLedgerRepository) ListByMerchant(ctx context.Context, merchantID int64, from, to *time.Time) ([]*ledger.Posting, error) {
	query := `SELECT ` + postingColumns + ` FROM transactions
               WHERE merchant_id = $1
                 AND ($2::date IS NULL OR posted_date >= $2)
                 AND ($3::date IS NULL OR posted_date <= $3)
               ORDER BY posted_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, merchantID, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, fmt.Errorf("error listing postings by merchant: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

func (r *PostgresLedgerRepository) ListCreditsByMerchantAndCustomer(ctx context.Context, merchantID, customerID int64) ([]*ledger.Posting, error) {
	query := `SELECT ` + postingColumns + ` FROM transactions
               WHERE merchant_id = $1 AND customer_id = $2 AND kind = 'CREDIT'
               ORDER BY posted_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, merchantID, customerID)
	if err != nil {
		return nil, fmt.Errorf("error listing credits by merchant and customer: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

func (r *PostgresLedgerRepository) ListCreditsByMerchantAndDueDate(ctx context.Context, merchantID int64, dueDate time.Time) ([]*ledger.Posting, error) {
	query := `SELECT ` + postingColumns + ` FROM transactions
               WHERE merchant_id = $1 AND kind = 'CREDIT' AND due_date = $2
               ORDER BY id` // Order for consistent processing
	rows, err := r.db.QueryContext(ctx, query, merchantID, dueDate)
	if err != nil {
		return nil, fmt.Errorf("error listing credits by due date: %w", err)
	}
	defer rows.Close()
	return scanPostings(rows)
}

func (r *PostgresLedgerRepository) AllocatedAmount(ctx context.Context, creditID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(allocated_amount), 0) FROM payment_allocations WHERE credit_id = $1`
	var allocated decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, creditID).Scan(&allocated); err != nil {
		return decimal.Zero, fmt.Errorf("error summing allocations for credit: %w", err)
	}
	return allocated, nil
}

func (r *PostgresLedgerRepository) CustomerBalance(ctx context.Context, merchantID, customerID int64, from, to *time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN kind = 'CREDIT' THEN amount ELSE -amount END), 0)
               FROM transactions
               WHERE merchant_id = $1 AND customer_id = $2
                 AND ($3::date IS NULL OR posted_date >= $3)
                 AND ($4::date IS NULL OR posted_date <= $4)`
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, merchantID, customerID, nullableDate(from), nullableDate(to)).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error computing customer balance: %w", err)
	}
	return balance, nil
}

func (r *PostgresLedgerRepository) CustomerBalances(ctx context.Context, merchantID int64, from, to *time.Time) (map[int64]decimal.Decimal, error) {
	query := `SELECT customer_id, COALESCE(SUM(CASE WHEN kind = 'CREDIT' THEN amount ELSE -amount END), 0)
               FROM transactions
               WHERE merchant_id = $1
                 AND ($2::date IS NULL OR posted_date >= $2)
                 AND ($3::date IS NULL OR posted_date <= $3)
               GROUP BY customer_id`
	rows, err := r.db.QueryContext(ctx, query, merchantID, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, fmt.Errorf("error computing per-customer balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var customerID int64
		var balance decimal.Decimal
		if err := rows.Scan(&customerID, &balance); err != nil {
			return nil, fmt.Errorf("error scanning customer balance row: %w", err)
		}
		balances[customerID] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer balance rows: %w", err)
	}
	return balances, nil
}

func (r *PostgresLedgerRepository) SumPayments(ctx context.Context, merchantID int64, from, to *time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions
               WHERE merchant_id = $1 AND kind = 'PAYMENT'
                 AND ($2::date IS NULL OR posted_date >= $2)
                 AND ($3::date IS NULL OR posted_date <= $3)`
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, merchantID, nullableDate(from), nullableDate(to)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error summing payments: %w", err)
	}
	return total, nil
}

// Helper to scan multiple rows
func scanPostings(rows *sql.Rows) ([]*ledger.Posting, error) {
	postings := make([]*ledger.Posting, 0)
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning posting row: %w", err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posting rows: %w", err)
	}
	return postings, nil
}
