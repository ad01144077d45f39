package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storefront/checkout/internal/core/domain"
)

// ErrInvalidTransition means the order was not in a status that allows the
// requested transition. Placed and failed orders can never move again.
var ErrInvalidTransition = errors.New("invalid order status transition")

// orderSnapshot is the immutable part of the order row, stored as JSON.
type orderSnapshot struct {
	Shipments      []domain.Shipment          `json:"shipments"`
	BillingAddress *domain.Address            `json:"billingAddress"`
	PaymentInfo    *domain.PaymentInformation `json:"paymentInfo"`
}

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Create inserts the order snapshot and derives the external order number
// from the auto-increment key, all in one transaction.
func (m *MySQLAdapter) Create(ctx context.Context, order *domain.Order) error {
	snapshot, err := json.Marshal(orderSnapshot{
		Shipments:      order.Shipments,
		BillingAddress: order.BillingAddress,
		PaymentInfo:    order.PaymentInfo,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO orders
			(token, status, customer_id, customer_email, currency,
			 subtotal, shipping, tax, grand_total, transaction_id, snapshot,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.Token, order.Status, order.CustomerID, order.CustomerEmail, order.Currency,
		order.Totals.Subtotal.String(), order.Totals.Shipping.String(),
		order.Totals.Tax.String(), order.Totals.GrandTotal.String(),
		order.TransactionID, snapshot,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	orderNo := fmt.Sprintf("%08d", id)

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET order_no = ? WHERE id = ?`, orderNo, id); err != nil {
		return fmt.Errorf("assign order number: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	order.OrderNo = orderNo
	return nil
}

func (m *MySQLAdapter) GetByNumber(ctx context.Context, orderNo string) (*domain.Order, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT order_no, token, status, customer_id, customer_email, currency,
		       subtotal, shipping, tax, grand_total, transaction_id, snapshot,
		       created_at, updated_at
		FROM orders WHERE order_no = ?`, orderNo)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return order, nil
}

func (m *MySQLAdapter) MarkPaymentPending(ctx context.Context, orderNo string) error {
	return m.transition(ctx, orderNo, domain.OrderStatusPaymentPending,
		domain.OrderStatusCreated)
}

func (m *MySQLAdapter) Place(ctx context.Context, orderNo, transactionID string) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, transaction_id = ?, updated_at = NOW()
		WHERE order_no = ? AND status IN (?, ?)`,
		domain.OrderStatusPlaced, transactionID, orderNo,
		domain.OrderStatusCreated, domain.OrderStatusPaymentPending)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (m *MySQLAdapter) Fail(ctx context.Context, orderNo string) error {
	return m.transition(ctx, orderNo, domain.OrderStatusFailed,
		domain.OrderStatusCreated, domain.OrderStatusPaymentPending)
}

func (m *MySQLAdapter) MarkAuthorizedUnplaced(ctx context.Context, orderNo string) error {
	return m.transition(ctx, orderNo, domain.OrderStatusAuthorizedUnplaced,
		domain.OrderStatusCreated, domain.OrderStatusPaymentPending)
}

// transition is a single-statement transactional scope guarded by the
// current status; a zero row count means the order already moved elsewhere.
func (m *MySQLAdapter) transition(ctx context.Context, orderNo string, to domain.OrderStatus, from ...domain.OrderStatus) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	args := make([]interface{}, 0, len(from)+2)
	args = append(args, to, orderNo)
	for _, s := range from {
		args = append(args, s)
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = NOW()
		WHERE order_no = ? AND status IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (m *MySQLAdapter) ListPlacedByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT order_no, token, status, customer_id, customer_email, currency,
		       subtotal, shipping, tax, grand_total, transaction_id, snapshot,
		       created_at, updated_at
		FROM orders WHERE customer_id = ? AND status = ?
		ORDER BY id DESC`, customerID, domain.OrderStatusPlaced)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order                          domain.Order
		subtotal, shipping, tax, grand string
		snapshot                       []byte
	)
	err := row.Scan(
		&order.OrderNo, &order.Token, &order.Status, &order.CustomerID,
		&order.CustomerEmail, &order.Currency,
		&subtotal, &shipping, &tax, &grand,
		&order.TransactionID, &snapshot,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if order.Totals.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("parse subtotal: %w", err)
	}
	if order.Totals.Shipping, err = decimal.NewFromString(shipping); err != nil {
		return nil, fmt.Errorf("parse shipping: %w", err)
	}
	if order.Totals.Tax, err = decimal.NewFromString(tax); err != nil {
		return nil, fmt.Errorf("parse tax: %w", err)
	}
	if order.Totals.GrandTotal, err = decimal.NewFromString(grand); err != nil {
		return nil, fmt.Errorf("parse grand total: %w", err)
	}

	var snap orderSnapshot
	if err := json.Unmarshal(snapshot, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	order.Shipments = snap.Shipments
	order.BillingAddress = snap.BillingAddress
	order.PaymentInfo = snap.PaymentInfo

	return &order, nil
}
