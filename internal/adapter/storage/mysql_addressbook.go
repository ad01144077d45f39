package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/storefront/checkout/internal/core/domain"
)

// MySQLAddressBook stores a registered customer's shipping addresses.
// Deduplication by address equality is the caller's job; the book itself
// only guards against duplicate names per customer.
type MySQLAddressBook struct {
	db *sql.DB
}

func NewMySQLAddressBook(db *sql.DB) *MySQLAddressBook {
	return &MySQLAddressBook{db: db}
}

func (b *MySQLAddressBook) Stored(ctx context.Context, customerID string) ([]domain.Address, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT address FROM customer_addresses WHERE customer_id = ? ORDER BY id`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	var addresses []domain.Address
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		var addr domain.Address
		if err := json.Unmarshal(raw, &addr); err != nil {
			return nil, fmt.Errorf("unmarshal address: %w", err)
		}
		addresses = append(addresses, addr)
	}
	return addresses, rows.Err()
}

func (b *MySQLAddressBook) Save(ctx context.Context, customerID, name string, address domain.Address) error {
	raw, err := json.Marshal(address)
	if err != nil {
		return fmt.Errorf("marshal address: %w", err)
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO customer_addresses (customer_id, name, address, created_at)
		VALUES (?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE address = VALUES(address)`,
		customerID, name, raw)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}
