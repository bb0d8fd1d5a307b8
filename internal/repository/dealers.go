package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"farmops/internal/domain"

	"github.com/jackc/pgx/v5"
)

type DealerInput struct {
	Name    string
	Phone   *string
	Website *string
}

type DealerPatch struct {
	Name    *string
	Phone   *string
	Website *string
}

func (r *Repository) ListDealers(ctx context.Context) ([]domain.Dealer, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, phone, website FROM dealers ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list dealers: %w", err)
	}
	defer rows.Close()

	dealers := make([]domain.Dealer, 0)
	for rows.Next() {
		dealer, err := scanDealerRow(rows)
		if err != nil {
			return nil, err
		}
		dealers = append(dealers, dealer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dealers: %w", err)
	}
	return dealers, nil
}

func (r *Repository) GetDealer(ctx context.Context, id int64) (*domain.Dealer, error) {
	row := r.pool.QueryRow(ctx, "SELECT id, name, phone, website FROM dealers WHERE id = $1", id)
	dealer, err := scanDealerRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get dealer %d: %w", id, err)
	}
	return &dealer, nil
}

func (r *Repository) CreateDealer(ctx context.Context, input DealerInput) (domain.Dealer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Dealer{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO dealers (name, phone, website)
		VALUES ($1, $2, $3)
		RETURNING id, name, phone, website
	`, name, normalizeNullable(input.Phone), normalizeNullable(input.Website))
	dealer, err := scanDealerRow(row)
	if err != nil {
		return domain.Dealer{}, fmt.Errorf("create dealer: %w", err)
	}
	return dealer, nil
}

func (r *Repository) UpdateDealer(ctx context.Context, id int64, patch DealerPatch) (*domain.Dealer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin dealer patch tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, "SELECT id, name, phone, website FROM dealers WHERE id = $1 FOR UPDATE", id)
	dealer, err := scanDealerRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load dealer for patch: %w", err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		dealer.Name = name
	}
	if patch.Phone != nil {
		dealer.Phone = normalizeNullable(patch.Phone)
	}
	if patch.Website != nil {
		dealer.Website = normalizeNullable(patch.Website)
	}

	row = tx.QueryRow(ctx, `
		UPDATE dealers
		SET name = $2, phone = $3, website = $4
		WHERE id = $1
		RETURNING id, name, phone, website
	`, id, dealer.Name, dealer.Phone, dealer.Website)
	updated, err := scanDealerRow(row)
	if err != nil {
		return nil, fmt.Errorf("update dealer: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit dealer patch tx: %w", err)
	}
	return &updated, nil
}

func (r *Repository) DeleteDealer(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM dealers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete dealer %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDealerRow(row pgx.Row) (domain.Dealer, error) {
	var (
		dealer  domain.Dealer
		phone   sql.NullString
		website sql.NullString
	)
	if err := row.Scan(&dealer.ID, &dealer.Name, &phone, &website); err != nil {
		return domain.Dealer{}, err
	}
	if phone.Valid {
		value := phone.String
		dealer.Phone = &value
	}
	if website.Valid {
		value := website.String
		dealer.Website = &value
	}
	return dealer, nil
}
