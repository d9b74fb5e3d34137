package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imbuy/marketplace/internal/application"
	"github.com/imbuy/marketplace/internal/domain"
)

const lotColumns = `id, title, description, start_price, current_price, bid_step,
		       owner_id, category_id, winner_id, status, start_date, end_date, created_at`

type LotRepository struct {
	db *pgxpool.Pool
}

func NewLotRepository(db *pgxpool.Pool) *LotRepository {
	return &LotRepository{db: db}
}

func (r *LotRepository) Save(ctx context.Context, lot domain.Lot) (domain.Lot, error) {
	query := `
		INSERT INTO lots (
			title, description, start_price, current_price, bid_step,
			owner_id, category_id, winner_id, status, start_date, end_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	row := toDBModel(lot)
	err := r.db.QueryRow(ctx, query,
		row.Title,
		row.Description,
		row.StartPrice,
		row.CurrentPrice,
		row.BidStep,
		row.OwnerID,
		row.CategoryID,
		row.WinnerID,
		row.Status,
		row.StartDate,
		row.EndDate,
		row.CreatedAt,
	).Scan(&lot.ID)
	if err != nil {
		return domain.Lot{}, fmt.Errorf("failed to save lot: %w", err)
	}

	return lot, nil
}

func (r *LotRepository) FindByID(ctx context.Context, id int64) (domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	return scanLot(row)
}

// FindByStatus returns one page of lots in a given status, ordered by id so
// repeated sweeps see a stable sequence.
func (r *LotRepository) FindByStatus(ctx context.Context, status domain.LotStatus, page, size int) ([]domain.Lot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM lots
		WHERE status = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, string(status), size, page*size)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots by status: %w", err)
	}
	defer rows.Close()

	return scanLots(rows)
}

func (r *LotRepository) FindByFilters(ctx context.Context, filter application.LotFilter, page, size int) ([]domain.Lot, error) {
	var (
		conditions []string
		args       []any
	)

	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Title != "" {
		addCondition("title ILIKE $%d", "%"+filter.Title+"%")
	}
	if filter.Status != nil {
		addCondition("status = $%d", string(*filter.Status))
	}
	if filter.CategoryID != nil {
		addCondition("category_id = $%d", *filter.CategoryID)
	}
	if filter.OwnerID != nil {
		addCondition("owner_id = $%d", *filter.OwnerID)
	}

	query := `SELECT ` + lotColumns + ` FROM lots`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, size, page*size)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lots by filters: %w", err)
	}
	defer rows.Close()

	return scanLots(rows)
}

func (r *LotRepository) Update(ctx context.Context, lot domain.Lot) error {
	query := `
		UPDATE lots SET
			title = $2, description = $3, current_price = $4, bid_step = $5,
			category_id = $6, winner_id = $7, status = $8, end_date = $9
		WHERE id = $1
	`

	row := toDBModel(lot)
	tag, err := r.db.Exec(ctx, query,
		row.ID,
		row.Title,
		row.Description,
		row.CurrentPrice,
		row.BidStep,
		row.CategoryID,
		row.WinnerID,
		row.Status,
		row.EndDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update lot %d: %w", lot.ID, domain.ErrLotNotFound)
	}

	return nil
}

func (r *LotRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete lot %d: %w", id, domain.ErrLotNotFound)
	}
	return nil
}

func scanLot(row pgx.Row) (domain.Lot, error) {
	var r lotRow
	err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Description,
		&r.StartPrice,
		&r.CurrentPrice,
		&r.BidStep,
		&r.OwnerID,
		&r.CategoryID,
		&r.WinnerID,
		&r.Status,
		&r.StartDate,
		&r.EndDate,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Lot{}, domain.ErrLotNotFound
		}
		return domain.Lot{}, fmt.Errorf("failed to scan lot: %w", err)
	}
	return toDomain(r), nil
}

func scanLots(rows pgx.Rows) ([]domain.Lot, error) {
	var lots []domain.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lots: %w", err)
	}
	return lots, nil
}
