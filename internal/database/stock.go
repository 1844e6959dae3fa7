package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cancelsaga/internal/models"

	"github.com/doug-martin/goqu/v9"
)

// IncrementVariantStock returns one unit to a capacity-limited variant.
func (db *DB) IncrementVariantStock(ctx context.Context, variantID int64) error {
	ds := db.dialect.Update("offer_variants").
		Set(goqu.Record{"stock": goqu.L("stock + 1")}).
		Where(
			goqu.C("id").Eq(variantID),
			goqu.C("capacity_limited").IsTrue(),
		).
		Prepared(true)

	affected, _, err := db.execBuilt(ctx, ds)
	if err != nil {
		return fmt.Errorf("failed to increment variant stock: %w", err)
	}
	if affected == 0 {
		return ErrVariantNotFound
	}
	return nil
}

func (db *DB) CreateVariant(ctx context.Context, v *models.Variant) error {
	res, err := db.ExecContext(ctx,
		`INSERT INTO offer_variants (offer_id, name, capacity_limited, stock) VALUES (?, ?, ?, ?)`,
		v.OfferID, v.Name, v.CapacityLimited, v.Stock)
	if err != nil {
		return fmt.Errorf("failed to create variant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	v.ID = id
	return nil
}

func (db *DB) GetVariant(ctx context.Context, id int64) (*models.Variant, error) {
	var v models.Variant
	err := db.GetContext(ctx, &v,
		`SELECT id, offer_id, name, capacity_limited, stock FROM offer_variants WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return &v, nil
}
