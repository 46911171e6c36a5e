package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pharmamind/m/domain"
)

const settingsKey = "app"

// GetSettings returns the saved settings, or the defaults before the first save.
func (s *Store) GetSettings(ctx context.Context) (domain.Settings, error) {
	return getSettings(ctx, s.db)
}

func getSettings(ctx context.Context, q DBTX) (domain.Settings, error) {
	var out domain.Settings
	err := q.GetContext(ctx, &out, `SELECT discount_normal, discount_special, discount_other, pharmacy_name FROM settings WHERE id = $1`, settingsKey)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return out, nil
}

// SaveSettings overwrites the settings as a whole.
func (s *Store) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return saveSettings(ctx, s.db, settings)
}

func saveSettings(ctx context.Context, q DBTX, settings domain.Settings) error {
	_, err := q.ExecContext(ctx, `INSERT INTO settings (id, discount_normal, discount_special, discount_other, pharmacy_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			discount_normal = excluded.discount_normal,
			discount_special = excluded.discount_special,
			discount_other = excluded.discount_other,
			pharmacy_name = excluded.pharmacy_name`,
		settingsKey, settings.DiscountNormal, settings.DiscountSpecial, settings.DiscountOther, settings.PharmacyName)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
