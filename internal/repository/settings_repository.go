package repository

import (
	"database/sql"
)

type SettingsRepositoryInterface interface {
	Load() (map[string]string, error)
	Set(key, value string) error
}

// SettingsRepository persists the worker control knobs as key/value rows,
// so the server can flip them and the worker picks them up next cycle.
type SettingsRepository struct {
	DB *sql.DB
}

func (r *SettingsRepository) Load() (map[string]string, error) {
	rows, err := r.DB.Query(`SELECT key, value FROM settings WHERE key LIKE 'worker.%'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		values[k] = v
	}
	return values, rows.Err()
}

func (r *SettingsRepository) Set(key, value string) error {
	query := `
        INSERT INTO settings (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()
    `
	_, err := r.DB.Exec(query, key, value)
	return err
}

var _ SettingsRepositoryInterface = (*SettingsRepository)(nil)
