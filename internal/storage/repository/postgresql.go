// Package repository реализует хранилище клуба на PostgreSQL: пользователи,
// профили игроков, тарифные планы и промокоды.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'player_profiles'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("required table player_profiles query error: %w", err)
	}
	if !exists {
		return errors.New("required table player_profiles missing")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// rollback откатывает транзакцию, если она ещё не зафиксирована.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}

// validUID сообщает, является ли uid корректным UUID. Колонки user_uid имеют тип uuid,
// поэтому некорректная строка заведомо ничего не найдёт.
func validUID(uid string) bool {
	_, err := uuid.Parse(uid)
	return err == nil
}

// validUIDs отбрасывает некорректные uid.
func validUIDs(uids []string) []string {
	valid := make([]string, 0, len(uids))
	for _, uid := range uids {
		if validUID(uid) {
			valid = append(valid, uid)
		}
	}
	return valid
}
