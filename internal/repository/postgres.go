// postgres.go — PostgreSQL-реализация RecordStore через pgx.
// Метаданные и proof хранятся в JSONB, метки времени — строками ISO-8601
// (wire-формат и формат хранения совпадают). Столбец seq фиксирует
// порядок вставки для LoadAll. Чистый SQL, без ORM.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bigkaa/hashirwa/internal/domain/model"
)

// recordColumns — список столбцов таблицы records для SELECT-запросов.
// DRY: одно место для всех SELECT'ов.
const recordColumns = `id, status, metadata, proof, created_at, updated_at`

// PostgresStore — RecordStore поверх таблицы records.
// Мутации выполняются в транзакциях — конкурентные read-modify-write
// циклы сериализуются на уровне БД.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore создаёт PostgreSQL-хранилище поверх пула подключений.
// Таблица должна быть создана заранее (database.Bootstrap).
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// LoadAll возвращает все записи в порядке вставки.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]*model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM records ORDER BY seq`, recordColumns)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения записей: %w", err)
	}
	defer rows.Close()

	var result []*model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации записей: %w", err)
	}
	return result, nil
}

// SaveAll перезаписывает таблицу полным снапшотом в одной транзакции.
func (s *PostgresStore) SaveAll(ctx context.Context, records []*model.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback после commit — no-op

	if _, err := tx.Exec(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("ошибка очистки таблицы records: %w", err)
	}
	for _, rec := range records {
		if err := insertRecord(ctx, tx, rec); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка коммита снапшота: %w", err)
	}
	return nil
}

// GetByID возвращает запись по id или ErrNotFound.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM records WHERE id = $1`, recordColumns)
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Append добавляет новую запись. ErrConflict при дубликате id.
func (s *PostgresStore) Append(ctx context.Context, rec *model.Record) error {
	if err := insertRecord(ctx, s.pool, rec); err != nil {
		return err
	}
	return nil
}

// Update заменяет существующую запись по id.
func (s *PostgresStore) Update(ctx context.Context, rec *model.Record) error {
	metadata, proof, err := marshalRecordJSON(rec)
	if err != nil {
		return err
	}

	query := `
		UPDATE records
		SET status = $2, metadata = $3, proof = $4,
			created_at = $5, updated_at = $6
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		rec.ID, string(rec.Status), metadata, proof,
		rec.Timestamps.CreatedAt, rec.Timestamps.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id=%d", ErrNotFound, rec.ID)
	}
	return nil
}

// UpdateStatus атомарно переводит запись from → to одним условным
// UPDATE: WHERE id AND status — первый конкурентный переход выигрывает,
// остальные получают ErrStaleStatus.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id int64, from, to model.Status, updatedAt string) (*model.Record, error) {
	query := fmt.Sprintf(`
		UPDATE records
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING %s`, recordColumns)

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, id, string(from), string(to), updatedAt))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ошибка перевода статуса: %w", err)
	}

	// Ноль строк: записи нет либо статус уже не from — различаем.
	current, getErr := s.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: id=%d, статус %s", ErrStaleStatus, id, current.Status)
}

// insertRecord вставляет запись через произвольный DBTX (pool или tx).
func insertRecord(ctx context.Context, db DBTX, rec *model.Record) error {
	metadata, proof, err := marshalRecordJSON(rec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO records (id, status, metadata, proof, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = db.Exec(ctx, query,
		rec.ID, string(rec.Status), metadata, proof,
		rec.Timestamps.CreatedAt, rec.Timestamps.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: id=%d", ErrConflict, rec.ID)
		}
		return fmt.Errorf("ошибка вставки записи: %w", err)
	}
	return nil
}

// marshalRecordJSON сериализует метаданные и proof записи для JSONB-столбцов.
func marshalRecordJSON(rec *model.Record) (metadata, proof []byte, err error) {
	metadata, err = json.Marshal(&rec.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("сериализация метаданных: %w", err)
	}
	proof, err = json.Marshal(&rec.Proof)
	if err != nil {
		return nil, nil, fmt.Errorf("сериализация proof: %w", err)
	}
	return metadata, proof, nil
}

// scanRecord читает одну строку таблицы records в модель.
func scanRecord(row pgx.Row) (*model.Record, error) {
	rec := &model.Record{}
	var status string
	var metadata, proof []byte

	if err := row.Scan(
		&rec.ID, &status, &metadata, &proof,
		&rec.Timestamps.CreatedAt, &rec.Timestamps.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
	}

	rec.Status = model.Status(status)
	if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
		return nil, fmt.Errorf("разбор метаданных записи: %w", err)
	}
	if err := json.Unmarshal(proof, &rec.Proof); err != nil {
		return nil, fmt.Errorf("разбор proof записи: %w", err)
	}
	return rec, nil
}

// isUniqueViolation проверяет, является ли ошибка нарушением
// уникального ограничения PostgreSQL (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
