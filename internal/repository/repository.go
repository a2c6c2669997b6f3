// Пакет repository — слой доступа к хранилищу записей HashiRWA.
//
// RecordStore — единственный интерфейс, от которого зависят Lifecycle-
// и Listing-сервисы. Реализации: JSON-файл (по умолчанию), PostgreSQL
// и in-memory (для тестов). Переходы статусов выполняются атомарным
// условным обновлением (UpdateStatus) — конкурентные admin-действия
// не теряют обновления.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bigkaa/hashirwa/internal/domain/model"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — запись с таким id уже существует.
	ErrConflict = errors.New("запись с таким id уже существует")
	// ErrStaleStatus — условное обновление не прошло: текущий статус
	// записи уже не совпадает с ожидаемым.
	ErrStaleStatus = errors.New("статус записи уже изменён")
)

// RecordStore — контракт хранилища записей.
// LoadAll/SaveAll — полный снапшот в порядке вставки;
// GetByID/Append/Update/UpdateStatus — точечные операции поверх того же
// состояния. Переходы статусов выполняются только через UpdateStatus:
// это compare-and-set, защищающий от потерянных обновлений при
// конкурентных admin-действиях.
type RecordStore interface {
	// LoadAll возвращает все записи в порядке вставки.
	LoadAll(ctx context.Context) ([]*model.Record, error)
	// SaveAll перезаписывает хранилище полным снапшотом записей.
	SaveAll(ctx context.Context, records []*model.Record) error
	// GetByID возвращает запись по id или ErrNotFound.
	GetByID(ctx context.Context, id int64) (*model.Record, error)
	// Append добавляет новую запись. ErrConflict при дубликате id.
	Append(ctx context.Context, rec *model.Record) error
	// Update заменяет существующую запись по id. ErrNotFound если её нет.
	Update(ctx context.Context, rec *model.Record) error
	// UpdateStatus атомарно переводит запись из статуса from в to,
	// выставляя updated_at, и возвращает обновлённую запись.
	// ErrNotFound если записи нет; ErrStaleStatus если её текущий
	// статус не равен from (конкурентный переход успел раньше).
	UpdateStatus(ctx context.Context, id int64, from, to model.Status, updatedAt string) (*model.Record, error)
}

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозиторий как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
