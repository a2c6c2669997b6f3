// Пакет model — доменные модели HashiRWA.
// Record — запись о лоте сельскохозяйственной продукции с прикреплённым
// криптографическим proof. Сериализуется в snake_case (совместимость
// с форматом db.json и канонической формой для хеширования).
package model

import "time"

// Status — статус записи в жизненном цикле review.
// Закрытое перечисление: pending → approved | rejected.
// Оба конечных статуса терминальны — повторное review не предусмотрено.
type Status string

const (
	// StatusPending — запись подана и ожидает review.
	StatusPending Status = "pending"
	// StatusApproved — запись одобрена администратором.
	StatusApproved Status = "approved"
	// StatusRejected — запись отклонена администратором.
	StatusRejected Status = "rejected"
)

// Valid проверяет, что статус — одно из допустимых значений.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Label возвращает отображаемый текст статуса для UI.
// Доменное значение и display-текст разделены намеренно.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending Review"
	case StatusApproved:
		return "Approved"
	case StatusRejected:
		return "Rejected"
	}
	return string(s)
}

// Jurisdiction — юрисдикция производителя.
type Jurisdiction struct {
	// Country — страна (всегда "Japan")
	Country string `json:"country"`
	// Prefecture — префектура производителя
	Prefecture string `json:"prefecture"`
}

// Asset — описание лота продукции.
type Asset struct {
	// Category — категория актива (всегда "Agriculture")
	Category string `json:"category"`
	// Product — вид продукции (Rice, Green Tea, ...)
	Product string `json:"product"`
	// Certification — сертификация (JA, JGAP, JAS Organic), может быть пустой
	Certification string `json:"certification"`
	// LotSize — размер лота (свободный текст, например "1000kg")
	LotSize string `json:"lot_size"`
	// HarvestDate — дата сбора урожая (YYYY-MM-DD)
	HarvestDate string `json:"harvest_date"`
}

// Contacts — контакты производителя (опциональны).
type Contacts struct {
	// Email — контактный email
	Email string `json:"email"`
	// Wallet — адрес кошелька (0x...)
	Wallet string `json:"wallet"`
}

// Metadata — метаданные RWA-записи. Единственный вход для вычисления
// proof-хеша: две структурно равные Metadata всегда дают одинаковый хеш.
type Metadata struct {
	// RWAVersion — версия формата метаданных (константа 1)
	RWAVersion int `json:"rwa_version"`
	// Standard — тег стандарта (константа "hashirwa-demo")
	Standard string `json:"standard"`
	// Issuer — имя производителя
	Issuer string `json:"issuer"`
	// Jurisdiction — страна и префектура
	Jurisdiction Jurisdiction `json:"jurisdiction"`
	// Asset — описание лота
	Asset Asset `json:"asset"`
	// Contacts — контакты производителя
	Contacts Contacts `json:"contacts"`
	// Notes — произвольные заметки, может быть пустым
	Notes string `json:"notes"`
}

// CanonicalMap возвращает представление метаданных для канонической
// сериализации (canonical.Marshal). Только строки, целые числа
// и вложенные map — других типов в модели нет.
func (m *Metadata) CanonicalMap() map[string]any {
	return map[string]any{
		"rwa_version": m.RWAVersion,
		"standard":    m.Standard,
		"issuer":      m.Issuer,
		"jurisdiction": map[string]any{
			"country":    m.Jurisdiction.Country,
			"prefecture": m.Jurisdiction.Prefecture,
		},
		"asset": map[string]any{
			"category":      m.Asset.Category,
			"product":       m.Asset.Product,
			"certification": m.Asset.Certification,
			"lot_size":      m.Asset.LotSize,
			"harvest_date":  m.Asset.HarvestDate,
		},
		"contacts": map[string]any{
			"email":  m.Contacts.Email,
			"wallet": m.Contacts.Wallet,
		},
		"notes": m.Notes,
	}
}

// Proof — симулированное криптографическое подтверждение записи.
// Вычисляется один раз при создании и никогда не пересчитывается.
type Proof struct {
	// Hash — SHA-256 хеш канонической формы метаданных (64 hex-символа)
	Hash string `json:"hash"`
	// SimTestnetTxID — синтетический идентификатор testnet-транзакции:
	// "testnet:" + первые 16 hex-символов хеша
	SimTestnetTxID string `json:"sim_testnet_txid"`
}

// Timestamps — метки времени записи в формате ISO-8601 (RFC 3339, UTC).
// Хранятся строками — формат хранения и есть wire-формат.
type Timestamps struct {
	// CreatedAt — момент создания, неизменен после создания
	CreatedAt string `json:"created_at"`
	// UpdatedAt — момент последнего перехода статуса;
	// при создании равен CreatedAt
	UpdatedAt string `json:"updated_at"`
}

// Record — единица системы: запись о лоте с метаданными, proof и статусом.
type Record struct {
	// ID — уникальный целочисленный идентификатор, назначается при создании
	ID int64 `json:"id"`
	// Status — текущий статус жизненного цикла
	Status Status `json:"status"`
	// Metadata — метаданные лота (после создания не редактируются)
	Metadata Metadata `json:"metadata"`
	// Proof — хеш и симулированный tx id, вычислены при создании
	Proof Proof `json:"proof"`
	// Timestamps — created_at / updated_at
	Timestamps Timestamps `json:"timestamps"`
}

// TimestampLayout — формат хранения меток времени.
const TimestampLayout = time.RFC3339

// FormInput — входные данные формы onboarding.
// Все поля — сырые строки; нормализация (trim) и валидация
// выполняются в Lifecycle-сервисе.
type FormInput struct {
	// ProducerName — имя производителя (обязательное)
	ProducerName string `json:"producer_name"`
	// Prefecture — префектура (обязательное)
	Prefecture string `json:"prefecture"`
	// Product — вид продукции (обязательное)
	Product string `json:"product"`
	// Certification — сертификация (опционально)
	Certification string `json:"certification"`
	// LotSize — размер лота (обязательное)
	LotSize string `json:"lot_size"`
	// HarvestDate — дата сбора урожая (обязательное)
	HarvestDate string `json:"harvest_date"`
	// ContactEmail — контактный email (опционально)
	ContactEmail string `json:"contact_email"`
	// WalletAddress — адрес кошелька (опционально)
	WalletAddress string `json:"wallet_address"`
	// Notes — заметки (опционально)
	Notes string `json:"notes"`
}
