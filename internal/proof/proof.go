// Пакет proof — вычисление симулированного криптографического proof.
// SHA-256 над канонической формой метаданных + производный идентификатор
// testnet-транзакции. Реального взаимодействия с блокчейном нет —
// хеш выполняет роль «on-chain» подтверждения в рамках демо.
package proof

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bigkaa/hashirwa/internal/canonical"
	"github.com/bigkaa/hashirwa/internal/domain/model"
)

// TxIDPrefix — префикс симулированного идентификатора testnet-транзакции.
const TxIDPrefix = "testnet:"

// txIDHashLen — количество hex-символов хеша в идентификаторе транзакции.
const txIDHashLen = 16

// Compute вычисляет proof для метаданных: SHA-256 hex-хеш канонической
// формы и симулированный tx id ("testnet:" + первые 16 hex-символов хеша).
// Идентичные по содержимому метаданные всегда дают идентичный proof.
func Compute(m *model.Metadata) (model.Proof, error) {
	data, err := canonical.Marshal(m.CanonicalMap())
	if err != nil {
		return model.Proof{}, fmt.Errorf("каноническая сериализация метаданных: %w", err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	return model.Proof{
		Hash:           hash,
		SimTestnetTxID: TxIDPrefix + hash[:txIDHashLen],
	}, nil
}
