package proof

import (
	"strings"
	"testing"

	"github.com/bigkaa/hashirwa/internal/domain/model"
)

// testMetadata возвращает метаданные с заполненными полями.
func testMetadata() model.Metadata {
	return model.Metadata{
		RWAVersion: 1,
		Standard:   "hashirwa-demo",
		Issuer:     "Shizuoka Green Tea Co.",
		Jurisdiction: model.Jurisdiction{
			Country:    "Japan",
			Prefecture: "静岡県",
		},
		Asset: model.Asset{
			Category:      "Agriculture",
			Product:       "Green Tea",
			Certification: "JAS Organic",
			LotSize:       "500kg",
			HarvestDate:   "2024-05-15",
		},
		Contacts: model.Contacts{
			Email:  "info@shizuoka-tea.jp",
			Wallet: "0x1234567890abcdef1234567890abcdef12345678",
		},
		Notes: "Premium grade sencha from mountain slopes",
	}
}

// TestCompute_KnownVector проверяет хеш и tx id на известном векторе.
// Эталонные значения вычислены над канонической формой метаданных.
func TestCompute_KnownVector(t *testing.T) {
	meta := testMetadata()

	pf, err := Compute(&meta)
	if err != nil {
		t.Fatalf("Compute ошибка: %v", err)
	}

	wantHash := "822ecb5c1da47afdf39546538679670c5624f9d2ed93e97e0cd603c76bec3cf6"
	if pf.Hash != wantHash {
		t.Errorf("Hash = %s, ожидался %s", pf.Hash, wantHash)
	}
	if pf.SimTestnetTxID != "testnet:822ecb5c1da47afd" {
		t.Errorf("SimTestnetTxID = %s, ожидался testnet:822ecb5c1da47afd", pf.SimTestnetTxID)
	}
}

// TestCompute_HashFormat проверяет формат хеша: 64 hex-символа в нижнем регистре.
func TestCompute_HashFormat(t *testing.T) {
	meta := testMetadata()

	pf, err := Compute(&meta)
	if err != nil {
		t.Fatalf("Compute ошибка: %v", err)
	}

	if len(pf.Hash) != 64 {
		t.Errorf("len(Hash) = %d, ожидался 64", len(pf.Hash))
	}
	for _, r := range pf.Hash {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("Hash содержит недопустимый символ %q", r)
		}
	}
}

// TestCompute_TxIDDerivation проверяет, что tx id — префикс "testnet:"
// плюс первые 16 hex-символов хеша.
func TestCompute_TxIDDerivation(t *testing.T) {
	meta := testMetadata()

	pf, err := Compute(&meta)
	if err != nil {
		t.Fatalf("Compute ошибка: %v", err)
	}

	want := TxIDPrefix + pf.Hash[:16]
	if pf.SimTestnetTxID != want {
		t.Errorf("SimTestnetTxID = %s, ожидался %s", pf.SimTestnetTxID, want)
	}
}

// TestCompute_Deterministic проверяет, что идентичные по содержимому
// метаданные дают идентичный proof.
func TestCompute_Deterministic(t *testing.T) {
	first := testMetadata()
	second := testMetadata()

	a, err := Compute(&first)
	if err != nil {
		t.Fatalf("Compute(first) ошибка: %v", err)
	}
	b, err := Compute(&second)
	if err != nil {
		t.Fatalf("Compute(second) ошибка: %v", err)
	}

	if a != b {
		t.Errorf("proof различаются: %+v и %+v", a, b)
	}
}

// TestCompute_FieldSensitivity проверяет, что изменение любого поля
// метаданных меняет хеш.
func TestCompute_FieldSensitivity(t *testing.T) {
	base := testMetadata()
	basePf, err := Compute(&base)
	if err != nil {
		t.Fatalf("Compute(base) ошибка: %v", err)
	}

	changed := testMetadata()
	changed.Notes = "другие заметки"

	pf, err := Compute(&changed)
	if err != nil {
		t.Fatalf("Compute(changed) ошибка: %v", err)
	}

	if pf.Hash == basePf.Hash {
		t.Error("хеш не изменился после изменения метаданных")
	}
}
