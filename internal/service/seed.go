// seed.go — засеивание демо-записей при пустом хранилище.
// Три одобренных записи с реальными proof-хешами — marketplace
// не выглядит пустым при первом запуске.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bigkaa/hashirwa/internal/domain/model"
	"github.com/bigkaa/hashirwa/internal/proof"
)

// demoInputs — исходные данные демо-записей.
var demoInputs = []model.FormInput{
	{
		ProducerName:  "Shizuoka Green Tea Co.",
		Prefecture:    "静岡県",
		Product:       "Green Tea",
		Certification: "JAS Organic",
		LotSize:       "500kg",
		HarvestDate:   "2024-05-15",
		ContactEmail:  "info@shizuoka-tea.jp",
		WalletAddress: "0x1234567890abcdef1234567890abcdef12345678",
		Notes:         "Premium grade sencha from mountain slopes",
	},
	{
		ProducerName:  "Aomori Apple Farmers Union",
		Prefecture:    "青森県",
		Product:       "Apple",
		Certification: "JGAP",
		LotSize:       "1000kg",
		HarvestDate:   "2024-10-20",
		ContactEmail:  "contact@aomori-apples.jp",
		WalletAddress: "0xabcdef1234567890abcdef1234567890abcdef12",
		Notes:         "Fuji apples from certified organic farms",
	},
	{
		ProducerName:  "Hokkaidō Rice Collective",
		Prefecture:    "北海道",
		Product:       "Rice",
		Certification: "JA",
		LotSize:       "2000kg",
		HarvestDate:   "2024-09-30",
		ContactEmail:  "hello@hokkaido-rice.jp",
		WalletAddress: "0x567890abcdef1234567890abcdef1234567890ab",
		Notes:         "Premium short-grain rice variety",
	},
}

// SeedDemo добавляет демо-записи, если хранилище пусто.
// Записи создаются сразу в статусе approved с одинаковыми метками времени.
// Непустое хранилище не модифицируется.
func (s *LifecycleService) SeedDemo(ctx context.Context) error {
	existing, err := s.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("проверка хранилища перед seed: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	now := s.now().UTC().Format(model.TimestampLayout)
	for _, input := range demoInputs {
		meta := buildMetadata(&input)
		pf, err := proof.Compute(&meta)
		if err != nil {
			return fmt.Errorf("proof демо-записи %q: %w", input.ProducerName, err)
		}

		rec := &model.Record{
			ID:       s.alloc.Next(),
			Status:   model.StatusApproved,
			Metadata: meta,
			Proof:    pf,
			Timestamps: model.Timestamps{
				CreatedAt: now,
				UpdatedAt: now,
			},
		}
		if err := s.store.Append(ctx, rec); err != nil {
			return fmt.Errorf("seed записи %q: %w", input.ProducerName, err)
		}
	}

	s.logger.Info("Демо-записи добавлены", slog.Int("count", len(demoInputs)))
	return nil
}
