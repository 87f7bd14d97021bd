package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ojieame12/concierge-clean-sub002/internal/knowledge"
	"github.com/ojieame12/concierge-clean-sub002/internal/storage"
	"github.com/ojieame12/concierge-clean-sub002/internal/units"
)

// packsInput is the JSON file format consumed by `packs build`.
type packsInput struct {
	OntologyVersion string                     `json:"ontologyVersion"`
	UnitSamples     []units.Sample             `json:"unitSamples"`
	Products        []knowledge.ProductSummary `json:"products"`
	Evidence        []knowledge.EvidenceRow    `json:"evidence"`
}

func newPacksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packs",
		Short: "Build per-product knowledge packs",
	}
	cmd.AddCommand(newPacksBuildCmd())
	return cmd
}

func newPacksBuildCmd() *cobra.Command {
	var (
		inputPath string
		shopID    string
		persist   bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Discover unit rules and build knowledge packs for every product",
		RunE: func(cmd *cobra.Command, args []string) error {
			var input packsInput
			if err := readJSONFile(inputPath, &input); err != nil {
				return err
			}
			if len(input.Products) == 0 {
				return fmt.Errorf("input has no products")
			}

			rules := units.DiscoverRules(input.UnitSamples)
			ui.Info("Discovered %d unit rules", len(rules))

			builder := knowledge.NewPackBuilder(rules)
			evidenceByProduct := map[string][]knowledge.EvidenceRow{}
			for _, row := range input.Evidence {
				evidenceByProduct[row.ProductID] = append(evidenceByProduct[row.ProductID], row)
			}

			bar := ui.NewProgressBar(len(input.Products), "building packs")
			packs := make([]knowledge.Pack, 0, len(input.Products))
			for _, product := range input.Products {
				packs = append(packs, builder.BuildPack(product, evidenceByProduct[product.ProductID], input.OntologyVersion))
				if bar != nil {
					_ = bar.Add(1)
				}
			}

			if persist {
				shop, err := uuid.Parse(shopID)
				if err != nil {
					return fmt.Errorf("invalid --shop-id: %w", err)
				}
				db, err := openDB()
				if err != nil {
					return err
				}
				defer db.Close()

				repo := storage.NewPackRepository(db)
				persisted := 0
				for _, pack := range packs {
					productID, err := uuid.Parse(pack.ProductID)
					if err != nil {
						ui.Warning("Skipping non-UUID product %s", pack.ProductID)
						continue
					}
					payload, err := json.Marshal(pack)
					if err != nil {
						return fmt.Errorf("encode pack: %w", err)
					}
					if err := repo.Upsert(context.Background(), &storage.PackRecord{
						ShopID:          shop,
						ProductID:       productID,
						OntologyVersion: input.OntologyVersion,
						Pack:            payload,
					}); err != nil {
						return fmt.Errorf("persist pack %s: %w", pack.ProductID, err)
					}
					persisted++
				}
				ui.Success("Persisted %d packs for shop %s", persisted, shopID)
			}

			ui.Success("Built %d knowledge packs", len(packs))
			return printJSON(packs)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSON file with products, evidence, and unit samples")
	cmd.Flags().StringVar(&shopID, "shop-id", "", "shop UUID for persistence")
	cmd.Flags().BoolVar(&persist, "persist", false, "store the built packs in the database")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
