package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ojieame12/concierge-clean-sub002/internal/ontology"
	"github.com/ojieame12/concierge-clean-sub002/internal/storage"
)

// ontologyInput is the JSON file format consumed by `ontology build`.
type ontologyInput struct {
	FacetSamples []ontology.Observation `json:"facetSamples"`
	SpecSamples  []ontology.Observation `json:"specSamples"`
}

func newOntologyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ontology",
		Short: "Build and inspect shop ontologies",
	}
	cmd.AddCommand(newOntologyBuildCmd())
	return cmd
}

func newOntologyBuildCmd() *cobra.Command {
	var (
		inputPath string
		shopID    string
		persist   bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an ontology definition from facet and spec samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			var input ontologyInput
			if err := readJSONFile(inputPath, &input); err != nil {
				return err
			}

			builder := ontology.NewBuilderWithLimits(cfg.Ontology.MaxSamplesPerAttribute, cfg.Ontology.TopFacets)
			definition := builder.Build(input.FacetSamples, input.SpecSamples)

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

				payload, err := json.Marshal(definition)
				if err != nil {
					return fmt.Errorf("encode definition: %w", err)
				}
				repo := storage.NewOntologyRepository(db)
				if err := repo.Save(context.Background(), &storage.OntologyRecord{
					ShopID:     shop,
					Version:    definition.Version,
					Definition: payload,
				}); err != nil {
					return fmt.Errorf("persist ontology: %w", err)
				}
				ui.Success("Ontology %s persisted for shop %s", definition.Version, shopID)
			}

			ui.Success("Built ontology %s with %d attributes", definition.Version, len(definition.Attributes))
			return printJSON(definition)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSON file with facetSamples and specSamples")
	cmd.Flags().StringVar(&shopID, "shop-id", "", "shop UUID for persistence")
	cmd.Flags().BoolVar(&persist, "persist", false, "store the built ontology in the database")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
