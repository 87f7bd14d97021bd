package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ojieame12/concierge-clean-sub002/internal/ranking"
)

// rankInput is the JSON file format consumed by `rank`.
type rankInput struct {
	Products       []ranking.Product      `json:"products"`
	Query          string                 `json:"query"`
	Constraints    map[string]interface{} `json:"constraints"`
	Weights        *ranking.Weights       `json:"weights"`
	PriorityBrands []string               `json:"priorityBrands"`
	PriceRange     *ranking.PriceRange    `json:"priceRange"`
}

func newRankCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Re-rank candidate products against a shopping context",
		RunE: func(cmd *cobra.Command, args []string) error {
			var input rankInput
			if err := readJSONFile(inputPath, &input); err != nil {
				return err
			}
			if len(input.Products) == 0 {
				return fmt.Errorf("input has no products")
			}

			defaults := ranking.DefaultWeights()
			baseWeights := ranking.Weights{
				Semantic:      cfg.RankingWeight("semantic", defaults.Semantic),
				FacetMatch:    cfg.RankingWeight("facet_match", defaults.FacetMatch),
				ReviewQuality: cfg.RankingWeight("review_quality", defaults.ReviewQuality),
				PriceFit:      cfg.RankingWeight("price_fit", defaults.PriceFit),
				BrandPriority: cfg.RankingWeight("brand_priority", defaults.BrandPriority),
			}

			reranker := ranking.NewReranker(logger)
			rctx := ranking.RankContext{
				Query:          input.Query,
				Constraints:    input.Constraints,
				Weights:        baseWeights,
				PriorityBrands: input.PriorityBrands,
				PriceRange:     input.PriceRange,
			}

			var results []ranking.ScoredProduct
			if input.Weights != nil {
				results = reranker.RankWithWeights(input.Products, rctx, *input.Weights)
			} else {
				results = reranker.Rank(input.Products, rctx)
			}

			ui.Success("Ranked %d products", len(results))
			return printJSON(results)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSON file with products and ranking context")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
