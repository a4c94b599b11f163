package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CdubVentures/spec-harvester-sub006/internal/objectstore"
	"github.com/CdubVentures/spec-harvester-sub006/internal/seeder"
)

var seedComponentTypes []string
var seedProductIDs []string

var seedCmd = &cobra.Command{
	Use:   "seed <category>",
	Short: "Populate a category's database from helper-files JSON artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := args[0]

		helperFiles := objectstore.New(cfg.HelperFilesRoot)
		localOutput := objectstore.New(cfg.LocalOutputRoot)
		sd := seeder.New(db, helperFiles, localOutput)

		productIDs := seedProductIDs
		if len(productIDs) == 0 {
			products, err := db.ProductsByCategory(category)
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}
			for _, p := range products {
				productIDs = append(productIDs, p.ProductID)
			}
		}

		result := sd.SeedCategory(category, seedComponentTypes, productIDs)
		fmt.Printf("components=%d overrides=%d enums=%d products_with_candidates=%d products_with_overrides=%d errors=%d\n",
			result.ComponentsSeeded, result.ComponentOverrides, result.EnumsSeeded,
			result.ProductsWithCandidates, result.ProductsWithOverrides, len(result.Errors))
		for _, e := range result.Errors {
			fmt.Println("  -", e)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringSliceVar(&seedComponentTypes, "component-type", nil, "component types to seed (repeatable)")
	seedCmd.Flags().StringSliceVar(&seedProductIDs, "product", nil, "product ids to seed candidates/overrides for (default: every known product in the category)")
}
