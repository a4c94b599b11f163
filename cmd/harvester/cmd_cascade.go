package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

var (
	cascadeMaker       string
	cascadeVariance    string
	cascadeConstraints []string
)

var cascadeCmd = &cobra.Command{
	Use:   "cascade <category> <component-type> <canonical-name> <property> <new-value>",
	Short: "Push an authoritative component value across its linked products",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, componentType, canonicalName, property, valueNew := args[0], args[1], args[2], args[3], args[4]

		pushed, err := db.PushAuthoritativeValue(category, componentType, canonicalName, cascadeMaker, property, valueNew)
		if err != nil {
			return fmt.Errorf("push authoritative value: %w", err)
		}
		fmt.Printf("pushed to %d linked products\n", len(pushed.Compliant))

		if cascadeVariance != "" {
			result, err := db.EvaluateVariance(category, componentType, canonicalName, cascadeMaker, property, valueNew, model.VariancePolicy(cascadeVariance))
			if err != nil {
				return fmt.Errorf("evaluate variance: %w", err)
			}
			fmt.Printf("variance: compliant=%d violations=%v\n", len(result.Compliant), result.Violations)
		}

		if len(cascadeConstraints) > 0 {
			result, err := db.EvaluateConstraints(category, componentType, canonicalName, cascadeMaker,
				map[string]string{property: valueNew}, cascadeConstraints)
			if err != nil {
				return fmt.Errorf("evaluate constraints: %w", err)
			}
			fmt.Printf("constraints: compliant=%d violations=%v\n", len(result.Compliant), result.Violations)
		}

		return nil
	},
}

func init() {
	cascadeCmd.Flags().StringVar(&cascadeMaker, "maker", "", "component maker (disambiguates identical canonical names)")
	cascadeCmd.Flags().StringVar(&cascadeVariance, "variance", "", "variance policy to evaluate: upper_bound, lower_bound, or range")
	cascadeCmd.Flags().StringSliceVar(&cascadeConstraints, "constraint", nil, "constraint expression to evaluate (repeatable)")
}
