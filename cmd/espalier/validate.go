package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/validator"
	"github.com/aretw0/espalier/pkg/adapters/graphdoc"
)

var validateCmd = &cobra.Command{
	Use:   "validate <rig.yaml>",
	Short: "Check a graph document for consistency",
	Long:  `Loads a rig or graph document and compiles every layer, reporting unresolved targets, unbound parameters, missing clips and malformed curves.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		warnings, err := runValidate(args[0])
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		for _, w := range warnings {
			fmt.Printf("warning: %s\n", w)
		}
		if len(warnings) > 0 {
			fmt.Printf("Rig is valid with %d warning(s).\n", len(warnings))
			return
		}
		fmt.Println("Rig is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) ([]validator.Finding, error) {
	rig, err := graphdoc.LoadFile(path)
	if err != nil {
		return nil, err
	}
	eng, err := espalier.New(rig)
	if err != nil {
		return nil, err
	}

	var warnings []validator.Finding
	for layer := 0; layer < eng.Layers(); layer++ {
		warnings = append(warnings, validator.Lint(eng.Definition(layer))...)
	}
	return warnings, nil
}
