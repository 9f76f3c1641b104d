package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/adapters/graphdoc"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <rig.yaml>",
	Short: "Export the compiled machine visualization",
	Long:  `Compiles a rig document and outputs a Mermaid diagram (graph TD) of one layer's flattened machine.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		layer, _ := cmd.Flags().GetInt("layer")

		rig, err := graphdoc.LoadFile(args[0])
		if err != nil {
			fmt.Printf("Error loading document: %v\n", err)
			os.Exit(1)
		}
		eng, err := espalier.New(rig, espalier.WithLogger(newLogger(cmd)))
		if err != nil {
			fmt.Printf("Error compiling rig: %v\n", err)
			os.Exit(1)
		}
		def := eng.Definition(layer)
		if def == nil {
			fmt.Printf("Layer %d does not exist (rig has %d)\n", layer, eng.Layers())
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(def, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Int("layer", 0, "Layer to render")
}
