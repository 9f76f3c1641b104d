package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/adapters/graphdoc"
	"github.com/aretw0/espalier/pkg/machine"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <rig.yaml>",
	Short: "Print the compiled layout of a rig",
	Long:  `Compiles a rig document and prints each layer's flattened states, clip slots, parameters and transition tables.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runInspect(args[0]); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(path string) error {
	rig, err := graphdoc.LoadFile(path)
	if err != nil {
		return err
	}
	eng, err := espalier.New(rig)
	if err != nil {
		return err
	}

	for layer := 0; layer < eng.Layers(); layer++ {
		def := eng.Definition(layer)
		fmt.Printf("Layer %d: %d states, %d clip slots, %d params, %d machines\n",
			layer, len(def.States), len(def.Clips), len(def.Params), len(def.Machines))

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  IDX\tPATH\tKIND\tCLIPS\tTRANSITIONS")
		for i := range def.States {
			sd := &def.States[i]
			fmt.Fprintf(w, "  %d\t%s\t%s\t%d\t%d\n",
				i, sd.Path, kindName(sd.Kind), sd.ClipCount, sd.TransCount)
		}
		w.Flush()

		if len(def.Params) > 0 {
			fmt.Println("  Parameters:")
			for i, p := range def.Params {
				fmt.Printf("    [%d] %s (%s) = %g\n", i, p.Name, paramTypeName(p.Type), p.Default)
			}
		}
		fmt.Println()
	}
	return nil
}

func kindName(k uint8) string {
	switch k {
	case machine.KindBlend1D:
		return "blend1d"
	case machine.KindBlend2D:
		return "blend2d"
	default:
		return "clip"
	}
}

func paramTypeName(t uint8) string {
	switch t {
	case machine.ParamTypeBool:
		return "bool"
	case machine.ParamTypeInt:
		return "int"
	default:
		return "float"
	}
}
