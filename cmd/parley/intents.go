package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var intentsCmd = &cobra.Command{
	Use:   "intents",
	Short: "List registered intents",
	Long: `Lists every intent the bundled skills register.
With --mermaid, prints the resolution pipeline as a Mermaid flowchart.
Adding --session highlights the intent that session is waiting on.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, backend, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer backend.Close()

		engine, err := cli.BuildEngine(cfg, backend, logger)
		if err != nil {
			return err
		}

		if asMermaid, _ := cmd.Flags().GetBool("mermaid"); asMermaid {
			var overlay *graph.Overlay
			if id, _ := cmd.Flags().GetString("session"); id != "" {
				sess, err := engine.Session(cmd.Context(), id)
				if err != nil {
					return err
				}
				overlay = graph.OverlayFor(sess)
			}
			fmt.Print(graph.GenerateMermaid(engine.Sources(), engine.Catalog(), cfg.ConfidenceFloor, overlay))
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INTENT\tSKILL\tCONFIDENCE\tCONFIRM\tDESCRIPTION")
		for _, info := range engine.Catalog() {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%t\t%s\n", info.Intent, info.Skill, info.Confidence, info.RequiresConfirmation, info.Description)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(intentsCmd)
	intentsCmd.Flags().Bool("mermaid", false, "Print a Mermaid flowchart instead of a table")
	intentsCmd.Flags().String("session", "", "Highlight what this session is waiting on (with --mermaid)")
}
