package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/avolkhin/fincascade/internal/model"
	"github.com/avolkhin/fincascade/internal/prior"
)

var priorsCatalogFile string

// priorsCmd represents the priors command
var priorsCmd = &cobra.Command{
	Use:   "priors",
	Short: "Inspect the scenario archetype catalog",
	Long: `Priors lists and inspects the built-in catalog of financial scenario
archetypes (bank runs, fraud collapses, acquisitions, ...) used to seed
stage planning.

The catalog is read-only input: reconstruction consumes archetypes but
never modifies them. A YAML overlay can add or replace archetypes.`,
}

var priorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog archetypes",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSTAGES\tEPISODE TYPES\tROLES")
		for _, s := range lib.Scenarios() {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", s.Name, len(s.StandardStages), len(s.KeyEpisodeTypes), len(s.KeyRoles))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nCatalog version: %s\n", prior.Version)
		return nil
	},
}

var priorsShowCmd = &cobra.Command{
	Use:   "show <archetype>",
	Short: "Show one archetype in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}

		scenario, ok := lib.Scenario(model.ScenarioName(args[0]))
		if !ok {
			return fmt.Errorf("unknown archetype %q (see 'fincascade priors list')", args[0])
		}

		data, err := yaml.Marshal(scenario)
		if err != nil {
			return fmt.Errorf("marshal archetype: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

func openLibrary() (*prior.Library, error) {
	if priorsCatalogFile != "" {
		return prior.LoadLibrary(priorsCatalogFile)
	}
	return prior.NewLibrary(), nil
}

func init() {
	rootCmd.AddCommand(priorsCmd)
	priorsCmd.AddCommand(priorsListCmd)
	priorsCmd.AddCommand(priorsShowCmd)
	priorsCmd.PersistentFlags().StringVar(&priorsCatalogFile, "catalog", "", "YAML catalog overlay")
}
