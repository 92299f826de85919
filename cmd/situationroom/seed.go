package main

import (
	"fmt"
	"os"

	"situationroom/internal/db"
	"situationroom/internal/service"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var seedFile string

// seedCmd is the parent of reference data loaders
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference data",
}

// seedPollingUnitsCmd loads polling units from a YAML file of the form
//
//	polling_units:
//	  - state: Lagos
//	    lga: Ikeja
//	    registration_area: Alausa
//	    polling_unit: PU 001
var seedPollingUnitsCmd = &cobra.Command{
	Use:   "polling-units",
	Short: "Load polling units from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		units, err := readPollingUnits(seedFile)
		if err != nil {
			return err
		}

		pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := service.NewPollingUnitService(pool.Queries).Seed(cmd.Context(), units)
		if err != nil {
			return fmt.Errorf("seeded %d of %d rows: %w", n, len(units), err)
		}
		cmd.Printf("Seeded %d of %d polling units\n", n, len(units))
		return nil
	},
}

type pollingUnitFile struct {
	PollingUnits []service.PollingUnitInput `yaml:"polling_units"`
}

func readPollingUnits(path string) ([]service.PollingUnitInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var f pollingUnitFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f.PollingUnits, nil
}

func init() {
	seedPollingUnitsCmd.Flags().StringVar(&seedFile, "file", "polling-units.yaml", "YAML file to load")
	seedCmd.AddCommand(seedPollingUnitsCmd)
}
