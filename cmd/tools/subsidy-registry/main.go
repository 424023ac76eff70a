// cmd/tools/subsidy-registry/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"solar-loan-workers/internal/models"
	"solar-loan-workers/internal/services/calculation"
	"solar-loan-workers/pkg/registry"
)

const defaultPath = "configs/subsidy.json"

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	upsertCmd := flag.NewFlagSet("upsert", flag.ExitOnError)
	quoteCmd := flag.NewFlagSet("quote", flag.ExitOnError)

	listPath := listCmd.String("path", defaultPath, "Path to subsidy registry file")
	validatePath := validateCmd.String("path", defaultPath, "Path to subsidy registry file")

	upsertPath := upsertCmd.String("path", defaultPath, "Path to subsidy registry file")
	state := upsertCmd.String("state", "", "State name (e.g., Karnataka)")
	percentage := upsertCmd.Float64("percentage", 0, "Percentage of system cost")
	maxAmount := upsertCmd.Float64("max", 0, "Maximum subsidy amount")

	quotePath := quoteCmd.String("path", defaultPath, "Path to subsidy registry file")
	quoteState := quoteCmd.String("state", "", "State name")
	capacity := quoteCmd.Float64("kw", 0, "System capacity in kW")
	systemType := quoteCmd.String("type", string(models.SystemTypeResidential), "residential or commercial")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		err = listStates(os.Stdout, *listPath)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		err = validateRegistry(os.Stdout, *validatePath)

	case "upsert":
		upsertCmd.Parse(os.Args[2:])
		if *state == "" {
			fmt.Println("Error: state is required for upsert.")
			upsertCmd.Usage()
			os.Exit(1)
		}
		err = upsertState(*upsertPath, *state, registry.Tier{Percentage: *percentage, MaxAmount: *maxAmount})
		if err == nil {
			fmt.Printf("Upserted state tier: %s\n", *state)
		}

	case "quote":
		quoteCmd.Parse(os.Args[2:])
		err = quote(os.Stdout, *quotePath, *capacity, *quoteState, models.SystemType(*systemType))

	case "help":
		fallthrough
	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func listStates(w io.Writer, path string) error {
	reg, err := registry.LoadSubsidyRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	c := reg.Central
	fmt.Fprintf(w, "central residential <=3kW  %6.2f%%  max %.2f\n", c.Residential.UpTo3KW.Percentage, c.Residential.UpTo3KW.MaxAmount)
	fmt.Fprintf(w, "central residential >3kW   %6.2f%%  max %.2f\n", c.Residential.Above3KW.Percentage, c.Residential.Above3KW.MaxAmount)
	fmt.Fprintf(w, "central commercial         %6.2f%%  max %.2f\n", c.Commercial.Percentage, c.Commercial.MaxAmount)
	for _, s := range reg.States() {
		t, _ := reg.StateTier(s)
		fmt.Fprintf(w, "state %-20s %6.2f%%  max %.2f\n", s, t.Percentage, t.MaxAmount)
	}
	return nil
}

func validateRegistry(w io.Writer, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to read registry: %w", err)
	}
	reg, err := registry.LoadSubsidyRegistry(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Registry validation passed. Found %d state tiers.\n", len(reg.States()))
	return nil
}

// upsertState loads the registry (or the defaults when the file is missing), sets the tier and saves.
func upsertState(path, state string, tier registry.Tier) error {
	reg, err := registry.LoadSubsidyRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	reg.UpsertState(state, tier)
	if err := reg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return reg.Save(path)
}

func quote(w io.Writer, path string, capacityKW float64, state string, systemType models.SystemType) error {
	reg, err := registry.LoadSubsidyRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	result, err := calculation.NewSubsidyCalculator(reg).Compute(capacityKW, state, systemType)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "central %.2f  state %.2f  total %.2f\n", result.CentralSubsidy, result.StateSubsidy, result.SubsidyAmount)
	return nil
}

func help() {
	fmt.Print(`
Usage: subsidy-registry <command> [flags]

Commands:
  list      Print the central scheme and every state tier
  validate  Validate the registry file
  upsert    Add or replace a state tier
  quote     Compute the subsidy for a system
  help      Show this help message

Examples:
  subsidy-registry list -path configs/subsidy.json
  subsidy-registry upsert -state Karnataka -percentage 10 -max 10000
  subsidy-registry quote -kw 3 -state Maharashtra

Use 'subsidy-registry <command> -h' for more information about a command.
` + "\n")
}
