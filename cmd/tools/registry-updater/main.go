// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"merchant-onboarding/internal/common/config"
	"merchant-onboarding/pkg/registry"
)

const defaultRegistryPath = "configs/activity-registry.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "update":
		err = runUpdate(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "check":
		err = runCheck(os.Args[2:])
	default:
		help()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	id := fs.String("id", "", "Activity ID to update")
	field := fs.String("field", "", "Field to update (version, timeout, retries, ...)")
	value := fs.String("value", "", "New value for the field")
	fs.Parse(args)

	if *id == "" || *field == "" || *value == "" {
		fs.Usage()
		return fmt.Errorf("id, field, and value are required for update")
	}

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Update(*id, *field, *value); err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("update leaves registry invalid: %w", err)
	}
	if err := registry.Save(reg, *path, time.Now()); err != nil {
		return err
	}
	fmt.Printf("Updated activity %s, field %s to %s\n", *id, *field, *value)
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}
	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

// runCheck cross-checks the registry against the workers section of a
// config file.
func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	path := fs.String("path", defaultRegistryPath, "Path to registry file")
	configPath := fs.String("config", "configs/config.yaml", "Path to worker manager config")
	fs.Parse(args)

	reg, err := registry.LoadRegistry(*path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		return err
	}

	configured := make([]string, 0, len(cfg.Workers))
	for taskType := range cfg.Workers {
		configured = append(configured, taskType)
	}
	sort.Strings(configured)

	unconfigured, unregistered := reg.Diff(configured)
	for _, taskType := range unconfigured {
		fmt.Printf("registered but not configured: %s\n", taskType)
	}
	for _, taskType := range unregistered {
		fmt.Printf("configured but not registered: %s\n", taskType)
	}
	if len(unconfigured)+len(unregistered) > 0 {
		return fmt.Errorf("registry and config disagree on %d task types", len(unconfigured)+len(unregistered))
	}
	fmt.Printf("Registry matches config: %d task types.\n", len(configured))
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  update    Update an existing activity's field
  validate  Validate the registry file
  check     Compare registered task types with configured workers
  help      Show this help message

Examples:
  registry-updater update -id issue-contract -field retries -value 5
  registry-updater validate -path configs/activity-registry.json
  registry-updater check -config configs/config.yaml`)
}
