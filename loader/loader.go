// Package loader reads and validates the shared JSON data files
// (personas, tools, scenarios).
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"

	"github.com/saggiatore/saggiatore-go/models"
)

func loadJSON[T any](path string) ([]T, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var records []T
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

func LoadPersonas(dataDir string) ([]models.Persona, error) {
	return loadJSON[models.Persona](filepath.Join(dataDir, "personas.json"))
}

func LoadTools(dataDir string) ([]models.ToolDefinition, error) {
	return loadJSON[models.ToolDefinition](filepath.Join(dataDir, "tools.json"))
}

func LoadScenarios(dataDir string) ([]models.Scenario, error) {
	return loadJSON[models.Scenario](filepath.Join(dataDir, "scenarios.json"))
}

// LoadAll loads the three data files and validates cross-references:
// each scenario's personaIndex must point to a loaded persona, and each
// expected tool must exist in tools.json. All violations are reported,
// not just the first one.
func LoadAll(dataDir string) ([]models.Persona, []models.ToolDefinition, []models.Scenario, error) {
	personas, err := LoadPersonas(dataDir)
	if err != nil {
		return nil, nil, nil, err
	}
	tools, err := LoadTools(dataDir)
	if err != nil {
		return nil, nil, nil, err
	}
	scenarios, err := LoadScenarios(dataDir)
	if err != nil {
		return nil, nil, nil, err
	}

	toolNames := lo.SliceToMap(tools, func(t models.ToolDefinition) (string, struct{}) {
		return t.Name, struct{}{}
	})

	var validationErr *multierror.Error
	for i, scenario := range scenarios {
		if scenario.PersonaIndex < 0 || scenario.PersonaIndex >= len(personas) {
			validationErr = multierror.Append(validationErr, fmt.Errorf(
				"scenario %d (%q) references personaIndex %d, but only %d personas exist",
				i, scenario.Title, scenario.PersonaIndex, len(personas),
			))
		}
		for _, toolName := range scenario.ExpectedTools {
			if _, ok := toolNames[toolName]; !ok {
				validationErr = multierror.Append(validationErr, fmt.Errorf(
					"scenario %d (%q) references tool %q which doesn't exist in tools.json",
					i, scenario.Title, toolName,
				))
			}
		}
	}
	if err := validationErr.ErrorOrNil(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid data files: %w", err)
	}

	return personas, tools, scenarios, nil
}
