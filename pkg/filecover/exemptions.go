package filecover

import (
	"fmt"

	"github.com/Azure/filecover/pkg/exemption"
)

// ExemptionsFile picks the exemption dataset. An explicit path is used as given,
// the configured one is resolved against the repository root.
func ExemptionsFile(repositoryPath string, explicitPath string, configuredPath string) (string, bool) {
	if explicitPath != "" {
		return explicitPath, true
	}
	return inRepository(repositoryPath, configuredPath), false
}

// LoadExemptions loads the exemption registry of the repository.
// A missing explicit dataset is an error, a missing configured one means no exemptions.
func LoadExemptions(repositoryPath string, explicitPath string, configuredPath string) (*exemption.Registry, error) {
	filename, explicit := ExemptionsFile(repositoryPath, explicitPath, configuredPath)
	if !explicit {
		return exemption.Load(filename)
	}

	registry, err := exemption.LoadRequired(filename)
	if err != nil {
		return nil, fmt.Errorf("load exemptions %s: %w", filename, err)
	}
	return registry, nil
}
