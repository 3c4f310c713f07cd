package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/pos-sales-report/internal/stores"
)

//go:embed stores.yaml
var defaultStores []byte

// directoryFile is the on-disk shape of a store directory document.
type directoryFile struct {
	Stores       []stores.Entry `yaml:"stores"`
	DisplayOrder []string       `yaml:"display_order"`
}

// LoadDirectory builds the store directory from StoresFile, or from the
// embedded default when no file is configured.
func (c *Config) LoadDirectory() (*stores.Directory, error) {
	data := defaultStores
	if c.StoresFile != "" {
		var err error
		data, err = os.ReadFile(c.StoresFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read store directory: %w", err)
		}
	}
	return ParseDirectory(data, c.Report.UnknownStoreLabel)
}

// ParseDirectory decodes a store directory YAML document.
func ParseDirectory(data []byte, unknownLabel string) (*stores.Directory, error) {
	var doc directoryFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse store directory: %w", err)
	}
	if len(doc.Stores) == 0 {
		return nil, fmt.Errorf("store directory lists no stores")
	}
	dir, err := stores.New(doc.Stores, doc.DisplayOrder, unknownLabel)
	if err != nil {
		return nil, fmt.Errorf("invalid store directory: %w", err)
	}
	return dir, nil
}
