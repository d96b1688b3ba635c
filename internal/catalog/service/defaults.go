package service

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultItemsYAML []byte

// DefaultItem is one entry of the embedded seed file.
type DefaultItem struct {
	Title string `yaml:"title"`
	Image string `yaml:"image"`
}

type defaultItemsFile struct {
	Items []DefaultItem `yaml:"items"`
}

// LoadDefaultItems parses the embedded seed file.
func LoadDefaultItems() ([]DefaultItem, error) {
	return parseDefaultItems(defaultItemsYAML)
}

func parseDefaultItems(raw []byte) ([]DefaultItem, error) {
	var file defaultItemsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse default items: %w", err)
	}
	for i, item := range file.Items {
		if item.Title == "" || item.Image == "" {
			return nil, fmt.Errorf("default item %d: title and image are required", i)
		}
	}
	return file.Items, nil
}
