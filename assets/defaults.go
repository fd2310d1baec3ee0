package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultDangerCatalogueYAML contains the embedded danger catalogue.
//
//go:embed defaults/danger_catalogue.yaml
var DefaultDangerCatalogueYAML []byte
