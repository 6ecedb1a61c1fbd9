package library

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/verte-zerg/dictype/internal/model"
)

//go:embed defaults.json
var defaultsJSON []byte

// Defaults returns the libraries stored on first run.
func Defaults() ([]model.Library, error) {
	var libs []model.Library
	if err := json.Unmarshal(defaultsJSON, &libs); err != nil {
		return nil, fmt.Errorf("failed to decode default libraries: %w", err)
	}
	return libs, nil
}
