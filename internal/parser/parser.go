package parser

import (
	"errors"
	"fmt"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
	"github.com/hogwarts-cloud/fleetplan/internal/validator"
	"gopkg.in/yaml.v3"
)

var ErrMalformedDescriptor = errors.New("malformed fleet descriptor")

// Parse decodes a servers.yml document. Documents that decode but do not
// describe a usable fleet are rejected with ErrMalformedDescriptor.
func Parse(content []byte) (*models.FleetDescriptor, error) {
	descriptor := new(models.FleetDescriptor)
	if err := yaml.Unmarshal(content, descriptor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fleet descriptor: %w", err)
	}

	if err := validator.Validate(descriptor); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDescriptor, err)
	}

	if descriptor.CISettings == nil {
		descriptor.CISettings = make(map[string]map[string]any)
	}

	return descriptor, nil
}
