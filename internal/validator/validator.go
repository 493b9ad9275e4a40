package validator

import (
	"errors"
	"fmt"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
)

var (
	ErrNoServers          = errors.New("no servers")
	ErrEmptyServerID      = errors.New("empty server id")
	ErrEmptyRole          = errors.New("empty role")
	ErrDuplicatedServerID = errors.New("duplicated server id")
)

func Validate(descriptor *models.FleetDescriptor) error {
	if len(descriptor.Servers) == 0 {
		return ErrNoServers
	}

	seen := make(map[string]struct{}, len(descriptor.Servers))
	for i, server := range descriptor.Servers {
		if err := validateServer(server); err != nil {
			return fmt.Errorf("failed to validate server %d: %w", i, err)
		}

		if _, ok := seen[server.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatedServerID, server.ID)
		}
		seen[server.ID] = struct{}{}
	}

	return nil
}

func validateServer(server models.ServerRecord) error {
	if server.ID == "" {
		return ErrEmptyServerID
	}

	if server.Role == "" {
		return fmt.Errorf("%w: %s", ErrEmptyRole, server.ID)
	}

	return nil
}
