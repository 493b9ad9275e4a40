package deployer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errIncus = errors.New("incus failure")

type fakeIncus struct {
	mu       sync.Mutex
	existing []string
	defined  []string
	namesErr error
	failOn   string
}

func (f *fakeIncus) GetInstanceNames(_ context.Context) ([]string, error) {
	return f.existing, f.namesErr
}

func (f *fakeIncus) DefineNode(_ context.Context, node models.NodePlan) error {
	if node.Name() == f.failOn {
		return errIncus
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.defined = append(f.defined, node.Name())
	return nil
}

func plan(names ...string) *models.FleetPlan {
	nodes := make([]models.NodePlan, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, models.NodePlan{Server: models.ServerRecord{ID: name}})
	}
	return &models.FleetPlan{Nodes: nodes}
}

func Test_Deploy(t *testing.T) {
	testCases := []struct {
		name     string
		incus    *fakeIncus
		plan     *models.FleetPlan
		expected Result
		wantErr  bool
		err      error
	}{
		{
			name:     "defines everything on an empty host",
			incus:    &fakeIncus{},
			plan:     plan("deployer", "controller1", "compute1", "compute2"),
			expected: Result{Defined: []string{"deployer", "controller1", "compute1", "compute2"}, Skipped: []string{}},
		},
		{
			name:     "skips existing and keeps unknown instances",
			incus:    &fakeIncus{existing: []string{"controller1", "leftover"}},
			plan:     plan("deployer", "controller1", "compute1"),
			expected: Result{Defined: []string{"deployer", "compute1"}, Skipped: []string{"controller1"}},
		},
		{
			name:    "listing fails",
			incus:   &fakeIncus{namesErr: errIncus},
			plan:    plan("deployer"),
			wantErr: true,
			err:     errIncus,
		},
		{
			name:    "definition fails",
			incus:   &fakeIncus{failOn: "compute1"},
			plan:    plan("deployer", "compute1"),
			wantErr: true,
			err:     errIncus,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := New(tc.incus, nil).Deploy(context.Background(), tc.plan)
			if tc.wantErr {
				assert.ErrorIs(t, err, tc.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
			assert.ElementsMatch(t, tc.expected.Defined, tc.incus.defined)
		})
	}
}
