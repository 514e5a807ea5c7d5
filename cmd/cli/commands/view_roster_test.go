package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/volunteer-events/pkg/core/model"
)

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status   model.RegistrationStatus
		expected string
	}{
		{model.StatusApproved, colorGreen},
		{model.StatusPending, colorYellow},
		{model.StatusRejected, colorRed},
		{model.StatusCancelled, colorDim},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, statusColor(tt.status))
		})
	}
}
