package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kumoney/internal/models"
)

func TestDefault(t *testing.T) {
	pkgs, err := Default()
	require.NoError(t, err)
	require.Len(t, pkgs, 3)

	free := pkgs[0]
	assert.Equal(t, models.TierFree, free.Tier)
	assert.Equal(t, int64(0), free.Price)
	assert.Positive(t, free.LimitCategory)
	assert.Positive(t, free.LimitAccount)
	assert.NotEmpty(t, free.Features)

	assert.Equal(t, models.Unlimited, pkgs[2].LimitExpenses)
}

func TestDecode_RejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed", data: `{"package":`},
		{name: "unknown_tier", data: `[{"package":"gold"}]`},
		{name: "duplicate_tier", data: `[{"package":"free"},{"package":"free"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
