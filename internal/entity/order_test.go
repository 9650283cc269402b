package entity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orderdash/orderdash/internal/entity"
)

func TestParseStatus(t *testing.T) {
	for _, s := range entity.Statuses {
		parsed, err := entity.ParseStatus(string(s))
		require.NoError(t, err)
		require.Equal(t, s, parsed)
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "Shipped", "pending", "PENDING", " Pending"} {
		_, err := entity.ParseStatus(raw)
		require.Error(t, err, "raw=%q", raw)
	}
}

func TestStatusValid(t *testing.T) {
	require.True(t, entity.StatusCompleted.Valid())
	require.False(t, entity.Status("Done").Valid())
}
