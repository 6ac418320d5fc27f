package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayout(t *testing.T) {
	reg := Default()

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, reg.Stations())
	assert.True(t, reg.Contains(1))
	assert.True(t, reg.Contains(12))
	assert.False(t, reg.Contains(0))
	assert.False(t, reg.Contains(13))
	assert.Equal(t, "Garage", reg.GroupOf(6))
	assert.Equal(t, "Parking Lot", reg.GroupOf(7))
	assert.Equal(t, "", reg.GroupOf(99))
}

func TestDeclarationOrderPreserved(t *testing.T) {
	reg, err := New([]Group{
		{Name: "Parking Lot", First: 7, Last: 9},
		{Name: "Garage", First: 1, Last: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{7, 8, 9, 1, 2, 3}, reg.Stations())
}

func TestOverlappingGroupsRejected(t *testing.T) {
	_, err := New([]Group{
		{Name: "A", First: 1, Last: 5},
		{Name: "B", First: 5, Last: 8},
	})
	require.Error(t, err)
}

func TestEmptyRangeRejected(t *testing.T) {
	_, err := New([]Group{{Name: "A", First: 5, Last: 1}})
	require.Error(t, err)

	_, err = New(nil)
	require.Error(t, err)
}
