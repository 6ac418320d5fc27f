package pin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("1234")
	require.NoError(t, err)
	assert.NotEqual(t, "1234", hash)

	assert.NoError(t, hasher.Compare(hash, "1234"))
	assert.Error(t, hasher.Compare(hash, "4321"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		pin     string
		wantErr bool
	}{
		{name: "four digits", pin: "1234", wantErr: false},
		{name: "eight digits", pin: "12345678", wantErr: false},
		{name: "empty", pin: "", wantErr: true},
		{name: "too short", pin: "123", wantErr: true},
		{name: "too long", pin: "123456789", wantErr: true},
		{name: "letters", pin: "12ab", wantErr: true},
		{name: "whitespace", pin: "12 4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.pin)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHashRejectsBadShape(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	_, err := hasher.Hash("12ab")
	assert.Error(t, err)
}
