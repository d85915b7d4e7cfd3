package config

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordConfig(t *testing.T) {
	tests := []struct {
		name       string
		bcryptCost string
		pepper     string
		wantCost   int
		wantErr    bool
	}{
		{name: "default cost", wantCost: 12},
		{name: "explicit cost", bcryptCost: "10", wantCost: 10},
		{name: "with pepper", bcryptCost: "12", pepper: "pepper", wantCost: 12},
		{name: "cost too low", bcryptCost: "9", wantErr: true},
		{name: "cost too high", bcryptCost: "15", wantErr: true},
		{name: "non-numeric cost", bcryptCost: "high", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BCRYPT_COST", tt.bcryptCost)
			t.Setenv("PASSWORD_PEPPER", tt.pepper)

			cfg, err := NewPasswordConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCost, cfg.BcryptCost)
			assert.Equal(t, tt.pepper, cfg.Pepper)
		})
	}
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	hash, err := cfg.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"))

	assert.True(t, cfg.VerifyPassword("correct horse battery", hash))
	assert.False(t, cfg.VerifyPassword("wrong horse battery", hash))
	assert.False(t, cfg.VerifyPassword("correct horse battery", ""))
}

func TestPasswordConfig_SaltedHashesDiffer(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	a, err := cfg.HashPassword("same-password")
	require.NoError(t, err)
	b, err := cfg.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, cfg.VerifyPassword("same-password", a))
	assert.True(t, cfg.VerifyPassword("same-password", b))
}

func TestPasswordConfig_Pepper(t *testing.T) {
	peppered := &PasswordConfig{BcryptCost: 10, Pepper: "server-secret"}
	plain := &PasswordConfig{BcryptCost: 10}
	rotated := &PasswordConfig{BcryptCost: 10, Pepper: "new-secret"}

	hash, err := peppered.HashPassword("password123")
	require.NoError(t, err)

	assert.True(t, peppered.VerifyPassword("password123", hash))
	assert.False(t, plain.VerifyPassword("password123", hash))
	assert.False(t, rotated.VerifyPassword("password123", hash))
}

func TestPasswordConfig_LengthLimit(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10, Pepper: "pepper"}

	_, err := cfg.HashPassword(strings.Repeat("a", 66))
	assert.NoError(t, err, "66 bytes plus a 6 byte pepper fits")

	_, err = cfg.HashPassword(strings.Repeat("a", 67))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	assert.False(t, cfg.VerifyPassword(strings.Repeat("a", 100), "$2a$10$invalid"))
}

func TestPasswordConfig_EmptyPassword(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}

	hash, err := cfg.HashPassword("")
	require.NoError(t, err)
	assert.True(t, cfg.VerifyPassword("", hash))
	assert.False(t, cfg.VerifyPassword(" ", hash))
}

func TestPasswordConfig_ConcurrentAccess(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}
	hash, err := cfg.HashPassword("shared")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = cfg.VerifyPassword("shared", hash)
		}()
	}
	wg.Wait()

	for _, ok := range results {
		assert.True(t, ok)
	}
}
