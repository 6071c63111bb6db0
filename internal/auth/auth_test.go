package auth

import (
	"context"
	"testing"
	"time"

	"github.com/railzwaylabs/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		App:  config.AppConfig{Environment: "test"},
		Auth: config.AuthConfig{JWTSecret: "s3cret", Issuer: "storefront", TokenTTL: time.Hour},
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm, err := NewTokenManager(testConfig())
	require.NoError(t, err)

	token, err := tm.Issue("user-1", "")
	require.NoError(t, err)

	actor, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, Actor{UserID: "user-1", Role: RoleCustomer}, actor)
}

func TestTokenManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	tm, err := NewTokenManager(testConfig())
	require.NoError(t, err)

	issuedAt := time.Now().Add(-2 * time.Hour)
	tm.now = func() time.Time { return issuedAt }
	token, err := tm.Issue("user-1", RoleAdmin)
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	cfg := testConfig()
	cfg.Auth.JWTSecret = "other"
	other, err := NewTokenManager(cfg)
	require.NoError(t, err)
	foreign, err := other.Issue("user-1", RoleAdmin)
	require.NoError(t, err)

	_, err = tm.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManager_RequiresSecretOutsideDevelopment(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	_, err := NewTokenManager(cfg)
	assert.ErrorIs(t, err, config.ErrMissingJWTSecret)

	cfg.App.Environment = "development"
	_, err = NewTokenManager(cfg)
	assert.NoError(t, err)
}

func TestAuthorizer_CanAccessOrder(t *testing.T) {
	a, err := NewAuthorizer()
	require.NoError(t, err)

	tests := []struct {
		name  string
		actor Actor
		owner string
		want  bool
	}{
		{"owner", Actor{UserID: "u1", Role: RoleCustomer}, "u1", true},
		{"other customer", Actor{UserID: "u2", Role: RoleCustomer}, "u1", false},
		{"admin", Actor{UserID: "ops", Role: RoleAdmin}, "u1", true},
		{"anonymous", Actor{}, "u1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.CanAccessOrder(tt.actor, tt.owner))
		})
	}
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithActor(context.Background(), Actor{UserID: "u1", Role: RoleCustomer})
	actor, ok := ActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", actor.UserID)
}
