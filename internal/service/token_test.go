package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	manager := NewTokenManager("test-secret-key-for-unit-tests-only")
	userID := uuid.New()

	token, err := manager.Issue(userID, "admin", time.Hour)
	require.NoError(t, err)

	parsedID, role, err := manager.ParseAccess(token)

	require.NoError(t, err)
	assert.Equal(t, userID, parsedID)
	assert.Equal(t, "admin", role)
}

func TestTokenManager_ParseAccess_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("test-secret-key-for-unit-tests-only")
	verifier := NewTokenManager("another-secret-entirely")

	token, err := issuer.Issue(uuid.New(), "freelancer", time.Hour)
	require.NoError(t, err)

	parsedID, _, err := verifier.ParseAccess(token)

	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, parsedID)
}

func TestTokenManager_ParseAccess_Expired(t *testing.T) {
	manager := NewTokenManager("test-secret-key-for-unit-tests-only")

	token, err := manager.Issue(uuid.New(), "client", -time.Hour)
	require.NoError(t, err)

	parsedID, _, err := manager.ParseAccess(token)

	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, parsedID)
}
