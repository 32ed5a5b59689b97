package auth

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvProvider_GetToken_Primary(t *testing.T) {
	expectedToken := "pat_test_token_123"
	os.Setenv("AZURE_DEVOPS_PAT", expectedToken)
	defer os.Unsetenv("AZURE_DEVOPS_PAT")

	provider := &EnvProvider{}
	token, err := provider.GetToken()

	require.NoError(t, err)
	assert.Equal(t, expectedToken, token)
}

func TestEnvProvider_GetToken_ExtFallback(t *testing.T) {
	os.Unsetenv("AZURE_DEVOPS_PAT")
	os.Setenv("AZURE_DEVOPS_EXT_PAT", "pat_ext_token")
	defer os.Unsetenv("AZURE_DEVOPS_EXT_PAT")

	provider := &EnvProvider{}
	token, err := provider.GetToken()

	require.NoError(t, err)
	assert.Equal(t, "pat_ext_token", token)
}

func TestEnvProvider_GetToken_Missing(t *testing.T) {
	os.Unsetenv("AZURE_DEVOPS_PAT")
	os.Unsetenv("AZURE_DEVOPS_EXT_PAT")

	provider := &EnvProvider{}
	token, err := provider.GetToken()

	assert.Error(t, err)
	assert.Empty(t, token)
	assert.Contains(t, err.Error(), "AZURE_DEVOPS_PAT")
}

func TestGetToken_EnvWins(t *testing.T) {
	// The environment PAT takes priority over the az CLI so that explicit
	// configuration always wins.
	os.Setenv("AZURE_DEVOPS_PAT", "pat_env_first")
	defer os.Unsetenv("AZURE_DEVOPS_PAT")

	token, err := GetToken()

	require.NoError(t, err)
	assert.Equal(t, "pat_env_first", token)
}

func TestGetToken_BothFail(t *testing.T) {
	os.Unsetenv("AZURE_DEVOPS_PAT")
	os.Unsetenv("AZURE_DEVOPS_EXT_PAT")

	// The az CLI may or may not be available in the test environment; if
	// both sources fail the error must be actionable.
	token, err := GetToken()
	if err != nil {
		assert.Contains(t, err.Error(), "AZURE_DEVOPS_PAT")
		assert.Contains(t, err.Error(), "az login")
	} else {
		assert.NotEmpty(t, token)
	}
}

func TestTokenProvider_Interface(t *testing.T) {
	// Verify both implementations satisfy the interface
	var _ TokenProvider = &AzCliProvider{}
	var _ TokenProvider = &EnvProvider{}
}
