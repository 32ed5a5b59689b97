// Package auth provides Azure DevOps credential management.
// It implements a simple interface with multiple providers following the
// "deep modules" principle - simple interface, complex implementation hidden.
package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// devOpsResourceID is the Azure AD resource ID of the Azure DevOps service,
// used when requesting an access token through the az CLI.
const devOpsResourceID = "499b84ac-1321-427f-aa17-267ca6975798"

// TokenProvider defines the interface for obtaining an Azure DevOps
// credential. Implementations may use different sources (CLI tools,
// environment variables, etc).
type TokenProvider interface {
	GetToken() (string, error)
}

// AzCliProvider obtains an access token by shelling out to the Azure CLI
// (`az account get-access-token`). This is the preferred method as it
// respects the user's az CLI authentication state.
type AzCliProvider struct{}

// GetToken shells out to the az CLI to retrieve an access token scoped to
// the Azure DevOps resource. Returns an error if az is not installed, not
// logged in, or the command fails.
func (a *AzCliProvider) GetToken() (string, error) {
	cmd := exec.Command("az", "account", "get-access-token",
		"--resource", devOpsResourceID,
		"--query", "accessToken", "--output", "tsv")
	output, err := cmd.Output()
	if err != nil {
		if execErr, ok := err.(*exec.Error); ok && execErr.Err == exec.ErrNotFound {
			return "", errors.New("az CLI not found in PATH")
		}
		return "", fmt.Errorf("az account get-access-token failed: %w", err)
	}

	token := strings.TrimSpace(string(output))
	if token == "" {
		return "", errors.New("az CLI returned empty token")
	}
	return token, nil
}

// EnvProvider obtains a personal access token from the AZURE_DEVOPS_PAT
// environment variable, falling back to AZURE_DEVOPS_EXT_PAT (the variable
// the azure-devops CLI extension reads).
type EnvProvider struct{}

// GetToken reads the PAT environment variables.
// Returns an error if neither is set.
func (e *EnvProvider) GetToken() (string, error) {
	for _, name := range []string{"AZURE_DEVOPS_PAT", "AZURE_DEVOPS_EXT_PAT"} {
		if token := os.Getenv(name); token != "" {
			return token, nil
		}
	}
	return "", errors.New("AZURE_DEVOPS_PAT environment variable not set or empty")
}

// GetToken attempts to obtain an Azure DevOps credential using the
/// following strategy:
// 1. PAT from the environment (explicit configuration wins)
// 2. Fall back to an az CLI access token
// 3. Return a clear, actionable error if both fail
//
// This is the main entry point for credential retrieval in the application.
func GetToken() (string, error) {
	envProvider := &EnvProvider{}
	token, err := envProvider.GetToken()
	if err == nil {
		return token, nil
	}
	envErr := err

	azCli := &AzCliProvider{}
	token, err = azCli.GetToken()
	if err == nil {
		return token, nil
	}

	return "", fmt.Errorf(
		"failed to obtain Azure DevOps credential: %v; az CLI error (%v).\n"+
			"Please either:\n"+
			"  1. Set the AZURE_DEVOPS_PAT environment variable with a personal access token, or\n"+
			"  2. Run 'az login' to authenticate with the Azure CLI",
		envErr, err,
	)
}
