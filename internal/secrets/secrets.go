package secrets

import (
	"context"
	"fmt"
	"log"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// Resolve looks up a secret value in this order:
//  1. Azure Key Vault, if AZURE_KEYVAULT_URL is set
//  2. Google Secret Manager, if GCP_PROJECT is set
//  3. Environment variable of the same name
//
// A backend that errors is logged and skipped, not fatal; only a miss in
// all three is an error.
func Resolve(ctx context.Context, name string) (string, error) {
	if vaultURL := os.Getenv("AZURE_KEYVAULT_URL"); vaultURL != "" {
		val, err := fromKeyVault(ctx, vaultURL, name)
		if err == nil {
			return val, nil
		}
		log.Printf("secrets: key vault lookup for %s failed: %v", name, err)
	}

	if project := os.Getenv("GCP_PROJECT"); project != "" {
		val, err := fromSecretManager(ctx, project, name)
		if err == nil {
			return val, nil
		}
		log.Printf("secrets: secret manager lookup for %s failed: %v", name, err)
	}

	if val, ok := os.LookupEnv(name); ok {
		return val, nil
	}

	return "", fmt.Errorf("secret %q not found in key vault, secret manager, or environment", name)
}

func fromKeyVault(ctx context.Context, vaultURL, name string) (string, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return "", fmt.Errorf("failed to build azure credential: %w", err)
	}
	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create key vault client: %w", err)
	}
	resp, err := client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("failed to get secret from key vault: %w", err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("key vault secret %q has no value", name)
	}
	return *resp.Value, nil
}

func fromSecretManager(ctx context.Context, project, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create secret manager client: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}
	return string(resp.Payload.Data), nil
}
