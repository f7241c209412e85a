package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFromEnvironment(t *testing.T) {
	t.Setenv("AZURE_KEYVAULT_URL", "")
	t.Setenv("GCP_PROJECT", "")
	t.Setenv("ASKAI_TEST_SECRET", "from-env")

	val, err := Resolve(context.Background(), "ASKAI_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", val)
}

func TestResolveMissingEverywhere(t *testing.T) {
	t.Setenv("AZURE_KEYVAULT_URL", "")
	t.Setenv("GCP_PROJECT", "")

	_, err := Resolve(context.Background(), "ASKAI_DEFINITELY_UNSET_SECRET")
	assert.Error(t, err)
}
