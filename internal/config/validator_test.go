package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEnv_MissingVersion(t *testing.T) {
	t.Setenv("ENV_SCHEMA_VERSION", "")

	err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV_SCHEMA_VERSION is not set")
}

func TestValidateEnv_VersionMismatch(t *testing.T) {
	t.Setenv("ENV_SCHEMA_VERSION", "0.9")

	err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1.0, got 0.9")
}

func TestValidateEnv_PostgresRequiresDBVars(t *testing.T) {
	t.Setenv("ENV_SCHEMA_VERSION", ExpectedEnvSchemaVersion)
	t.Setenv("API_KEY", "k")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_NAME", "")

	err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")
}

func TestValidateEnv_MemoryBackendSkipsDBVars(t *testing.T) {
	t.Setenv("ENV_SCHEMA_VERSION", ExpectedEnvSchemaVersion)
	t.Setenv("API_KEY", "k")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DB_USER", "")

	assert.NoError(t, ValidateEnv())
}

func TestValidateEnvWithWarnings_InsecureDefaults(t *testing.T) {
	t.Setenv("ENV_SCHEMA_VERSION", ExpectedEnvSchemaVersion)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("API_KEY", "generate_with_openssl_rand_hex_32")
	t.Setenv("DB_PASSWORD", "change_this_secure_password")
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("ENVIRONMENT", "dev")
	t.Setenv("PURCHASE_PLATFORM", "ios")
	t.Setenv("SNAPSHOT_DB_PATH", "data/snapshots.db")

	warnings, err := ValidateEnvWithWarnings()
	require.NoError(t, err)
	assert.Len(t, warnings, 3)
}

func TestValidateEnvWithWarnings_DegradedDeployment(t *testing.T) {
	t.Setenv("ENV_SCHEMA_VERSION", ExpectedEnvSchemaVersion)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("API_KEY", "k")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_x")
	t.Setenv("ENVIRONMENT", "prod")
	t.Setenv("PURCHASE_PLATFORM", "web")
	t.Setenv("SNAPSHOT_DB_PATH", "")

	warnings, err := ValidateEnvWithWarnings()
	require.NoError(t, err)
	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "STORE_BACKEND=memory")
	assert.Contains(t, warnings[1], "SNAPSHOT_DB_PATH")
	assert.Contains(t, warnings[2], "PURCHASE_PLATFORM is web")
}
