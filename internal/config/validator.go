package config

import (
	"fmt"
	"os"
	"strings"
)

// ExpectedEnvSchemaVersion is the schema version that the application expects
const ExpectedEnvSchemaVersion = "1.0"

// RequiredEnvVars lists all environment variables that must be set
var RequiredEnvVars = []string{
	"ENV_SCHEMA_VERSION",
	"API_KEY",
	"STORE_BACKEND",
}

// PostgresEnvVars are required when STORE_BACKEND is postgres
var PostgresEnvVars = []string{
	"DB_USER",
	"DB_PASSWORD",
	"DB_HOST",
	"DB_PORT",
	"DB_NAME",
}

// ValidateEnv checks that all required environment variables are set
// and that the schema version matches expectations
func ValidateEnv() error {
	schemaVersion := os.Getenv("ENV_SCHEMA_VERSION")
	if schemaVersion == "" {
		return fmt.Errorf(ErrMsgSchemaVersionMissing, ExpectedEnvSchemaVersion)
	}

	if schemaVersion != ExpectedEnvSchemaVersion {
		return fmt.Errorf(ErrMsgSchemaVersionMismatch, ExpectedEnvSchemaVersion, schemaVersion)
	}

	required := RequiredEnvVars
	if strings.EqualFold(os.Getenv("STORE_BACKEND"), StoreBackendPostgres) {
		required = append(append([]string{}, RequiredEnvVars...), PostgresEnvVars...)
	}

	var missing []string
	for _, envVar := range required {
		if os.Getenv(envVar) == "" {
			missing = append(missing, envVar)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf(ErrMsgMissingRequiredVars, strings.Join(missing, ", "))
	}

	return nil
}

// ValidateEnvWithWarnings runs ValidateEnv and reports settings that start
// fine but degrade the service
func ValidateEnvWithWarnings() ([]string, error) {
	if err := ValidateEnv(); err != nil {
		return nil, err
	}

	var warnings []string

	if os.Getenv("DB_PASSWORD") == "change_this_secure_password" {
		warnings = append(warnings, "DB_PASSWORD appears to be using the example value - please use a secure password")
	}

	if os.Getenv("API_KEY") == "generate_with_openssl_rand_hex_32" {
		warnings = append(warnings, "API_KEY appears to be using the example value - generate a secure key with: openssl rand -hex 32")
	}

	if os.Getenv("STRIPE_SECRET_KEY") == "" {
		warnings = append(warnings, "STRIPE_SECRET_KEY is not set - web checkout will be disabled")
	}

	if strings.EqualFold(os.Getenv("STORE_BACKEND"), StoreBackendMemory) && os.Getenv("ENVIRONMENT") == "prod" {
		warnings = append(warnings, "STORE_BACKEND=memory in prod - entitlements are lost on restart and not shared between instances")
	}

	if os.Getenv("SNAPSHOT_DB_PATH") == "" {
		if _, set := os.LookupEnv("SNAPSHOT_DB_PATH"); set {
			warnings = append(warnings, "SNAPSHOT_DB_PATH is empty - guest snapshots are kept in memory only")
		}
	}

	if strings.EqualFold(os.Getenv("PURCHASE_PLATFORM"), "web") || os.Getenv("PURCHASE_PLATFORM") == "" {
		warnings = append(warnings, "PURCHASE_PLATFORM is web - paid plans come only from promo codes, referrals, checkout and admin overrides")
	}

	return warnings, nil
}
