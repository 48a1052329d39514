package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"jwt": map[string]any{
			"secret":           "",
			"refreshSecret":    "",
			"expiresIn":        "1h",
			"refreshExpiresIn": "168h",
		},
		"auth": map[string]any{
			"bcryptWorkers": 10,
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_SSL_MODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "JWT_SECRET", want: "jwt.secret"},
		{envKey: "JWT_EXPIRES_IN", want: "jwt.expiresIn"},
		{envKey: "JWT_REFRESH_EXPIRES_IN", want: "jwt.refreshExpiresIn"},
		{envKey: "AUTH_BCRYPT_WORKERS", want: "auth.bcryptWorkers"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}
