package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    *Params
		wantErr string
	}{
		{
			name:  "nil params",
			input: nil,
			want:  &Params{},
		},
		{
			name: "extensions and settings",
			input: map[string]any{
				"extensions": []any{"json", "icu"},
				"settings":   map[string]any{"threads": 2, "memory_limit": "1GB"},
			},
			want: &Params{
				Extensions: []string{"json", "icu"},
				Settings:   map[string]string{"threads": "2", "memory_limit": "1GB"},
			},
		},
		{
			name: "secret with scope list",
			input: map[string]any{
				"secrets": []any{
					map[string]any{
						"type":    "s3",
						"region":  "eu-west-1",
						"scope":   []any{"s3://registry-a", "s3://registry-b"},
						"use_ssl": false,
					},
				},
			},
			want: &Params{
				Secrets: []SecretConfig{{
					Type:   "s3",
					Region: "eu-west-1",
					Scope:  []any{"s3://registry-a", "s3://registry-b"},
					UseSSL: boolPtr(false),
				}},
			},
		},
		{
			name:    "unknown key",
			input:   map[string]any{"extension": "json"},
			wantErr: "invalid duckdb params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConnectionStatements(t *testing.T) {
	stmts := connectionStatements(&Params{
		Extensions: []string{"json"},
		Settings:   map[string]string{"threads": "2", "memory_limit": "1GB"},
	})
	assert.Equal(t, []string{
		"INSTALL json",
		"LOAD json",
		"SET memory_limit = '1GB'",
		"SET threads = '2'",
	}, stmts)
}

func TestBuildCreateSecretSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  SecretConfig
		want string
	}{
		{
			name: "type only",
			cfg:  SecretConfig{Type: "s3"},
			want: "CREATE SECRET (\n    TYPE s3\n)",
		},
		{
			name: "credential chain with one scope",
			cfg:  SecretConfig{Type: "s3", Provider: "credential_chain", Scope: "s3://codes"},
			want: "CREATE SECRET (\n    TYPE s3,\n    PROVIDER credential_chain,\n    SCOPE 's3://codes'\n)",
		},
		{
			name: "scope list",
			cfg:  SecretConfig{Type: "gcs", Scope: []string{"gs://a", "gs://b"}},
			want: "CREATE SECRET (\n    TYPE gcs,\n    SCOPE ('gs://a', 'gs://b')\n)",
		},
		{
			name: "explicit credentials",
			cfg: SecretConfig{
				Type:     "s3",
				Provider: "config",
				KeyID:    "minio",
				Secret:   "it's",
				Endpoint: "localhost:9000",
				URLStyle: "path",
				UseSSL:   boolPtr(false),
			},
			want: "CREATE SECRET (\n    TYPE s3,\n    PROVIDER config,\n    KEY_ID 'minio',\n    SECRET 'it''s',\n" +
				"    ENDPOINT 'localhost:9000',\n    URL_STYLE 'path',\n    USE_SSL false\n)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildCreateSecretSQL(tt.cfg))
		})
	}
}

func boolPtr(b bool) *bool {
	return &b
}
