package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/fairytale-engine/internal/resources"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateBundled(t *testing.T) {
	v := &ContentValidator{}
	v.validateBundled()

	assert.Empty(t, v.errors)
	// "Hans Christian Andersen" is longer than a typed author may be.
	require.Len(t, v.warnings, 1)
	assert.Contains(t, v.warnings[0], "Hans Christian Andersen")
}

func TestValidateResourcesDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, resources.MoralsFile, "Be kind.\nbe kind.\n")

	v := &ContentValidator{}
	require.NoError(t, v.validatePath(dir))
	assert.Empty(t, v.errors)

	joined := strings.Join(v.warnings, "\n")
	assert.Contains(t, joined, "random_plots.txt not found")
	assert.Contains(t, joined, "duplicate moral 'be kind.'")
	assert.NotContains(t, joined, "random_morals.txt not found")
}

func TestValidateResourcesDir_EmptyList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, resources.PlotsFile, "\n\n")

	v := &ContentValidator{}
	require.NoError(t, v.validatePath(dir))
	require.Len(t, v.errors, 1)
	assert.Contains(t, v.errors[0], "is empty")
}

func TestValidateTiersFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name       string
		file       string
		content    string
		wantErrors int
		wantWarn   string
	}{
		{
			name: "valid",
			file: "tiers.yaml",
			content: `default: {max_tokens: 200, model_name: gpt-3.5-turbo, usage_limit: 10}
premium: {max_tokens: 1000, model_name: gpt-4, usage_limit: 100}
`,
		},
		{
			name: "premium below default",
			file: "low_premium.yaml",
			content: `default: {max_tokens: 200, model_name: gpt-3.5-turbo, usage_limit: 10}
premium: {max_tokens: 1000, model_name: gpt-4, usage_limit: 5}
`,
			wantWarn: "premium usage_limit 5 is below default 10",
		},
		{
			name:       "missing tier",
			file:       "partial.yaml",
			content:    "default: {max_tokens: 200, model_name: gpt-3.5-turbo, usage_limit: 10}\n",
			wantErrors: 1,
		},
		{
			name: "bad filename",
			file: "My-Tiers.yml",
			content: `default: {max_tokens: 200, model_name: gpt-3.5-turbo, usage_limit: 10}
premium: {max_tokens: 1000, model_name: gpt-4, usage_limit: 100}
`,
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)

			v := &ContentValidator{}
			require.NoError(t, v.validatePath(path))
			assert.Len(t, v.errors, tt.wantErrors)
			if tt.wantWarn != "" {
				assert.Contains(t, strings.Join(v.warnings, "\n"), tt.wantWarn)
			} else {
				assert.Empty(t, v.warnings)
			}
		})
	}
}

func TestValidatePath_Unknown(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "hello")

	v := &ContentValidator{}
	assert.Error(t, v.validatePath(path))
	assert.Error(t, v.validatePath(filepath.Join(dir, "missing")))
}
