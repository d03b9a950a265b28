package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const thresholdSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["thresholds"],
	"properties": {
		"thresholds": {
			"type": "object",
			"required": ["min_score"],
			"properties": {
				"min_score": {"type": "number", "minimum": 0, "maximum": 1}
			}
		}
	}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateJSON_Valid(t *testing.T) {
	schemaPath := writeFile(t, "schema.json", thresholdSchema)
	jsonPath := writeFile(t, "config.json", `{"thresholds": {"min_score": 0.5}}`)

	assert.NoError(t, ValidateJSON(schemaPath, jsonPath))
}

func TestValidateJSON_MissingField(t *testing.T) {
	schemaPath := writeFile(t, "schema.json", thresholdSchema)
	jsonPath := writeFile(t, "config.json", `{"thresholds": {}}`)

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "thresholds", validationErr.Errors[0].Field)
}

func TestValidateJSON_NonExistentFiles(t *testing.T) {
	schemaPath := writeFile(t, "schema.json", thresholdSchema)

	err := ValidateJSON(filepath.Join(t.TempDir(), "nope.json"), schemaPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema file not found")

	err = ValidateJSON(schemaPath, filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON file not found")
}

func TestValidateJSON_MalformedDocument(t *testing.T) {
	schemaPath := writeFile(t, "schema.json", thresholdSchema)
	jsonPath := writeFile(t, "config.json", "{ invalid json }")

	err := ValidateJSON(schemaPath, jsonPath)
	require.Error(t, err)
	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateJSONString_OutOfRange(t *testing.T) {
	err := ValidateJSONString(thresholdSchema, `{"thresholds": {"min_score": 2}}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "thresholds.min_score", validationErr.Errors[0].Field)
}

func TestValidateBytes_RootError(t *testing.T) {
	err := ValidateBytes([]byte(thresholdSchema), []byte(`[]`))
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "weights.ads", Message: "must be greater than or equal to 0"},
			{Field: "store_backend", Message: "must be one of the following"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed")
	assert.Contains(t, msg, "1. weights.ads")
	assert.Contains(t, msg, "2. store_backend")
}

func TestSchemaLoadError_Unwrap(t *testing.T) {
	cause := os.ErrNotExist
	err := &SchemaLoadError{Path: "x.json", Message: "boom", Cause: cause}
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "x.json")
}
