// Package schemas holds the JSON Schemas for files the agent reads.
package schemas

import _ "embed"

// SynthesisConfigFile is the schema file name for agent config files.
const SynthesisConfigFile = "synthesis_config.schema.json"

// SynthesisConfig is the embedded content of SynthesisConfigFile.
//
//go:embed synthesis_config.schema.json
var SynthesisConfig []byte
