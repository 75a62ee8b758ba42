package rules

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/acronis/go-stacktrace"
	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed rules_schema.json
var rulesSchema string

var compiledRulesSchema = mustCompileSchema(rulesSchema)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchemaLoader().Compile(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Errorf("compile schema: %w", err))
	}
	return s
}

// LoadFile reads a YAML rules file. The file replaces the built-in defaults entirely.
func LoadFile(fName string) (Config, error) {
	raw, err := os.ReadFile(fName)
	if err != nil {
		return Config{}, fmt.Errorf("read rules file: %w", err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, stacktrace.NewWrapped("invalid rules file", err, stacktrace.WithInfo("path", fName))
	}
	return cfg, nil
}

// Parse decodes YAML rules content after validating it against the rules schema.
func Parse(raw []byte) (Config, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("decode YAML: %w", err)
	}
	if doc == nil {
		// empty document
		doc = map[string]interface{}{}
	}

	res, err := compiledRulesSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return Config{}, fmt.Errorf("schema validate: %w", err)
	}
	if !res.Valid() {
		st := stacktrace.New("validation failed", stacktrace.WithType("rules"))
		for _, errResult := range res.Errors() {
			_ = st.Append(stacktrace.New(errResult.Description(), stacktrace.WithInfo("context", errResult.Context().String("."))))
		}
		return Config{}, st
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		ErrorUnused: true,
	})
	if err != nil {
		return Config{}, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(doc); err != nil {
		return Config{}, fmt.Errorf("decode rules: %w", err)
	}
	return cfg, nil
}
