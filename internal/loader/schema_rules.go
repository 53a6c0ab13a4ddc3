package loader

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fujit1113/ValueFromLog/internal/config"
)

// SchemaRules is the optional schema.yaml file placed next to the source
// exports. It renames the sheet columns for installations whose exports use
// localized headers. Environment overrides take precedence over this file.
type SchemaRules struct {
	OperationColumns []string `yaml:"operation_columns"`
	StateColumns     []string `yaml:"state_columns"`
}

// LoadSchemaRules reads a rules file. A missing file yields (nil, nil).
func LoadSchemaRules(path string) (*SchemaRules, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	return ParseSchemaRules(f)
}

// ParseSchemaRules parses rules from an io.Reader.
func ParseSchemaRules(r io.Reader) (*SchemaRules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rules SchemaRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return &rules, nil
}

// Apply copies the rules into cfg, but only for lists the environment has not
// already overridden (detected as the list still holding the defaults).
func (r *SchemaRules) Apply(cfg *config.Config) {
	if len(r.OperationColumns) > 0 && equalStrings(cfg.OperationCols, config.DefaultOperationCols) {
		cfg.OperationCols = append([]string(nil), r.OperationColumns...)
	}
	if len(r.StateColumns) > 0 && equalStrings(cfg.StateCols, config.DefaultStateCols) {
		cfg.StateCols = append([]string(nil), r.StateColumns...)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
