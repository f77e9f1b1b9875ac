package output

import (
	"gopkg.in/yaml.v3"

	"github.com/namelens/genproxy/internal/config"
)

// YAMLFormatter renders configuration in the same shape as the config file.
type YAMLFormatter struct{}

func (f *YAMLFormatter) FormatConfig(cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", nil
	}
	data, err := yaml.Marshal(newConfigView(cfg))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
