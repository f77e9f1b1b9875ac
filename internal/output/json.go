package output

import (
	"encoding/json"

	"github.com/namelens/genproxy/internal/config"
)

// JSONFormatter renders configuration as JSON. Durations render as strings.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) FormatConfig(cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", nil
	}

	view := newConfigView(cfg)

	var (
		data []byte
		err  error
	)
	if f.Indent {
		data, err = json.MarshalIndent(view, "", "  ")
	} else {
		data, err = json.Marshal(view)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
