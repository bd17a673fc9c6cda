package out

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/ggonzalez94/defi-router/internal/config"
	"github.com/ggonzalez94/defi-router/internal/model"
)

// Render writes an envelope in the configured output mode.
func Render(w io.Writer, env model.Envelope, settings config.Settings) error {
	if settings.OutputMode == "plain" {
		return renderPlain(w, env)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

func renderPlain(w io.Writer, env model.Envelope) error {
	if _, err := fmt.Fprintf(w, "success: %v\n", env.Success); err != nil {
		return err
	}
	if env.Error != nil {
		if _, err := fmt.Fprintf(w, "error: %s (code %d)\n", env.Error.Message, env.Error.Code); err != nil {
			return err
		}
	}
	for _, warning := range env.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warning); err != nil {
			return err
		}
	}
	if env.Data == nil {
		return nil
	}
	return renderValue(w, "", env.Data)
}

// renderValue flattens data into indented key: value lines. It round-trips
// through JSON so the plain view matches the JSON field names exactly.
func renderValue(w io.Writer, indent string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(buf, &generic); err != nil {
		return err
	}
	return renderGeneric(w, indent, generic)
}

func renderGeneric(w io.Writer, indent string, value any) error {
	switch typed := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := typed[k]
			switch child.(type) {
			case map[string]any, []any:
				if _, err := fmt.Fprintf(w, "%s%s:\n", indent, k); err != nil {
					return err
				}
				if err := renderGeneric(w, indent+"  ", child); err != nil {
					return err
				}
			default:
				if _, err := fmt.Fprintf(w, "%s%s: %v\n", indent, k, child); err != nil {
					return err
				}
			}
		}
	case []any:
		for i, item := range typed {
			if _, err := fmt.Fprintf(w, "%s- [%d]\n", indent, i); err != nil {
				return err
			}
			if err := renderGeneric(w, indent+"  ", item); err != nil {
				return err
			}
		}
	default:
		if _, err := fmt.Fprintf(w, "%s%v\n", indent, typed); err != nil {
			return err
		}
	}
	return nil
}
