package rules

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load starts from Default and overlays the YAML file at path, if any.
// Lists such as bands replace the defaults wholesale.
func Load(path string) (Table, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Table{}, fmt.Errorf("failed to load default rules: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Table{}, fmt.Errorf("failed to load rules file %s: %w", path, err)
		}
	}

	var t Table
	if err := k.Unmarshal("", &t); err != nil {
		return Table{}, fmt.Errorf("failed to unmarshal rules: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, fmt.Errorf("invalid rules: %w", err)
	}
	return t, nil
}

func defaultMap() map[string]interface{} {
	d := Default()

	bands := make([]interface{}, 0, len(d.Bands))
	for _, b := range d.Bands {
		bands = append(bands, map[string]interface{}{
			"min":  b.Min,
			"max":  b.Max,
			"tone": string(b.Tone),
		})
	}

	return map[string]interface{}{
		"min_days_late":        d.MinDaysLate,
		"upcoming_window_days": d.UpcomingWindowDays,
		"bands":                bands,
		"cooldown": map[string]interface{}{
			"policy":     string(d.Cooldown.Policy),
			"fixed_days": d.Cooldown.FixedDays,
			"gentle":     d.Cooldown.Gentle,
			"firm":       d.Cooldown.Firm,
			"escalation": d.Cooldown.Escalation,
		},
	}
}
