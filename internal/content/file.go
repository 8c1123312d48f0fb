package content

import (
	"fmt"
	"os"

	"github.com/xaenox/club-assistant/internal/classifier"
	"github.com/xaenox/club-assistant/internal/models"
	"gopkg.in/yaml.v3"
)

// fileOverrides is the on-disk shape of a content file. Every section is
// optional; keywords is a list so its order survives decoding.
type fileOverrides struct {
	Menu         string                      `yaml:"menu"`
	ScheduleAck  string                      `yaml:"schedule_ack"`
	Responses    map[models.IntentKey]string `yaml:"responses"`
	Numeric      map[string]models.IntentKey `yaml:"numeric"`
	SelectionIDs []models.IntentKey          `yaml:"selection_ids"`
	Keywords     []classifier.Keyword        `yaml:"keywords"`
}

// LoadFile applies the overrides in the YAML file at path to t and validates
// the result. Responses are merged per intent; numeric shortcuts, selection ids
// and keywords replace the defaults when present. t is left untouched when the
// file cannot be read or the result does not validate.
func LoadFile(path string, t *Table) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read content file: %w", err)
	}

	var f fileOverrides
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse content file %s: %w", path, err)
	}

	next := t.clone()
	if f.Menu != "" {
		next.Menu = f.Menu
	}
	if f.ScheduleAck != "" {
		next.ScheduleAck = f.ScheduleAck
	}
	for intent, body := range f.Responses {
		next.Responses[intent] = body
	}
	if len(f.Numeric) > 0 {
		next.Numeric = f.Numeric
	}
	if len(f.SelectionIDs) > 0 {
		next.SelectionIDs = f.SelectionIDs
	}
	if len(f.Keywords) > 0 {
		next.Keywords = f.Keywords
	}

	if err := next.Validate(); err != nil {
		return fmt.Errorf("content file %s: %w", path, err)
	}
	*t = *next
	return nil
}
