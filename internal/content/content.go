package content

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xaenox/club-assistant/internal/classifier"
	"github.com/xaenox/club-assistant/internal/models"
)

// ErrInvalidTable is returned by Validate when the routing tables reference
// intents without a reply.
var ErrInvalidTable = errors.New("invalid content table")

const requestPlaceholder = "{request}"

// Competitions holds the display names of the competitions the club runs or
// takes part in.
type Competitions struct {
	Internal        string `mapstructure:"internal"`
	Calibre         string `mapstructure:"calibre"`
	CBTT            string `mapstructure:"cbtt"`
	W2C             string `mapstructure:"w2c"`
	Linade          string `mapstructure:"linade"`
	StateFederation string `mapstructure:"state_federation"`
}

// Names returns the non-empty names in display order.
func (c Competitions) Names() []string {
	all := []string{c.Internal, c.Calibre, c.CBTT, c.W2C, c.Linade, c.StateFederation}
	names := make([]string, 0, len(all))
	for _, n := range all {
		if strings.TrimSpace(n) != "" {
			names = append(names, n)
		}
	}
	return names
}

// Settings are the organization values interpolated into replies.
type Settings struct {
	OrgName            string
	PixKey             string
	PreRegistrationURL string
	Competitions       Competitions
}

// Table is the fully rendered content the router works from. It is built once
// and shared read-only.
type Table struct {
	Menu         string
	Options      []Option
	Responses    map[models.IntentKey]string
	SelectionIDs []models.IntentKey
	Numeric      map[string]models.IntentKey
	Keywords     []classifier.Keyword
	ScheduleAck  string
}

// Build renders the default tables for s and validates them.
func Build(s Settings) (*Table, error) {
	options := make([]Option, len(defaultOptions))
	copy(options, defaultOptions)

	t := &Table{
		Menu:        renderMenu(s.OrgName, options),
		Options:     options,
		Responses:   renderResponses(s),
		Numeric:     make(map[string]models.IntentKey, len(options)),
		Keywords:    make([]classifier.Keyword, len(defaultKeywords)),
		ScheduleAck: defaultScheduleAck,
	}
	copy(t.Keywords, defaultKeywords)

	for i, opt := range options {
		t.Numeric[strconv.Itoa(i+1)] = opt.Intent
		t.SelectionIDs = append(t.SelectionIDs, opt.Intent)
	}
	t.SelectionIDs = append(t.SelectionIDs, models.IntentMenu)

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Reply returns the reply for intent; the menu sentinel maps to the menu body.
func (t *Table) Reply(intent models.IntentKey) (string, bool) {
	if intent == models.IntentMenu {
		return t.Menu, t.Menu != ""
	}
	r, ok := t.Responses[intent]
	return r, ok
}

// EscalationReply is the reply sent whenever a conversation goes to a human.
func (t *Table) EscalationReply() string {
	return t.Responses[models.IntentHumanHandoff]
}

// ScheduleAcknowledgment renders the booking acknowledgment echoing request.
func (t *Table) ScheduleAcknowledgment(request string) string {
	return strings.ReplaceAll(t.ScheduleAck, requestPlaceholder, request)
}

// Resolver builds the intent resolver over the table.
func (t *Table) Resolver() *classifier.Resolver {
	return classifier.NewResolver(t.SelectionIDs, t.Numeric, t.Keywords)
}

// clone returns a deep copy of t.
func (t *Table) clone() *Table {
	cp := *t
	cp.Options = append([]Option(nil), t.Options...)
	cp.SelectionIDs = append([]models.IntentKey(nil), t.SelectionIDs...)
	cp.Keywords = append([]classifier.Keyword(nil), t.Keywords...)
	cp.Responses = make(map[models.IntentKey]string, len(t.Responses))
	for k, v := range t.Responses {
		cp.Responses[k] = v
	}
	cp.Numeric = make(map[string]models.IntentKey, len(t.Numeric))
	for k, v := range t.Numeric {
		cp.Numeric[k] = v
	}
	return &cp
}

// Validate checks that every intent reachable from a selection id, number or
// keyword has a reply.
func (t *Table) Validate() error {
	var errs []error

	check := func(source string, intent models.IntentKey) {
		if !intent.Known() {
			errs = append(errs, fmt.Errorf("%s: unknown intent %q", source, intent))
			return
		}
		if _, ok := t.Reply(intent); !ok {
			errs = append(errs, fmt.Errorf("%s: no reply for intent %q", source, intent))
		}
	}

	if strings.TrimSpace(t.Menu) == "" {
		errs = append(errs, errors.New("menu is empty"))
	}
	if t.EscalationReply() == "" {
		errs = append(errs, fmt.Errorf("no reply for intent %q", models.IntentHumanHandoff))
	}
	if !strings.Contains(t.ScheduleAck, requestPlaceholder) {
		errs = append(errs, fmt.Errorf("schedule acknowledgment must contain %s", requestPlaceholder))
	}
	for _, id := range t.SelectionIDs {
		check("selection id "+string(id), id)
	}
	for n, intent := range t.Numeric {
		if _, err := strconv.Atoi(n); err != nil {
			errs = append(errs, fmt.Errorf("numeric shortcut %q is not a number", n))
		}
		check("numeric shortcut "+n, intent)
	}
	for _, kw := range t.Keywords {
		if classifier.Normalize(kw.Word) == "" {
			errs = append(errs, errors.New("empty keyword"))
			continue
		}
		check("keyword "+kw.Word, kw.Intent)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTable, errors.Join(errs...))
	}
	return nil
}
