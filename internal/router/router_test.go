package router

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/xaenox/club-assistant/internal/content"
	"github.com/xaenox/club-assistant/internal/escalation"
	"github.com/xaenox/club-assistant/internal/hours"
	"github.com/xaenox/club-assistant/internal/models"
	"github.com/xaenox/club-assistant/internal/payment"
	"github.com/xaenox/club-assistant/internal/storage"
	"go.uber.org/zap/zaptest"
)

const pixKey = "31.161.416/0001-15"

// 2026-01-02 is a Friday, staffed 10-22 by default.
var (
	fridayNoon     = time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	tuesdayMorning = time.Date(2026, 1, 6, 11, 0, 0, 0, time.UTC)
)

type fixture struct {
	router *Router
	store  *storage.MemoryStorage
	table  *content.Table
}

func newFixture(t *testing.T, augmenter Augmenter) fixture {
	t.Helper()

	table, err := content.Build(content.Settings{
		OrgName:            "Clube de Tiro",
		PixKey:             pixKey,
		PreRegistrationURL: "https://example.com/pre",
	})
	if err != nil {
		t.Fatalf("content.Build() error = %v", err)
	}

	gate, err := hours.NewGate(hours.DefaultSchedule(), "UTC")
	if err != nil {
		t.Fatalf("hours.NewGate() error = %v", err)
	}

	store := storage.NewMemoryStorage(0, nil)
	t.Cleanup(func() { store.Close() })

	machine := escalation.New(store, nil, escalation.DefaultThreshold)
	r := New(table, machine, augmenter, gate, Config{}, zaptest.NewLogger(t))
	return fixture{router: r, store: store, table: table}
}

func TestRoute_NumericShortcut(t *testing.T) {
	f := newFixture(t, nil)

	got := f.router.Route(context.Background(), "3", "chat")

	want, _ := f.table.Reply(models.IntentSchedule)
	if got.Intent != models.IntentSchedule || got.Reply != want {
		t.Errorf("Route(3) = %+v, want schedule info reply", got)
	}
	if got.MustEscalate {
		t.Errorf("Route(3) should not escalate")
	}
	if got.Kind != models.KindResolved {
		t.Errorf("Kind = %q, want %q", got.Kind, models.KindResolved)
	}
}

func TestRoute_ExplicitEscalation(t *testing.T) {
	f := newFixture(t, nil)

	got := f.router.Route(context.Background(), "quero falar com atendente", "chat")

	if !got.MustEscalate {
		t.Fatalf("Route() should escalate on an explicit request")
	}
	if got.Reply != f.table.EscalationReply() {
		t.Errorf("Reply = %q, want the escalation reply", got.Reply)
	}
	if got.Kind != models.KindExplicitEscalation {
		t.Errorf("Kind = %q", got.Kind)
	}
}

func TestRoute_ProofOfPaymentGoesToOperator(t *testing.T) {
	f := newFixture(t, nil)

	for _, text := range []string{"segue o comprovante", "Comprovante do PIX em anexo"} {
		got := f.router.Route(context.Background(), text, "chat")
		if got.Intent != models.IntentHumanHandoff || !got.MustEscalate || got.Kind != models.KindHandoff {
			t.Errorf("Route(%q) = %+v, want handoff", text, got)
		}
	}
}

func TestRoute_UnresolvedEscalatesOnSecond(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first := f.router.Route(ctx, "xpto zzz", "chat")
	if first.MustEscalate || first.Reply != DefaultNotUnderstood {
		t.Fatalf("first gibberish = %+v, want the default message only", first)
	}

	second := f.router.Route(ctx, "blz qwk", "chat")
	if !second.MustEscalate {
		t.Fatalf("second gibberish should escalate")
	}
	if !strings.HasPrefix(second.Reply, DefaultNotUnderstood) || !strings.HasSuffix(second.Reply, f.table.EscalationReply()) {
		t.Errorf("second reply should combine the default and escalation messages:\n%s", second.Reply)
	}
	if second.Kind != models.KindForcedEscalation {
		t.Errorf("Kind = %q", second.Kind)
	}

	if n, _ := f.store.Get(ctx, "chat"); n != 0 {
		t.Errorf("counter after escalation = %d, want 0", n)
	}
}

func TestRoute_ResolvedResetsCounter(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.router.Route(ctx, "xpto zzz", "chat")
	if got := f.router.Route(ctx, "horarios", "chat"); got.Intent != models.IntentHours {
		t.Fatalf("Route(horarios) intent = %q", got.Intent)
	}
	if got := f.router.Route(ctx, "xpto zzz", "chat"); got.MustEscalate {
		t.Errorf("unresolved message after a resolved one should not escalate")
	}
}

func TestRoute_ConversationsAreIndependent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.router.Route(ctx, "xpto zzz", "a")
	if got := f.router.Route(ctx, "xpto zzz", "b"); got.MustEscalate {
		t.Errorf("first unresolved message of another conversation escalated")
	}
}

func TestRoute_ScheduleRequest(t *testing.T) {
	f := newFixture(t, nil)

	got := f.router.Route(context.Background(), "  Agendar sábado às 10h  ", "chat")

	if !got.MustEscalate || got.Kind != models.KindScheduleRequest {
		t.Fatalf("Route() = %+v, want an escalating schedule request", got)
	}
	if !strings.Contains(got.Reply, "sábado às 10h") {
		t.Errorf("reply should echo the request:\n%s", got.Reply)
	}

	// The bare command is a keyword, not a request.
	if bare := f.router.Route(context.Background(), "agendar", "chat"); bare.MustEscalate {
		t.Errorf("bare command should resolve to the schedule info, got %+v", bare)
	}
}

func TestRoute_MenuAndHandoff(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	menu := f.router.Route(ctx, "menu", "chat")
	if menu.Kind != models.KindMenu || menu.Reply != f.table.Menu || menu.MustEscalate {
		t.Errorf("Route(menu) = %+v", menu)
	}

	handoff := f.router.Route(ctx, "10", "chat")
	if handoff.Intent != models.IntentHumanHandoff || !handoff.MustEscalate {
		t.Errorf("Route(10) = %+v, want handoff", handoff)
	}
}

type failingLinks struct{}

func (failingLinks) GenerateLink(ctx context.Context, kind payment.Kind) (string, error) {
	return "", errors.New("connection refused")
}

type fixedLinks string

func (l fixedLinks) GenerateLink(ctx context.Context, kind payment.Kind) (string, error) {
	return string(l), nil
}

func TestRoute_PaymentAugmentation(t *testing.T) {
	cfg := payment.AugmenterConfig{Enabled: true, PixKey: pixKey}

	ok := newFixture(t, payment.NewAugmenter(fixedLinks("https://pay.example.com/1"), cfg, zaptest.NewLogger(t)))
	got := ok.router.Route(context.Background(), "quero renovar", "chat")
	if got.Intent != models.IntentRenewal || got.MustEscalate {
		t.Fatalf("Route(renovar) = %+v", got)
	}
	if !strings.Contains(got.Reply, "https://pay.example.com/1") {
		t.Errorf("reply should carry the generated link:\n%s", got.Reply)
	}

	broken := newFixture(t, payment.NewAugmenter(failingLinks{}, cfg, zaptest.NewLogger(t)))
	got = broken.router.Route(context.Background(), "8", "chat")
	if !strings.Contains(got.Reply, payment.ContactOperatorLine) || !strings.Contains(got.Reply, pixKey) {
		t.Errorf("fallback reply missing contact line or PIX key:\n%s", got.Reply)
	}
	if strings.Contains(got.Reply, "https://") {
		t.Errorf("fallback reply should not contain a URL:\n%s", got.Reply)
	}
}

type brokenStore struct{}

func (brokenStore) Get(ctx context.Context, id string) (int, error) {
	return 0, errors.New("down")
}
func (brokenStore) Increment(ctx context.Context, id string) (int, error) {
	return 0, errors.New("down")
}
func (brokenStore) Reset(ctx context.Context, id string) error { return errors.New("down") }
func (brokenStore) Close() error                              { return nil }

func TestRoute_StoreFailureDegrades(t *testing.T) {
	f := newFixture(t, nil)
	f.router.machine = escalation.New(brokenStore{}, nil, 2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if got := f.router.Route(ctx, "xpto zzz", "chat"); got.MustEscalate || got.Reply != DefaultNotUnderstood {
			t.Fatalf("unresolved with a failing store = %+v", got)
		}
	}
	if got := f.router.Route(ctx, "1", "chat"); got.Intent != models.IntentHours {
		t.Errorf("resolved with a failing store = %+v", got)
	}
}

func TestDispatch_BusinessHours(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	staffed := f.router.Dispatch(ctx, "quero falar com atendente", "chat", fridayNoon)
	if !staffed.NotifyOperator || !staffed.Staffed {
		t.Errorf("staffed escalation = %+v, want operator notified", staffed)
	}
	if staffed.Reply != f.table.EscalationReply() {
		t.Errorf("staffed reply = %q", staffed.Reply)
	}

	closed := f.router.Dispatch(ctx, "quero falar com atendente", "chat", tuesdayMorning)
	if closed.NotifyOperator || closed.Staffed {
		t.Errorf("closed escalation = %+v, want no notification", closed)
	}
	if closed.Reply != DefaultOutOfHours {
		t.Errorf("closed reply = %q, want the out-of-hours message", closed.Reply)
	}
	if !closed.Decision.MustEscalate {
		t.Errorf("the underlying decision should still carry MustEscalate")
	}

	plain := f.router.Dispatch(ctx, "1", "chat", tuesdayMorning)
	if plain.NotifyOperator {
		t.Errorf("non-escalating message notified the operator")
	}
	if want, _ := f.table.Reply(models.IntentHours); plain.Reply != want {
		t.Errorf("non-escalating reply changed outside business hours")
	}
}

func TestOperatorNotice(t *testing.T) {
	long := strings.Repeat("ç", 250)
	notice := OperatorNotice("5511999999999", long)

	if !strings.Contains(notice, "Contato: 5511999999999") {
		t.Errorf("notice missing the contact:\n%s", notice)
	}
	quoted := notice[strings.Index(notice, "\"")+1:]
	quoted = quoted[:strings.Index(quoted, "\"")]
	if n := utf8.RuneCountInString(quoted); n != 200 {
		t.Errorf("quoted message has %d characters, want 200", n)
	}
	if !utf8.ValidString(notice) {
		t.Errorf("notice is not valid UTF-8")
	}

	if short := OperatorNotice("x", "oi"); !strings.Contains(short, "\"oi\"") {
		t.Errorf("short message should be kept whole:\n%s", short)
	}
}
