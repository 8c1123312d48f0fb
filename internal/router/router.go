// Package router turns one inbound chat message into a routing decision: the
// reply to send and whether a human operator has to take over.
package router

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xaenox/club-assistant/internal/classifier"
	"github.com/xaenox/club-assistant/internal/content"
	"github.com/xaenox/club-assistant/internal/escalation"
	"github.com/xaenox/club-assistant/internal/hours"
	"github.com/xaenox/club-assistant/internal/models"
	"go.uber.org/zap"
)

const (
	// DefaultNotUnderstood answers a message nothing resolved.
	DefaultNotUnderstood = "Desculpe, não consegui entender. Você pode digitar *MENU* para ver as opções ou *ATENDENTE* para falar com um atendente."
	// DefaultOutOfHours replaces an escalating reply while no operator is on duty.
	DefaultOutOfHours = "No momento estamos fora do horário de atendimento. Assim que estivermos disponíveis, entraremos em contato. Obrigado!"

	// ErrorReply is sent by transports when handling a message failed.
	ErrorReply = "Desculpe, ocorreu um erro. Por favor, tente novamente em instantes ou digite MENU para ver as opções."

	forcedEscalationNote = "Como não conseguimos ajudar automaticamente, um atendente será acionado. "

	noticeMaxRunes = 200
)

// Augmenter rewrites the reply of payment intents.
type Augmenter interface {
	Augment(ctx context.Context, intent models.IntentKey, base string) string
}

// Config overrides the router's fixed replies. Empty fields take the defaults.
type Config struct {
	NotUnderstood string
	OutOfHours    string
}

// Router composes the resolver, the escalation machine, payment augmentation
// and the business-hours gate. It holds no per-conversation state of its own.
type Router struct {
	table     *content.Table
	resolver  classifier.Classifier
	machine   *escalation.Machine
	augmenter Augmenter
	gate      *hours.Gate
	cfg       Config
	logger    *zap.Logger
}

// New creates a Router. augmenter may be nil, in which case payment replies
// stay static.
func New(
	table *content.Table,
	machine *escalation.Machine,
	augmenter Augmenter,
	gate *hours.Gate,
	cfg Config,
	logger *zap.Logger,
) *Router {
	if cfg.NotUnderstood == "" {
		cfg.NotUnderstood = DefaultNotUnderstood
	}
	if cfg.OutOfHours == "" {
		cfg.OutOfHours = DefaultOutOfHours
	}
	return &Router{
		table:     table,
		resolver:  table.Resolver(),
		machine:   machine,
		augmenter: augmenter,
		gate:      gate,
		cfg:       cfg,
		logger:    logger,
	}
}

// Route decides the reply for raw. The checks run in a fixed order: schedule
// request, explicit escalation, then intent resolution, then the unresolved
// counter. Store failures are logged and never reach the caller.
func (r *Router) Route(ctx context.Context, raw string, id models.ConversationID) models.RoutingDecision {
	if request, ok := classifier.DetectScheduleRequest(raw); ok {
		r.reset(ctx, id)
		return models.RoutingDecision{
			Reply:        r.table.ScheduleAcknowledgment(request),
			MustEscalate: true,
			Intent:       models.IntentSchedule,
			Kind:         models.KindScheduleRequest,
		}
	}

	if r.machine.RequestedHuman(raw) {
		r.reset(ctx, id)
		return models.RoutingDecision{
			Reply:        r.table.EscalationReply(),
			MustEscalate: true,
			Intent:       models.IntentHumanHandoff,
			Kind:         models.KindExplicitEscalation,
		}
	}

	intent, ok := r.resolver.Resolve(raw)
	if !ok {
		return r.unresolved(ctx, id)
	}

	reply, ok := r.table.Reply(intent)
	if !ok {
		// Unreachable with a validated table.
		r.logger.Warn("Resolved intent has no reply",
			zap.String("conversation_id", string(id)),
			zap.String("intent", string(intent)))
		return r.unresolved(ctx, id)
	}

	r.reset(ctx, id)

	switch intent {
	case models.IntentMenu:
		return models.RoutingDecision{Reply: reply, Intent: intent, Kind: models.KindMenu}
	case models.IntentHumanHandoff:
		return models.RoutingDecision{
			Reply:        r.table.EscalationReply(),
			MustEscalate: true,
			Intent:       intent,
			Kind:         models.KindHandoff,
		}
	}

	if intent.IsPayment() && r.augmenter != nil {
		reply = r.augmenter.Augment(ctx, intent, reply)
	}
	return models.RoutingDecision{Reply: reply, Intent: intent, Kind: models.KindResolved}
}

func (r *Router) unresolved(ctx context.Context, id models.ConversationID) models.RoutingDecision {
	escalate, err := r.machine.RegisterUnresolved(ctx, string(id))
	if err != nil {
		r.logger.Error("Failed to update escalation counter",
			zap.String("conversation_id", string(id)),
			zap.Error(err))
	}
	if !escalate {
		return models.RoutingDecision{Reply: r.cfg.NotUnderstood, Kind: models.KindNotUnderstood}
	}

	r.logger.Info("Escalating after repeated unresolved messages",
		zap.String("conversation_id", string(id)),
		zap.Int("threshold", r.machine.Threshold()))

	return models.RoutingDecision{
		Reply:        r.cfg.NotUnderstood + "\n\n" + forcedEscalationNote + r.table.EscalationReply(),
		MustEscalate: true,
		Kind:         models.KindForcedEscalation,
	}
}

func (r *Router) reset(ctx context.Context, id models.ConversationID) {
	if err := r.machine.Reset(ctx, string(id)); err != nil {
		r.logger.Warn("Failed to reset escalation counter",
			zap.String("conversation_id", string(id)),
			zap.Error(err))
	}
}

// Dispatch routes raw and applies the business-hours gate to escalating
// decisions. Outside staffed hours the reply is replaced by the out-of-hours
// message and the operator is not notified; the escalation is dropped, not
// queued.
func (r *Router) Dispatch(ctx context.Context, raw string, id models.ConversationID, now time.Time) models.Dispatch {
	decision := r.Route(ctx, raw, id)
	out := models.Dispatch{
		Decision: decision,
		Reply:    decision.Reply,
		Staffed:  r.gate == nil || r.gate.IsStaffed(now),
	}
	if !decision.MustEscalate {
		return out
	}

	if !out.Staffed {
		r.logger.Info("Escalation suppressed outside business hours",
			zap.String("conversation_id", string(id)),
			zap.Time("now", now))
		out.Reply = r.cfg.OutOfHours
		return out
	}

	out.NotifyOperator = true
	return out
}

// Menu returns the menu body without touching any conversation state.
func (r *Router) Menu() string {
	return r.table.Menu
}

// Options returns the menu options in numeric order.
func (r *Router) Options() []content.Option {
	return r.table.Options
}

// OperatorNotice is the message sent to the operator conversation when a
// conversation is escalated. The last message is cut to 200 characters.
func OperatorNotice(contact, raw string) string {
	return fmt.Sprintf("🔔 *Escalação para atendimento humano*\n\nContato: %s\nÚltima mensagem: \"%s\"\n\nVerifique o chat para atender.",
		contact, truncate(raw, noticeMaxRunes))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
