package models

// ConversationID identifies a chat with one end user. The router only uses it
// as a lookup key.
type ConversationID string

// DecisionKind records which routing branch produced a decision.
type DecisionKind string

const (
	KindScheduleRequest    DecisionKind = "schedule_request"
	KindExplicitEscalation DecisionKind = "explicit_escalation"
	KindMenu               DecisionKind = "menu"
	KindHandoff            DecisionKind = "handoff"
	KindResolved           DecisionKind = "resolved"
	KindNotUnderstood      DecisionKind = "not_understood"
	KindForcedEscalation   DecisionKind = "forced_escalation"
)

// RoutingDecision is the outcome of routing one inbound message.
// Intent is empty when nothing resolved.
type RoutingDecision struct {
	Reply        string       `json:"reply"`
	MustEscalate bool         `json:"must_escalate"`
	Intent       IntentKey    `json:"intent,omitempty"`
	Kind         DecisionKind `json:"kind"`
}

// Dispatch is a decision after business-hours post-processing: Reply is what
// the user receives and NotifyOperator tells the transport to alert the
// operator conversation.
type Dispatch struct {
	Decision       RoutingDecision `json:"decision"`
	Reply          string          `json:"reply"`
	NotifyOperator bool            `json:"notify_operator"`
	Staffed        bool            `json:"staffed"`
}
