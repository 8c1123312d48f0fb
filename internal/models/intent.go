package models

// IntentKey identifies a topic a message resolves to. Keys double as the
// selection ids carried by menu buttons.
type IntentKey string

const (
	IntentHours           IntentKey = "horarios"
	IntentPrices          IntentKey = "precos"
	IntentSchedule        IntentKey = "agendar"
	IntentDocuments       IntentKey = "documentos"
	IntentRules           IntentKey = "regras"
	IntentLocation        IntentKey = "localizacao"
	IntentDocumentRequest IntentKey = "solicitacao_documentos"
	IntentRenewal         IntentKey = "renovacao"
	IntentMembership      IntentKey = "filiacao"
	IntentHumanHandoff    IntentKey = "atendente"
	IntentCompetitions    IntentKey = "provas"
	IntentMenu            IntentKey = "menu"
)

// AllIntents lists every known intent in menu order, menu sentinel last.
var AllIntents = []IntentKey{
	IntentHours,
	IntentPrices,
	IntentSchedule,
	IntentDocuments,
	IntentRules,
	IntentLocation,
	IntentDocumentRequest,
	IntentRenewal,
	IntentMembership,
	IntentHumanHandoff,
	IntentCompetitions,
	IntentMenu,
}

// Known reports whether k belongs to the closed intent set.
func (k IntentKey) Known() bool {
	for _, i := range AllIntents {
		if i == k {
			return true
		}
	}
	return false
}

// IsPayment reports whether replies for k are built by the payment augmenter.
func (k IntentKey) IsPayment() bool {
	return k == IntentRenewal || k == IntentMembership
}
