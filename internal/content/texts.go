package content

import (
	"fmt"
	"strings"

	"github.com/xaenox/club-assistant/internal/classifier"
	"github.com/xaenox/club-assistant/internal/models"
)

// Option is one numbered menu entry. Its position in the menu is its numeric
// shortcut.
type Option struct {
	Label       string
	Description string
	Intent      models.IntentKey
}

var defaultOptions = []Option{
	{Label: "HORÁRIOS", Description: "Horário de funcionamento", Intent: models.IntentHours},
	{Label: "PREÇOS", Description: "Valores e planos", Intent: models.IntentPrices},
	{Label: "AGENDAR", Description: "Agendar visita ou aula", Intent: models.IntentSchedule},
	{Label: "DOCUMENTOS", Description: "Documentos necessários (CR, etc.)", Intent: models.IntentDocuments},
	{Label: "REGRAS", Description: "Regras e normas do clube", Intent: models.IntentRules},
	{Label: "LOCALIZAÇÃO", Description: "Endereço e como chegar", Intent: models.IntentLocation},
	{Label: "DECLARAÇÕES", Description: "Solicitar declarações e documentos do clube", Intent: models.IntentDocumentRequest},
	{Label: "RENOVAÇÃO", Description: "Renovar filiação", Intent: models.IntentRenewal},
	{Label: "FILIAÇÃO", Description: "Tornar-se sócio", Intent: models.IntentMembership},
	{Label: "CONTATO", Description: "Falar com atendente humano", Intent: models.IntentHumanHandoff},
	{Label: "PROVAS", Description: "Calendário de provas e competições", Intent: models.IntentCompetitions},
}

// Keyword order is the substring tie-break: specific words go before the
// generic words that contain them.
var defaultKeywords = []classifier.Keyword{
	// Proof of payment is checked by an operator.
	{Word: "comprovante", Intent: models.IntentHumanHandoff},
	{Word: "menu", Intent: models.IntentMenu},
	{Word: "ajuda", Intent: models.IntentMenu},
	{Word: "oi", Intent: models.IntentMenu},
	{Word: "olá", Intent: models.IntentMenu},
	{Word: "bom dia", Intent: models.IntentMenu},
	{Word: "boa tarde", Intent: models.IntentMenu},
	{Word: "boa noite", Intent: models.IntentMenu},
	{Word: "horario", Intent: models.IntentHours},
	{Word: "horários", Intent: models.IntentHours},
	{Word: "horarios", Intent: models.IntentHours},
	{Word: "funcionamento", Intent: models.IntentHours},
	{Word: "abre", Intent: models.IntentHours},
	{Word: "fecha", Intent: models.IntentHours},
	{Word: "renovação", Intent: models.IntentRenewal},
	{Word: "renovar", Intent: models.IntentRenewal},
	{Word: "filiação", Intent: models.IntentMembership},
	{Word: "filiar", Intent: models.IntentMembership},
	{Word: "associar", Intent: models.IntentMembership},
	{Word: "sócio", Intent: models.IntentMembership},
	{Word: "preco", Intent: models.IntentPrices},
	{Word: "preços", Intent: models.IntentPrices},
	{Word: "precos", Intent: models.IntentPrices},
	{Word: "valor", Intent: models.IntentPrices},
	{Word: "valores", Intent: models.IntentPrices},
	{Word: "preço", Intent: models.IntentPrices},
	{Word: "mensalidade", Intent: models.IntentPrices},
	{Word: "agendar", Intent: models.IntentSchedule},
	{Word: "agendamento", Intent: models.IntentSchedule},
	{Word: "visita", Intent: models.IntentSchedule},
	{Word: "aula", Intent: models.IntentSchedule},
	{Word: "declaração", Intent: models.IntentDocumentRequest},
	{Word: "declarações", Intent: models.IntentDocumentRequest},
	{Word: "habitualidade", Intent: models.IntentDocumentRequest},
	{Word: "solicitar documento", Intent: models.IntentDocumentRequest},
	{Word: "documento", Intent: models.IntentDocuments},
	{Word: "documentos", Intent: models.IntentDocuments},
	{Word: "cr", Intent: models.IntentDocuments},
	{Word: "certificado", Intent: models.IntentDocuments},
	{Word: "regras", Intent: models.IntentRules},
	{Word: "normas", Intent: models.IntentRules},
	{Word: "localizacao", Intent: models.IntentLocation},
	{Word: "localização", Intent: models.IntentLocation},
	{Word: "endereco", Intent: models.IntentLocation},
	{Word: "endereço", Intent: models.IntentLocation},
	{Word: "onde fica", Intent: models.IntentLocation},
	{Word: "como chego", Intent: models.IntentLocation},
	{Word: "provas", Intent: models.IntentCompetitions},
	{Word: "competição", Intent: models.IntentCompetitions},
	{Word: "campeonato", Intent: models.IntentCompetitions},
	{Word: "contato", Intent: models.IntentHumanHandoff},
	{Word: "atendente", Intent: models.IntentHumanHandoff},
	{Word: "humano", Intent: models.IntentHumanHandoff},
	{Word: "pessoa", Intent: models.IntentHumanHandoff},
}

const defaultScheduleAck = `📅 *Solicitação de agendamento recebida*

Anotamos: {request}

Em breve entraremos em contato para confirmar. Se preferir, digite *CONTATO* para falar com um atendente agora.`

func renderMenu(orgName string, options []Option) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 *%s* - Assistente Virtual\n\n", orgName)
	b.WriteString("Escolha uma opção digitando o *número* ou a *palavra*:\n\n")
	for i, opt := range options {
		fmt.Fprintf(&b, "%s *%s* - %s\n", keycap(i+1), opt.Label, opt.Description)
	}
	b.WriteString("\nDigite *MENU* a qualquer momento para ver este menu novamente.")
	return b.String()
}

// keycap renders n with keycap emoji digits, e.g. 10 -> "1️⃣0️⃣".
func keycap(n int) string {
	var b strings.Builder
	for _, d := range fmt.Sprint(n) {
		b.WriteRune(d)
		b.WriteString("\ufe0f\u20e3")
	}
	return b.String()
}

func renderResponses(s Settings) map[models.IntentKey]string {
	return map[models.IntentKey]string{
		models.IntentHours: strings.TrimSpace(`
🕐 *Horários de funcionamento*

• *Segunda:* 18h às 22h
• Terça a Quinta: fechado
• *Sexta:* 10h às 22h
• *Sábado e Domingo:* 9h às 18h

_Consulte sempre antes de vir; horários podem variar em feriados._
`),

		models.IntentPrices: strings.TrimSpace(`
💰 *Valores e planos*

• Visita avulsa (Day Use): R$ 150,00
• Filiação: R$ 750,00
• Renovação de filiação: R$ 650,00
• Curso de Iniciação ao Tiro: R$ 350,00

_Pagamento em dinheiro, PIX ou cartão._
`),

		models.IntentSchedule: strings.TrimSpace(`
📅 *Agendamento*

Para agendar visita ou aula de tiro:

1. Envie: *AGENDAR [data] [horário]*
   Exemplo: _AGENDAR 15/02 14h_

2. Ou digite *CONTATO* para um atendente agendar por você.
`),

		models.IntentDocuments: strings.TrimSpace(`
📋 *Documentos necessários*

Para frequentar o clube você precisa de:

• *Documento com foto* (RG ou CNH)
• *CR (Certificado de Registro)* para portar/transitar com arma
• *Atestado de capacidade técnica* (quando aplicável)
• Menores: autorização e acompanhamento do responsável

_Na primeira visita traga RG e, se tiver, o CR._
`),

		models.IntentRules: strings.TrimSpace(`
📜 *Regras e normas do clube*

• Respeitar sempre as ordens dos instrutores e da direção
• Uso obrigatório de EPI (óculos e protetor auricular)
• Proibido apontar arma para pessoas em qualquer situação
• Arma só deve ser carregada na linha de tiro, quando autorizado
• Celular e filmagens somente com autorização

_Desrespeito às normas pode resultar em exclusão._
`),

		models.IntentLocation: strings.TrimSpace(`
📍 *Localização*

Endereço: Rua Iguatemi Santos de Carvalho, 501 - Vila Juvenal - Cruzeiro - SP
CEP: 12702-332

Como chegar: https://maps.app.goo.gl/ikWp95yfAVZuGQfo6
`),

		models.IntentDocumentRequest: strings.TrimSpace(fmt.Sprintf(`
🗂 *Solicitação de documentos*

O %s emite, para sócios em dia:

• Declaração de habitualidade
• Declaração de filiação
• Comprovante de participação em provas

Envie o nome completo, CPF e o documento desejado. Um atendente confere os dados e retorna em até 2 dias úteis.
`, s.OrgName)),

		models.IntentRenewal: strings.TrimSpace(fmt.Sprintf(`
💳 *Renovação* (R$ 650,00)

*PIX* (chave CNPJ)
%s

Para receber o link de pagamento no cartão, digite *CONTATO* ou *10*.

📌 *Após o pagamento*, envie o comprovante aqui para concluirmos o processo.
`, "`"+s.PixKey+"`")),

		models.IntentMembership: strings.TrimSpace(fmt.Sprintf(`
💳 *Filiação* (R$ 750,00)
%s
*PIX* (chave CNPJ)
%s

Para receber o link de pagamento no cartão, digite *CONTATO* ou *10*.

📌 *Após o pagamento*, envie o comprovante aqui para concluirmos o processo.
`, preRegistrationBlock(s.PreRegistrationURL), "`"+s.PixKey+"`")),

		models.IntentHumanHandoff: strings.TrimSpace(`
👤 *Atendimento humano*

Você será atendido por um de nossos atendentes em breve.

Obrigado pelo contato!
`),

		models.IntentCompetitions: renderCompetitions(s),
	}
}

// preRegistrationBlock is the membership pre-registration paragraph, empty
// when no form is configured.
func preRegistrationBlock(link string) string {
	if strings.TrimSpace(link) == "" {
		return ""
	}
	return fmt.Sprintf("\n*Pré-filiação*: preencha o formulário antes de pagar:\n%s\n", link)
}

func renderCompetitions(s Settings) string {
	var b strings.Builder
	b.WriteString("🏆 *Provas e competições*\n\n")
	fmt.Fprintf(&b, "O %s participa de:\n\n", s.OrgName)
	for _, name := range s.Competitions.Names() {
		fmt.Fprintf(&b, "• %s\n", name)
	}
	b.WriteString("\n_Para inscrições e calendário atualizado, digite *CONTATO*._")
	return b.String()
}
