package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xaenox/club-assistant/internal/models"
	"go.uber.org/zap"
)

const (
	// ContactOperatorLine replaces the checkout link when it cannot be generated.
	ContactOperatorLine = "_Para receber o link de pagamento no cartão, digite *CONTATO* ou *10*._"

	proofOfPaymentNotice = "📌 *Após o pagamento*, envie o comprovante aqui para concluirmos o processo."
)

// AugmenterConfig controls payment augmentation. PixKey and
// PreRegistrationURL are repeated in the augmented message.
type AugmenterConfig struct {
	Enabled            bool
	PixKey             string
	PreRegistrationURL string
	// Timeout bounds the whole link generation, on top of the HTTP client's own.
	Timeout time.Duration
}

// Augmenter replaces the static renewal and membership replies with a payment
// message carrying a freshly generated checkout link.
type Augmenter struct {
	links  LinkGenerator
	cfg    AugmenterConfig
	logger *zap.Logger
}

// NewAugmenter creates an Augmenter. links may be nil, which leaves every
// reply unchanged.
func NewAugmenter(links LinkGenerator, cfg AugmenterConfig, logger *zap.Logger) *Augmenter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Augmenter{
		links:  links,
		cfg:    cfg,
		logger: logger,
	}
}

// Enabled reports whether replies are augmented at all.
func (a *Augmenter) Enabled() bool {
	return a.cfg.Enabled && a.links != nil
}

// Augment returns the payment message for the renewal and membership intents
// and base for everything else, or when payment links are disabled.
func (a *Augmenter) Augment(ctx context.Context, intent models.IntentKey, base string) string {
	if !intent.IsPayment() || !a.Enabled() {
		return base
	}
	return a.Message(ctx, Kind(intent))
}

// Message builds the payment instructions for kind. A link generation failure
// is logged and replaced by ContactOperatorLine; it never reaches the caller.
func (a *Augmenter) Message(ctx context.Context, kind Kind) string {
	product, ok := ProductFor(kind)
	if !ok {
		product = Product{Title: string(kind)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💳 *%s* (%s)\n", product.Title, product.PriceLabel)

	if kind == KindMembership && a.cfg.PreRegistrationURL != "" {
		fmt.Fprintf(&b, "\n*Pré-filiação*: preencha o formulário antes de pagar:\n%s\n", a.cfg.PreRegistrationURL)
	}

	fmt.Fprintf(&b, "\n*PIX* (chave CNPJ)\n`%s`\n", a.cfg.PixKey)
	fmt.Fprintf(&b, "\n*Cartão de crédito* (até %dx sem juros)\n", MaxInstallments)

	if link, err := a.generate(ctx, kind); err != nil {
		a.logger.Error("Failed to generate payment link",
			zap.Error(err),
			zap.String("kind", string(kind)))
		fmt.Fprintf(&b, "\n%s\n", ContactOperatorLine)
	} else {
		fmt.Fprintf(&b, "\n*Link para pagamento:* %s\n", link)
	}

	fmt.Fprintf(&b, "\n\n%s", proofOfPaymentNotice)
	return strings.TrimSpace(b.String())
}

func (a *Augmenter) generate(ctx context.Context, kind Kind) (string, error) {
	if a.links == nil {
		return "", fmt.Errorf("no link generator configured")
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	return a.links.GenerateLink(ctx, kind)
}
