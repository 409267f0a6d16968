package payment

import (
	"strings"

	"go.uber.org/zap"

	"github.com/coralcart/storefront/internal/domain"
)

// Classification is the stable user-facing contract for a gateway failure
type Classification struct {
	Message     string
	Recoverable bool
	Suggestion  string
}

// Classifier translates raw gateway error vocabulary into user-facing
// classifications. Pure function of (code, message, method); no side effects
// beyond logging.
type Classifier struct {
	logger *zap.Logger
}

// NewClassifier creates a payment error classifier
func NewClassifier(logger *zap.Logger) *Classifier {
	return &Classifier{logger: logger}
}

var exactClassifications = map[string]Classification{
	"card_declined": {
		Message:     "Your card was declined.",
		Recoverable: true,
		Suggestion:  "Try a different card or contact your bank.",
	},
	"insufficient_funds": {
		Message:     "Your card has insufficient funds.",
		Recoverable: true,
		Suggestion:  "Use a different payment method or add funds.",
	},
	"expired_card": {
		Message:     "Your card has expired.",
		Recoverable: true,
		Suggestion:  "Check the expiry date or use a different card.",
	},
	"incorrect_cvc": {
		Message:     "The security code is incorrect.",
		Recoverable: true,
		Suggestion:  "Re-enter the three digits on the back of your card.",
	},
	"processing_error": {
		Message:     "The payment could not be processed.",
		Recoverable: true,
		Suggestion:  "Wait a moment and try again.",
	},
	"authentication_required": {
		Message:     "Your bank requires additional authentication.",
		Recoverable: true,
		Suggestion:  "Complete the verification step and try again.",
	},
	"capture_failed": {
		Message:     "The wallet payment was not completed.",
		Recoverable: true,
		Suggestion:  "Approve the payment in your wallet and try again.",
	},
	"missing_intent": {
		Message:     "The wallet payment was not started.",
		Recoverable: true,
		Suggestion:  "Restart the wallet payment flow.",
	},
	"amount_mismatch": {
		Message:     "The wallet payment does not match your order total.",
		Recoverable: true,
		Suggestion:  "Restart the wallet payment flow for the current total.",
	},
	// Non-retryable: retrying without intervention cannot succeed
	"invalid_api_key": {
		Message:     "Payment is temporarily unavailable.",
		Recoverable: false,
		Suggestion:  "Please contact support.",
	},
	"merchant_blocked": {
		Message:     "This transaction cannot be processed.",
		Recoverable: false,
		Suggestion:  "Please contact support.",
	},
	"gateway_unreachable": {
		Message:     "Payment is temporarily unavailable.",
		Recoverable: false,
		Suggestion:  "Please try again later.",
	},
}

var genericClassification = Classification{
	Message:     "The payment could not be completed.",
	Recoverable: true,
	Suggestion:  "Check your payment details and try again.",
}

// Classify maps a raw gateway error to a user-facing classification.
// Lookup is tiered: exact code match, then substring heuristics on the raw
// message, then a generic fallback.
func (c *Classifier) Classify(errorCode, rawMessage string, method domain.PaymentMethod) Classification {
	if cls, ok := exactClassifications[errorCode]; ok {
		c.log(errorCode, method, cls)
		return cls
	}

	lower := strings.ToLower(rawMessage)
	switch {
	case strings.Contains(lower, "declined"):
		cls := exactClassifications["card_declined"]
		c.log(errorCode, method, cls)
		return cls
	case strings.Contains(lower, "insufficient"):
		cls := exactClassifications["insufficient_funds"]
		c.log(errorCode, method, cls)
		return cls
	case strings.Contains(lower, "expired"):
		cls := exactClassifications["expired_card"]
		c.log(errorCode, method, cls)
		return cls
	case strings.Contains(lower, "authentication"), strings.Contains(lower, "unauthorized"):
		cls := Classification{
			Message:     "Payment is temporarily unavailable.",
			Recoverable: false,
			Suggestion:  "Please contact support.",
		}
		c.log(errorCode, method, cls)
		return cls
	}

	c.log(errorCode, method, genericClassification)
	return genericClassification
}

func (c *Classifier) log(errorCode string, method domain.PaymentMethod, cls Classification) {
	c.logger.Info("Classified payment error",
		zap.String("error_code", errorCode),
		zap.String("method", string(method)),
		zap.Bool("recoverable", cls.Recoverable),
	)
}
