// AngelaMos | 2026
// dto.go

package payment

type CreateIntentRequest struct {
	OrderID string `json:"order_id" validate:"required,max=64"`
}

type IntentResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}
