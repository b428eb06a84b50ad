package models

// PaymentOrder is the gateway's handle for one pending charge.
type PaymentOrder struct {
	OrderID          string `json:"orderId"`
	AmountMinorUnits int64  `json:"amountMinorUnits"`
	Currency         string `json:"currency"`
	Reference        string `json:"reference"` // booking attempt id
	ClientSecret     string `json:"clientSecret,omitempty"`
}

// PaymentSuccessCallback is delivered by the gateway when a charge clears.
type PaymentSuccessCallback struct {
	AttemptID string `json:"attemptId" binding:"required"`
	OrderID   string `json:"orderId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
}

// PaymentFailureCallback is delivered by the gateway when a charge fails.
type PaymentFailureCallback struct {
	AttemptID string `json:"attemptId" binding:"required"`
	OrderID   string `json:"orderId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
