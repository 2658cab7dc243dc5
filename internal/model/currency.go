package model

// ConvertRequest - query parameters of GET /convert. Amount stays a string
// so it can be echoed back exactly as received.
type ConvertRequest struct {
	From   string `form:"from" binding:"required"`
	To     string `form:"to" binding:"required"`
	Amount string `form:"amount" binding:"required"`
}

// ConvertResponse - successful conversion
type ConvertResponse struct {
	From            string  `json:"from"`
	To              string  `json:"to"`
	Amount          string  `json:"amount"`
	ConvertedAmount string  `json:"convertedAmount"`
	Rate            float64 `json:"rate"`
}

// ErrorResponse - body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	MsgMissingParameters = "Missing required query parameters: 'from', 'to', or 'amount'."
	MsgInvalidAmount     = "Amount must be a positive number."
	MsgConversionFailed  = "Failed to fetch conversion rate. Please try again later."
)

// MsgInvalidCurrency formats the unknown target currency message.
func MsgInvalidCurrency(code string) string {
	return "Invalid currency code: " + code + "."
}
