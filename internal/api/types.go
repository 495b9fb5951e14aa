// Package api defines the JSON wire types shared by the HTTP client and the
// bundled server. Amounts travel as decimal strings, dates as YYYY-MM-DD,
// timestamps as unix milliseconds.
package api

type Expense struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Date        string `json:"date"`
	Note        string `json:"note,omitempty"`
	ReceiptKey  string `json:"receipt_key,omitempty"`
	UpdatedAt   int64  `json:"updated_at,omitempty"`
}

type Subcategory struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PresignedURL struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url"`
}

type Error struct {
	Error string `json:"error"`
}

// DateLayout is the wire format for expense dates.
const DateLayout = "2006-01-02"
