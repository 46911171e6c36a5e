package domain

type Supplier struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Phone string `db:"phone" json:"phone,omitempty"`
	Notes string `db:"notes" json:"notes,omitempty"`
}

// Client is someone the pharmacy resells stock to. A positive balance means the client owes money.
type Client struct {
	ID      string  `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Phone   string  `db:"phone" json:"phone,omitempty"`
	Balance float64 `db:"balance" json:"balance"`
	Notes   string  `db:"notes" json:"notes,omitempty"`
}
