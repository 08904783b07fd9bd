package records

import "time"

// Category names double as the record-store collection names.
const (
	CategoryLifeEvents  = "personal_life_events"
	CategoryBanking     = "banking_notifications"
	CategoryCreditCards = "credit_card_statements"
	CategoryLoans       = "loan_notifications"
	CategoryInvestments = "investment_updates"
	CategoryBills       = "bills_utilities"
	CategoryTaxes       = "tax_notifications"

	// Legacy collections, kept for backward-compatible corpus inclusion.
	CategoryMessages     = "messages"
	CategoryEmails       = "emails"
	CategoryPersonalData = "personal_data"
)

// StructuredCategories lists the extracted categories in their fixed
// corpus order.
var StructuredCategories = []string{
	CategoryLifeEvents,
	CategoryBanking,
	CategoryCreditCards,
	CategoryLoans,
	CategoryInvestments,
	CategoryBills,
	CategoryTaxes,
}

// AllCategories includes the legacy collections. Ingestion purges every
// one of them on each run.
var AllCategories = []string{
	CategoryMessages,
	CategoryEmails,
	CategoryPersonalData,
	CategoryLifeEvents,
	CategoryBanking,
	CategoryCreditCards,
	CategoryLoans,
	CategoryInvestments,
	CategoryBills,
	CategoryTaxes,
}

// StructuredRecord is the result of applying one category pattern to one
// matched block. The optional sub-fields are best-effort extractions and
// independently nullable.
type StructuredRecord struct {
	UserID        int       `bson:"user_id" json:"user_id"`
	Category      string    `bson:"category" json:"category"`
	Type          string    `bson:"type" json:"type"`
	Provider      string    `bson:"provider,omitempty" json:"provider,omitempty"`
	Email         string    `bson:"email" json:"email"`
	Date          time.Time `bson:"date" json:"date"`
	Subject       string    `bson:"subject" json:"subject"`
	Body          string    `bson:"body" json:"body"`
	SenderName    string    `bson:"name,omitempty" json:"name,omitempty"`
	AccountNumber *string   `bson:"account_number,omitempty" json:"account_number,omitempty"`
	Amount        *float64  `bson:"amount,omitempty" json:"amount,omitempty"`
	DueDate       *string   `bson:"due_date,omitempty" json:"due_date,omitempty"`
}

// Message is a legacy free-form record included in the corpus verbatim.
type Message struct {
	UserID  int    `bson:"user_id" json:"user_id"`
	Content string `bson:"content" json:"content"`
}

// Email is a legacy record; only the body joins the corpus.
type Email struct {
	UserID  int    `bson:"user_id" json:"user_id"`
	Subject string `bson:"subject" json:"subject"`
	Body    string `bson:"body" json:"body"`
}

// PersonalProfile is a legacy structured record projected into the corpus
// as a synthesized summary sentence.
type PersonalProfile struct {
	UserID      int    `bson:"user_id" json:"user_id"`
	Age         int    `bson:"age" json:"age"`
	RiskProfile string `bson:"risk_profile" json:"risk_profile"`
}
