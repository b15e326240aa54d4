package domain

import "time"

// LedgerReason names the operation a balance change belongs to.
type LedgerReason string

const (
	ReasonGeneration      LedgerReason = "generation"
	ReasonImageGeneration LedgerReason = "image_generation"
	ReasonPriceSuggestion LedgerReason = "price_suggestion"
	ReasonRefund          LedgerReason = "refund"
	ReasonPurchase        LedgerReason = "purchase"
	ReasonGrant           LedgerReason = "grant"
)

// LedgerEntry is an append-only record of a balance change.
type LedgerEntry struct {
	ID           string       `json:"id"`
	TenantID     string       `json:"tenant_id"`
	Delta        int64        `json:"delta"`
	Reason       LedgerReason `json:"reason"`
	BalanceAfter int64        `json:"balance_after"`
	CreatedAt    time.Time    `json:"created_at"`
}

// CreditPack is a purchasable bundle of credits.
type CreditPack struct {
	ID      string `json:"id"`
	Credits int64  `json:"credits"`
}

// Plan is a subscription tier that grants credits each billing period.
type Plan struct {
	ID      string `json:"id"`
	Credits int64  `json:"credits"`
}

var (
	CreditPacks = map[string]CreditPack{
		"small":  {ID: "small", Credits: 50},
		"medium": {ID: "medium", Credits: 150},
		"large":  {ID: "large", Credits: 500},
	}
	Plans = map[string]Plan{
		"starter":    {ID: "starter", Credits: 100},
		"pro":        {ID: "pro", Credits: 500},
		"enterprise": {ID: "enterprise", Credits: 2000},
	}
)
