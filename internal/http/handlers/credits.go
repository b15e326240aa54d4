package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

const defaultHistoryLimit = 20

type creditsResponse struct {
	Balance int64                `json:"balance"`
	Entries []domain.LedgerEntry `json:"entries"`
}

// CreditsSummary returns the tenant balance and its most recent entries.
func (a *App) CreditsSummary(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenant(w, r)
	if !ok {
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			a.error(w, http.StatusBadRequest, string(domain.KindInvalidInput), "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	balance, err := a.Credits.Balance(r.Context(), tenantID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	entries, err := a.Credits.History(r.Context(), tenantID, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	a.json(w, http.StatusOK, creditsResponse{Balance: balance, Entries: entries})
}

type creditGrantRequest struct {
	TenantID string `json:"tenant_id"`
	Pack     string `json:"pack,omitempty"`
	Plan     string `json:"plan,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
}

type creditGrantResponse struct {
	TenantID string `json:"tenant_id"`
	Balance  int64  `json:"balance"`
}

// GrantCredits adds credits from a pack purchase, a plan grant or a raw amount.
// Exactly one of the three must be given.
func (a *App) GrantCredits(w http.ResponseWriter, r *http.Request) {
	var req creditGrantRequest
	if !a.decode(w, r, &req) {
		return
	}
	set := 0
	for _, given := range []bool{strings.TrimSpace(req.Pack) != "", strings.TrimSpace(req.Plan) != "", req.Amount != 0} {
		if given {
			set++
		}
	}
	if set != 1 {
		a.fail(w, r, domain.InvalidInput("exactly one of pack, plan or amount is required"))
		return
	}

	var (
		balance int64
		err     error
	)
	switch {
	case req.Pack != "":
		balance, err = a.Credits.PurchasePack(r.Context(), req.TenantID, req.Pack)
	case req.Plan != "":
		balance, err = a.Credits.GrantPlan(r.Context(), req.TenantID, req.Plan)
	default:
		balance, err = a.Credits.Credit(r.Context(), req.TenantID, req.Amount, domain.ReasonGrant)
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.Logger.Info().Str("tenant_id", req.TenantID).Int64("balance", balance).Msg("credits granted")
	a.json(w, http.StatusOK, creditGrantResponse{TenantID: req.TenantID, Balance: balance})
}
