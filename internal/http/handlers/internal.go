package handlers

import (
	"net/http"
)

// RunAutoApprove runs one auto-approve batch. It is called by an external scheduler.
func (a *App) RunAutoApprove(w http.ResponseWriter, r *http.Request) {
	if a.AutoApprove == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "auto-approve is not configured")
		return
	}
	res, err := a.AutoApprove.Run(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}
