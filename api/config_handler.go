// Package api — configuration inspection endpoints.
package api

import (
	"net/http"
	"sort"
)

// handleGetConfig returns the running configuration: thresholds, severity
// tiers, correlation rule settings, and materiality overrides.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"thresholds":  s.cfg.Thresholds,
			"severity":    s.cfg.Severity,
			"correlation": s.cfg.Correlation,
			"materiality": s.cfg.Materiality,
			"report":      s.cfg.Report,
		},
	})
}

// handleGetAccounts returns the account mapping sorted by code.
func (s *Server) handleGetAccounts(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]interface{}, 0, len(s.cfg.Accounts))
	for _, ac := range s.cfg.Accounts {
		out = append(out, map[string]interface{}{
			"code":      ac.Code,
			"name":      ac.Name,
			"category":  ac.Category,
			"statement": ac.Statement,
			"recurring": ac.Recurring,
			"cyclical":  ac.Cyclical,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["code"].(string) < out[j]["code"].(string)
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    out,
	})
}
