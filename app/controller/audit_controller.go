package controller

import (
	"net/http"

	"optovik-store/models"
	"optovik-store/service"
)

// AuditController serves the admin audit trail
type AuditController struct {
	audit *service.AuditService
}

// NewAuditController creates a new AuditController
func NewAuditController(audit *service.AuditService) *AuditController {
	return &AuditController{audit: audit}
}

// List handles GET /admin/audit-logs?action=&limit=
func (c *AuditController) List(w http.ResponseWriter, r *http.Request) {
	entries, err := c.audit.List(r.Context(), models.AuditLogFilter{
		Action: r.URL.Query().Get("action"),
		Limit:  queryInt(r, "limit", 100),
	})
	if err != nil {
		writeError(w, "ListAuditLogs", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
