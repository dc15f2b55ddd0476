package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/service"
)

// publicPricing is what the storefront needs to show tier hints
type publicPricing struct {
	MinRetailOrder    string                 `json:"minRetailOrder"`
	MinWholesaleOrder string                 `json:"minWholesaleOrder"`
	Gradations        []models.WholesaleTier `json:"gradations"`
}

// SettingsController handles HTTP requests for site settings
type SettingsController struct {
	settings *service.SettingsProvider
}

// NewSettingsController creates a new SettingsController
func NewSettingsController(settings *service.SettingsProvider) *SettingsController {
	return &SettingsController{settings: settings}
}

// PublicPricing handles GET /api/settings/pricing
func (c *SettingsController) PublicPricing(w http.ResponseWriter, r *http.Request) {
	ps := c.settings.PricingSettings()
	writeJSON(w, http.StatusOK, publicPricing{
		MinRetailOrder:    ps.MinRetailOrder.String(),
		MinWholesaleOrder: ps.MinWholesaleOrder.String(),
		Gradations:        ps.Tiers,
	})
}

// List handles GET /admin/settings
func (c *SettingsController) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.settings.All())
}

// Update handles PUT /admin/settings/{key}
func (c *SettingsController) Update(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	logger.Log.Infof("📥 UpdateSetting: key=%s actor=%s", key, Actor(r))

	var req models.UpdateSettingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := c.settings.Set(r.Context(), Actor(r), key, req.Value); err != nil {
		writeError(w, "UpdateSetting", err)
		return
	}
	writeJSON(w, http.StatusOK, models.Setting{Key: key, Value: c.settings.GetSetting(key, "")})
}

// Gradations handles GET /admin/settings/gradations
func (c *SettingsController) Gradations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.settings.GetWholesaleGradations())
}

// UpdateGradations handles PUT /admin/settings/gradations
func (c *SettingsController) UpdateGradations(w http.ResponseWriter, r *http.Request) {
	logger.Log.Infof("📥 UpdateGradations: actor=%s", Actor(r))

	var req models.UpdateGradationsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := c.settings.SetGradations(r.Context(), Actor(r), req); err != nil {
		writeError(w, "UpdateGradations", err)
		return
	}
	c.PublicPricing(w, r)
}

// Refresh handles POST /admin/settings/refresh
func (c *SettingsController) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := c.settings.Refresh(r.Context()); err != nil {
		writeError(w, "RefreshSettings", err)
		return
	}
	writeJSON(w, http.StatusOK, c.settings.All())
}
