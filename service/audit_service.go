package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/repository"
)

// Audit actions
const (
	AuditSettingUpdated     = "setting.updated"
	AuditGradationsUpdated  = "gradations.updated"
	AuditProductCreated     = "product.created"
	AuditProductUpdated     = "product.updated"
	AuditProductDeactivated = "product.deactivated"
	AuditPricesImported     = "prices.imported"
	AuditOrderCreated       = "order.created"
	AuditOrderStatusChanged = "order.status_changed"
	AuditMediaUploaded      = "media.uploaded"
	AuditMediaDeleted       = "media.deleted"
	AuditMediaSynced        = "media.synced"
)

// AuditRecorder records admin mutations. Implementations must not fail the caller.
type AuditRecorder interface {
	Record(ctx context.Context, actor, action, targetRef string, details interface{})
}

// AuditService writes and lists audit log entries
type AuditService struct {
	repo repository.AuditLogRepositoryInterface
}

// NewAuditService creates a new AuditService
func NewAuditService(repo repository.AuditLogRepositoryInterface) *AuditService {
	return &AuditService{repo: repo}
}

var _ AuditRecorder = (*AuditService)(nil)

// Record persists an entry. Repository failures are logged and swallowed.
func (s *AuditService) Record(ctx context.Context, actor, action, targetRef string, details interface{}) {
	if s == nil || s.repo == nil {
		return
	}
	entry := &models.AuditLogEntry{
		Actor:     truncate(strings.TrimSpace(actor), 128),
		Action:    strings.TrimSpace(action),
		TargetRef: truncate(strings.TrimSpace(targetRef), 256),
		Details:   encodeDetails(details),
	}
	if entry.Actor == "" {
		entry.Actor = "unknown"
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		logger.Log.Warnf("⚠️  audit log append failed: action=%s target=%s: %v", entry.Action, entry.TargetRef, err)
	}
}

// List returns recent entries
func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}

func encodeDetails(details interface{}) string {
	switch v := details.(type) {
	case nil:
		return ""
	case string:
		return truncate(v, 4000)
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Sprintf("%v", details)
	}
	return truncate(string(raw), 4000)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, string, string, string, interface{}) {}
