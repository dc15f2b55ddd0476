package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optovik-store/models"
	"optovik-store/repository/memory"
)

func TestAuditService_Record(t *testing.T) {
	store := memory.NewAuditLogStore()
	svc := NewAuditService(store)
	ctx := context.Background()

	svc.Record(ctx, "", AuditProductCreated, "product:1", map[string]string{"article": "KT-1"})
	svc.Record(ctx, "manager", AuditSettingUpdated, "store_name", strings.Repeat("я", 5000))

	entries, err := svc.List(ctx, models.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "manager", entries[0].Actor)
	assert.Len(t, []rune(entries[0].Details), 4000)
	assert.Equal(t, "unknown", entries[1].Actor)
	assert.JSONEq(t, `{"article":"KT-1"}`, entries[1].Details)

	filtered, err := svc.List(ctx, models.AuditLogFilter{Action: AuditProductCreated})
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestAuditService_SwallowsFailures(t *testing.T) {
	store := memory.NewAuditLogStore()
	store.Err = errors.New("disk full")
	svc := NewAuditService(store)

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), "admin", AuditMediaDeleted, "media:1", nil)
	})

	var nilSvc *AuditService
	assert.NotPanics(t, func() {
		nilSvc.Record(context.Background(), "admin", AuditMediaDeleted, "media:1", nil)
	})
}
