package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optovik-store/models"
	"optovik-store/repository/memory"
)

func TestProductService_CreateNormalizes(t *testing.T) {
	store := memory.NewProductStore()
	audit := &recordingAudit{}
	svc := NewProductService(store, audit)
	ctx := context.Background()

	p, err := svc.Create(ctx, "admin", models.ProductRequest{
		Article:     " kt-7 ",
		Name:        " Худи ",
		Category:    "Одежда",
		RetailPrice: dec("1999.999"),
		Colors:      []string{"Черный", "черный", " ", "Серый"},
		Sizes:       []string{"2xl", "XXL", "m"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "KT-7", p.Article)
	assert.Equal(t, "Худи", p.Name)
	assertDec(t, "2000", p.RetailPrice)
	assert.Equal(t, []string{"Черный", "Серый"}, p.Colors)
	assert.Equal(t, []string{"XXL", "M"}, p.Sizes)
	assert.True(t, p.IsActive)
	assert.Equal(t, []string{AuditProductCreated}, audit.actions())

	_, err = svc.Create(ctx, "admin", models.ProductRequest{Article: "KT-7", Name: "Другой", RetailPrice: dec("10")})
	assert.ErrorIs(t, err, ErrDuplicateArticle)
}

func TestProductService_Validation(t *testing.T) {
	svc := NewProductService(memory.NewProductStore(), nil)
	_, err := svc.Create(context.Background(), "admin", models.ProductRequest{Name: "Без артикула", RetailPrice: dec("10")})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestProductService_UpdateAndDeactivate(t *testing.T) {
	store := memory.NewProductStore()
	seedProduct(t, store, "p1", "KT-1", "100", nil, nil)
	seedProduct(t, store, "p2", "KT-2", "200", nil, nil)
	svc := NewProductService(store, nil)
	ctx := context.Background()

	inactive := false
	p, err := svc.Update(ctx, "admin", "p1", models.ProductRequest{
		Article: "KT-1", Name: "Новое имя", RetailPrice: dec("150"), IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Новое имя", p.Name)
	assert.False(t, p.IsActive)

	_, err = svc.Update(ctx, "admin", "p1", models.ProductRequest{Article: "KT-2", Name: "x", RetailPrice: dec("1")})
	assert.ErrorIs(t, err, ErrDuplicateArticle)
	_, err = svc.Update(ctx, "admin", "missing", models.ProductRequest{Article: "KT-9", Name: "x", RetailPrice: dec("1")})
	assert.ErrorIs(t, err, ErrProductNotFound)

	require.NoError(t, svc.Deactivate(ctx, "admin", "p2"))
	assert.ErrorIs(t, svc.Deactivate(ctx, "admin", "missing"), ErrProductNotFound)

	active, err := svc.List(ctx, models.ProductFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestCleanList(t *testing.T) {
	assert.Equal(t, []string{}, cleanList(nil, func(s string) string { return s }))
	assert.Equal(t, []string{"a", "B"}, cleanList([]string{"a", "A", "", "B"}, func(s string) string { return s }))
}
