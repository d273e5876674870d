package promo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/SmartList_Go/internal/database/memory"
	"github.com/osse101/SmartList_Go/internal/domain"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) UpsertPromoCode(ctx context.Context, code domain.PromoCode) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

const validCatalog = `{
	"promo_codes": [
		{"code": " welcome30 ", "plan": "premium", "duration_days": 30, "max_uses": 100},
		{"code": "PROWEEK", "plan": "pro", "duration_days": 7, "max_uses": 5, "expires_at": "2027-01-01T00:00:00Z", "is_active": false}
	]
}`

func TestLoader_Parse(t *testing.T) {
	loader := NewLoader()

	tests := []struct {
		name     string
		data     string
		errorMsg string
	}{
		{name: "valid catalog", data: validCatalog},
		{name: "empty catalog", data: `{"promo_codes": []}`},
		{name: "missing list", data: `{}`, errorMsg: "required"},
		{name: "unknown plan", data: `{"promo_codes": [{"code": "A", "plan": "gold", "duration_days": 1, "max_uses": 1}]}`, errorMsg: "/promo_codes/0/plan"},
		{name: "zero duration", data: `{"promo_codes": [{"code": "A", "plan": "pro", "duration_days": 0, "max_uses": 1}]}`, errorMsg: "minimum"},
		{name: "unknown field", data: `{"promo_codes": [{"code": "A", "plan": "pro", "duration_days": 1, "max_uses": 1, "used_count": 3}]}`, errorMsg: "additionalProperties"},
		{name: "bad timestamp", data: `{"promo_codes": [{"code": "A", "plan": "pro", "duration_days": 1, "max_uses": 1, "expires_at": "soon"}]}`, errorMsg: "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Parse([]byte(tt.data))
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLoader_Validate(t *testing.T) {
	loader := NewLoader()

	t.Run("duplicates after normalization", func(t *testing.T) {
		c := &Catalog{PromoCodes: []Entry{
			{Code: "spring", Plan: domain.PlanPro, DurationDays: 1, MaxUses: 1},
			{Code: "SPRING ", Plan: domain.PlanPro, DurationDays: 1, MaxUses: 1},
		}}
		err := loader.Validate(c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("blank code", func(t *testing.T) {
		c := &Catalog{PromoCodes: []Entry{{Code: "   ", Plan: domain.PlanPro, DurationDays: 1}}}
		assert.Error(t, loader.Validate(c))
	})

	t.Run("free plan", func(t *testing.T) {
		c := &Catalog{PromoCodes: []Entry{{Code: "A", Plan: domain.PlanFree, DurationDays: 1}}}
		assert.Error(t, loader.Validate(c))
	})
}

func TestLoader_LoadAndSync(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "promos.json")
	require.NoError(t, os.WriteFile(path, []byte(validCatalog), 0o644))

	loader := NewLoader()
	catalog, err := loader.Load(path)
	require.NoError(t, err)
	require.NoError(t, loader.Validate(catalog))

	store := memory.NewPromoStore()
	result, err := loader.SyncToStore(ctx, catalog, store)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Updated)

	welcome, err := store.GetPromoCode(ctx, "WELCOME30")
	require.NoError(t, err)
	assert.True(t, welcome.IsActive, "is_active defaults to true")
	assert.Equal(t, domain.PlanPremium, welcome.Plan)

	proweek, err := store.GetPromoCode(ctx, "PROWEEK")
	require.NoError(t, err)
	assert.False(t, proweek.IsActive)
	require.NotNil(t, proweek.ExpiresAt)
	assert.Equal(t, 2027, proweek.ExpiresAt.Year())

	result, err = loader.SyncToStore(ctx, catalog, store)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 2, result.Updated)
}

func TestLoader_LoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoader_SyncStopsOnStoreError(t *testing.T) {
	store := new(MockCatalog)
	store.On("UpsertPromoCode", mock.Anything, mock.MatchedBy(func(p domain.PromoCode) bool { return p.Code == "A" })).
		Return(true, nil).Once()
	store.On("UpsertPromoCode", mock.Anything, mock.MatchedBy(func(p domain.PromoCode) bool { return p.Code == "B" })).
		Return(false, errors.New("connection reset")).Once()

	c := &Catalog{PromoCodes: []Entry{
		{Code: "a", Plan: domain.PlanPro, DurationDays: 1, MaxUses: 1},
		{Code: "b", Plan: domain.PlanPro, DurationDays: 1, MaxUses: 1},
		{Code: "c", Plan: domain.PlanPro, DurationDays: 1, MaxUses: 1},
	}}
	result, err := NewLoader().SyncToStore(context.Background(), c, store)

	require.Error(t, err)
	assert.Equal(t, 1, result.Inserted)
	store.AssertExpectations(t)
}
