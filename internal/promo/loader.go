package promo

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/osse101/SmartList_Go/internal/domain"
	"github.com/osse101/SmartList_Go/internal/entitlement"
	"github.com/osse101/SmartList_Go/internal/repository"
	"github.com/osse101/SmartList_Go/internal/validation"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// CatalogSchema is the schema name every catalog file is checked against
const CatalogSchema = "schemas/promo_catalog.schema.json"

// Entry is one promo code as written by operators
type Entry struct {
	Code         string      `json:"code"`
	Plan         domain.Plan `json:"plan"`
	DurationDays int         `json:"duration_days"`
	MaxUses      int         `json:"max_uses"`
	ExpiresAt    *time.Time  `json:"expires_at,omitempty"`
	IsActive     *bool       `json:"is_active,omitempty"`
}

// Catalog is the promo code configuration file
type Catalog struct {
	PromoCodes []Entry `json:"promo_codes"`
}

// SyncResult counts what a sync changed
type SyncResult struct {
	Inserted int
	Updated  int
}

// Loader reads and syncs promo catalogs
type Loader struct {
	schemas validation.SchemaValidator
}

// NewLoader creates a loader using the embedded catalog schema
func NewLoader() *Loader {
	return &Loader{schemas: validation.NewSchemaValidator(schemaFS)}
}

// Load reads path and parses it
func (l *Loader) Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read promo catalog %s: %w", path, err)
	}
	return l.Parse(data)
}

// Parse checks data against the catalog schema and decodes it
func (l *Loader) Parse(data []byte) (*Catalog, error) {
	if err := l.schemas.Validate(data, CatalogSchema); err != nil {
		return nil, err
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode promo catalog: %w", err)
	}
	return &c, nil
}

// Validate applies the rules a schema cannot express. Codes are compared
// after normalization, the same way users type them.
func (l *Loader) Validate(c *Catalog) error {
	seen := make(map[string]struct{}, len(c.PromoCodes))
	for i, e := range c.PromoCodes {
		code := entitlement.NormalizeCode(e.Code)
		if code == "" {
			return fmt.Errorf("promo_codes[%d]: code is blank", i)
		}
		if _, dup := seen[code]; dup {
			return fmt.Errorf("promo_codes[%d]: duplicate code %q", i, code)
		}
		seen[code] = struct{}{}

		if !e.Plan.IsPaid() {
			return fmt.Errorf("promo_codes[%d]: plan %q does not grant a paid tier", i, e.Plan)
		}
	}
	return nil
}

// SyncToStore upserts every entry. Usage counters already in the store survive.
func (l *Loader) SyncToStore(ctx context.Context, c *Catalog, store repository.PromoCatalog) (*SyncResult, error) {
	result := &SyncResult{}
	for _, e := range c.PromoCodes {
		inserted, err := store.UpsertPromoCode(ctx, e.toPromoCode())
		if err != nil {
			return result, fmt.Errorf("failed to sync promo code %s: %w", e.Code, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}
	return result, nil
}

func (e Entry) toPromoCode() domain.PromoCode {
	active := true
	if e.IsActive != nil {
		active = *e.IsActive
	}
	return domain.PromoCode{
		Code:         entitlement.NormalizeCode(e.Code),
		IsActive:     active,
		MaxUses:      e.MaxUses,
		ExpiresAt:    e.ExpiresAt,
		Plan:         e.Plan,
		DurationDays: e.DurationDays,
	}
}
