package repository

import (
	"context"
	"fmt"
	"pajak-web/internal/models"
	"strings"

	"github.com/jmoiron/sqlx"
)

type PartyRepository struct {
	db *sqlx.DB
}

func NewPartyRepository(db *sqlx.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

const partyColumns = `
	party_type,
	name,
	COALESCE(party_name, '') as party_name,
	COALESCE(tax_id, '') as tax_id,
	COALESCE(address, '') as address,
	COALESCE(country, '') as country,
	COALESCE(supplier_group, '') as supplier_group,
	created_at`

func (r *PartyRepository) GetParty(ctx context.Context, partyType, name string) (*models.Party, error) {
	var party models.Party
	query := "SELECT " + partyColumns + " FROM parties WHERE party_type = ? AND name = ? LIMIT 1"
	if err := sqlx.GetContext(ctx, GetDB(ctx, r.db), &party, query, partyType, name); err != nil {
		return nil, notFound(err, partyType+" "+name)
	}
	return &party, nil
}

func (r *PartyRepository) FindSupplierByKeywords(ctx context.Context, keywords []string) (*models.Party, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("supplier: %w", models.ErrNotFound)
	}

	conditions := make([]string, 0, len(keywords))
	args := []interface{}{models.PartyTypeSupplier}
	for _, kw := range keywords {
		conditions = append(conditions, "LOWER(COALESCE(party_name, name)) LIKE ?")
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}

	var party models.Party
	query := "SELECT " + partyColumns + " FROM parties WHERE party_type = ? AND (" +
		strings.Join(conditions, " OR ") + ") ORDER BY created_at LIMIT 1"
	if err := sqlx.GetContext(ctx, GetDB(ctx, r.db), &party, query, args...); err != nil {
		return nil, notFound(err, "supplier")
	}
	return &party, nil
}

func (r *PartyRepository) CreateParty(ctx context.Context, party *models.Party) error {
	query := `INSERT INTO parties (party_type, name, party_name, tax_id, address, country, supplier_group, created_at)
	          VALUES (:party_type, :name, :party_name, :tax_id, :address, :country, :supplier_group, :created_at)`
	_, err := sqlx.NamedExecContext(ctx, GetDB(ctx, r.db), query, party)
	return err
}
