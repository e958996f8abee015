package repository

import (
	"context"
	"pajak-web/internal/models"

	"github.com/jmoiron/sqlx"
)

// AccountRepository reads the mirrored chart of accounts and companies and
// stores the configured tax account bindings.
type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `
	name,
	account_name,
	COALESCE(account_number, '') as account_number,
	COALESCE(account_type, '') as account_type,
	company,
	is_group,
	is_active,
	created_at,
	updated_at`

func (r *AccountRepository) GetAccount(ctx context.Context, name string) (*models.Account, error) {
	var account models.Account
	query := "SELECT " + accountColumns + " FROM accounts WHERE name = ? LIMIT 1"
	if err := sqlx.GetContext(ctx, GetDB(ctx, r.db), &account, query, name); err != nil {
		return nil, notFound(err, "account "+name)
	}
	return &account, nil
}

func (r *AccountRepository) ListAccounts(ctx context.Context, company string, accountTypes []string) ([]models.Account, error) {
	q := GetDB(ctx, r.db)
	query := "SELECT " + accountColumns + " FROM accounts WHERE company = ? AND is_group = 0 AND is_active = 1"
	args := []interface{}{company}

	if len(accountTypes) > 0 {
		inQuery, inArgs, err := sqlx.In(" AND account_type IN (?)", accountTypes)
		if err != nil {
			return nil, err
		}
		query += inQuery
		args = append(args, inArgs...)
	}
	query += " ORDER BY name"

	accounts := []models.Account{}
	if err := sqlx.SelectContext(ctx, q, &accounts, q.Rebind(query), args...); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *AccountRepository) GetBinding(ctx context.Context, company string, role models.TaxRole) (*models.AccountBinding, error) {
	var binding models.AccountBinding
	query := "SELECT company, tax_role, account, updated_at FROM account_bindings WHERE company = ? AND tax_role = ? LIMIT 1"
	if err := sqlx.GetContext(ctx, GetDB(ctx, r.db), &binding, query, company, role); err != nil {
		return nil, notFound(err, "account binding")
	}
	return &binding, nil
}

func (r *AccountRepository) ListBindings(ctx context.Context, company string) ([]models.AccountBinding, error) {
	bindings := []models.AccountBinding{}
	query := "SELECT company, tax_role, account, updated_at FROM account_bindings WHERE company = ? ORDER BY tax_role"
	if err := sqlx.SelectContext(ctx, GetDB(ctx, r.db), &bindings, query, company); err != nil {
		return nil, err
	}
	return bindings, nil
}

func (r *AccountRepository) SaveBinding(ctx context.Context, binding *models.AccountBinding) error {
	query := `INSERT INTO account_bindings (company, tax_role, account, updated_at)
	          VALUES (:company, :tax_role, :account, :updated_at)
	          ON DUPLICATE KEY UPDATE account = VALUES(account), updated_at = VALUES(updated_at)`
	_, err := sqlx.NamedExecContext(ctx, GetDB(ctx, r.db), query, binding)
	return err
}

func (r *AccountRepository) DeleteBinding(ctx context.Context, company string, role models.TaxRole) error {
	result, err := GetDB(ctx, r.db).ExecContext(ctx, "DELETE FROM account_bindings WHERE company = ? AND tax_role = ?", company, role)
	if err != nil {
		return err
	}
	return expectOne(result, "account binding")
}

func (r *AccountRepository) GetCompany(ctx context.Context, name string) (*models.Company, error) {
	var company models.Company
	query := `
		SELECT name,
		       COALESCE(tax_id, '') as tax_id,
		       COALESCE(address, '') as address,
		       COALESCE(default_bank_account, '') as default_bank_account,
		       COALESCE(temporary_account, '') as temporary_account,
		       COALESCE(default_expense_account, '') as default_expense_account
		FROM companies
		WHERE name = ?
		LIMIT 1`
	if err := sqlx.GetContext(ctx, GetDB(ctx, r.db), &company, query, name); err != nil {
		return nil, notFound(err, "company "+name)
	}
	return &company, nil
}
