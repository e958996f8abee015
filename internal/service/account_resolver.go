package service

import (
	"context"
	"errors"
	"pajak-web/internal/cache"
	"pajak-web/internal/models"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	cacheKindBank       = "bank"
	cacheKindAdjustment = "adjustment"
)

// accountPattern matches when all fragments appear in order, like a SQL
// LIKE '%a%b%'.
type accountPattern []string

func (p accountPattern) match(s string) bool {
	s = strings.ToLower(s)
	pos := 0
	for _, fragment := range p {
		i := strings.Index(s[pos:], fragment)
		if i < 0 {
			return false
		}
		pos += i + len(fragment)
	}
	return true
}

// matches tests the display name and the identifier.
func (p accountPattern) matches(a models.Account) bool {
	return p.match(a.AccountName) || p.match(a.Name)
}

type accountLookup struct {
	accountTypes []string
	// Tried in order; the first matcher with a hit wins. Among several
	// accounts hit by the same matcher the store order (by name) decides,
	// which is not a meaningful preference.
	patterns []accountPattern
}

func withholdingLookup(article string) accountLookup {
	return accountLookup{
		accountTypes: []string{models.AccountTypeTax, models.AccountTypeLiability, models.AccountTypePayable},
		patterns: []accountPattern{
			{"pph", article},
			{"withholding", article},
			{"pajak", article},
		},
	}
}

var roleLookups = map[models.TaxRole]accountLookup{
	models.TaxRolePPNOut: {
		accountTypes: []string{models.AccountTypeTax, models.AccountTypeLiability},
		patterns: []accountPattern{
			{"ppn", "keluaran"},
			{"pajak", "keluaran"},
			{"ppn", "output"},
			{"vat", "output"},
		},
	},
	models.TaxRolePPNIn: {
		accountTypes: []string{models.AccountTypeTax, models.AccountTypeAsset},
		patterns: []accountPattern{
			{"ppn", "masukan"},
			{"pajak", "masukan"},
			{"ppn", "input"},
			{"vat", "input"},
		},
	},
	models.TaxRolePPh21: withholdingLookup("21"),
	models.TaxRolePPh23: withholdingLookup("23"),
	models.TaxRolePPh26: withholdingLookup("26"),
}

var adjustmentLookup = accountLookup{
	accountTypes: []string{models.AccountTypeTemporary, models.AccountTypeExpense, models.AccountTypeIncome},
	patterns: []accountPattern{
		{"tax", "adjustment"},
		{"pajak", "penyesuaian"},
		{"kompensasi", "pajak"},
	},
}

// AccountResolver finds the ledger account playing a tax role for a company:
// configured binding first, then name heuristics. Successful resolutions are
// cached; a miss is never cached.
type AccountResolver struct {
	bindings  BindingStore
	accounts  AccountStore
	companies CompanyStore
	cache     cache.AccountCache
	logger    *logrus.Logger
}

func NewAccountResolver(
	bindings BindingStore,
	accounts AccountStore,
	companies CompanyStore,
	accountCache cache.AccountCache,
	logger *logrus.Logger,
) *AccountResolver {
	return &AccountResolver{
		bindings:  bindings,
		accounts:  accounts,
		companies: companies,
		cache:     accountCache,
		logger:    logger,
	}
}

// Resolve returns the account for role, or false when none qualifies.
func (r *AccountResolver) Resolve(ctx context.Context, company string, role models.TaxRole) (string, bool) {
	if company == "" {
		return "", false
	}
	if account, ok := r.cache.Get(ctx, company, string(role)); ok {
		return account, true
	}

	account, ok := r.resolveBinding(ctx, company, role)
	if !ok {
		lookup, known := roleLookups[role]
		if !known {
			return "", false
		}
		account, ok = r.search(ctx, company, lookup)
	}
	if !ok {
		r.logger.WithFields(logrus.Fields{"company": company, "role": role}).Info("no account found for tax role")
		return "", false
	}

	r.cache.Set(ctx, company, string(role), account)
	return account, true
}

// ResolveBankAccount returns the company's default bank account or the first
// bank account of the company.
func (r *AccountResolver) ResolveBankAccount(ctx context.Context, company string) (string, bool) {
	if account, ok := r.cache.Get(ctx, company, cacheKindBank); ok {
		return account, true
	}

	var account string
	if c, err := r.companies.GetCompany(ctx, company); err == nil && c.DefaultBankAccount != "" {
		account = c.DefaultBankAccount
	} else {
		banks, err := r.accounts.ListAccounts(ctx, company, []string{models.AccountTypeBank})
		if err != nil {
			r.logger.WithError(err).WithField("company", company).Warn("failed to list bank accounts")
			return "", false
		}
		if len(banks) == 0 {
			return "", false
		}
		account = banks[0].Name
	}

	r.cache.Set(ctx, company, cacheKindBank, account)
	return account, true
}

// ResolveAdjustmentAccount returns the account that receives compensation
// adjustments: a named tax adjustment account, else the first temporary or
// expense account, else the company's temporary or default expense account.
func (r *AccountResolver) ResolveAdjustmentAccount(ctx context.Context, company string) (string, bool) {
	if account, ok := r.cache.Get(ctx, company, cacheKindAdjustment); ok {
		return account, true
	}

	account, ok := r.search(ctx, company, adjustmentLookup)
	if !ok {
		fallback, err := r.accounts.ListAccounts(ctx, company, []string{models.AccountTypeTemporary, models.AccountTypeExpense})
		if err == nil && len(fallback) > 0 {
			account, ok = fallback[0].Name, true
		}
	}
	if !ok {
		if c, err := r.companies.GetCompany(ctx, company); err == nil {
			switch {
			case c.TemporaryAccount != "":
				account, ok = c.TemporaryAccount, true
			case c.DefaultExpenseAccount != "":
				account, ok = c.DefaultExpenseAccount, true
			}
		}
	}
	if !ok {
		return "", false
	}

	r.cache.Set(ctx, company, cacheKindAdjustment, account)
	return account, true
}

// withholdingArticle finds the PPh article named in an account name, such as
// "PPh 23", "pph21", "PPh Pasal 26" or "Withholding 21".
var withholdingArticle = regexp.MustCompile(`\b(?:(?:pph|withholding|pajak penghasilan)\s*(?:pasal\s*)?|pasal\s*)(21|23|26)\b`)

// accountNumberPrefix is the "2143 - " numbering in front of account identifiers.
var accountNumberPrefix = regexp.MustCompile(`^\d+\s*-\s*`)

// WithholdingRole reports which PPh role a ledger account represents, using
// resolved accounts first and then the article named in the account name.
func (r *AccountResolver) WithholdingRole(ctx context.Context, company, account string) (models.TaxRole, bool) {
	for _, role := range []models.TaxRole{models.TaxRolePPh23, models.TaxRolePPh26, models.TaxRolePPh21} {
		if resolved, ok := r.Resolve(ctx, company, role); ok && resolved == account {
			return role, true
		}
	}

	name := accountNumberPrefix.ReplaceAllString(account, "")
	if a, err := r.accounts.GetAccount(ctx, account); err == nil && a.AccountName != "" {
		name = a.AccountName
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		r.logger.WithError(err).WithField("account", account).Warn("failed to read account")
	}

	m := withholdingArticle.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return "", false
	}
	return models.TaxRole("PPh" + m[1]), true
}

// Invalidate drops the cached resolution of a role.
func (r *AccountResolver) Invalidate(ctx context.Context, company string, role models.TaxRole) {
	r.cache.Invalidate(ctx, company, string(role))
}

// InvalidateCompany drops every cached resolution of a company.
func (r *AccountResolver) InvalidateCompany(ctx context.Context, company string) {
	r.cache.InvalidateCompany(ctx, company)
}

func (r *AccountResolver) resolveBinding(ctx context.Context, company string, role models.TaxRole) (string, bool) {
	binding, err := r.bindings.GetBinding(ctx, company, role)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			r.logger.WithError(err).WithFields(logrus.Fields{"company": company, "role": role}).Warn("failed to read account binding")
		}
		return "", false
	}
	if binding.Account == "" {
		return "", false
	}
	return binding.Account, true
}

func (r *AccountResolver) search(ctx context.Context, company string, lookup accountLookup) (string, bool) {
	candidates, err := r.accounts.ListAccounts(ctx, company, lookup.accountTypes)
	if err != nil {
		r.logger.WithError(err).WithField("company", company).Warn("failed to list accounts")
		return "", false
	}

	for _, pattern := range lookup.patterns {
		for _, account := range candidates {
			if account.IsGroup {
				continue
			}
			if pattern.matches(account) {
				return account.Name, true
			}
		}
	}
	return "", false
}
