package service

import (
	"context"
	"fmt"
	"pajak-web/internal/metrics"
	"pajak-web/internal/models"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Taxable is a source transaction carrying tax lines.
type Taxable interface {
	Ref() models.DocumentRef
	OwnerCompany() string
	NetBase() decimal.Decimal
	TaxLines() []models.TaxLine
}

const (
	matchedByAccount     = "account"
	matchedByDescription = "description"
)

// descriptionPhrases identify a role from a tax line's free text when its
// account is not the resolved one.
var descriptionPhrases = map[models.TaxRole][]string{
	models.TaxRolePPNOut: {"ppn keluaran", "ppn output"},
	models.TaxRolePPNIn:  {"ppn masukan", "ppn input"},
	models.TaxRolePPh21:  {"pph 21", "pph21"},
	models.TaxRolePPh23:  {"pph 23", "pph23", "withholding"},
	models.TaxRolePPh26:  {"pph 26", "pph26"},
}

// DataQualityIssue flags source data the extractor could not interpret
// unambiguously.
type DataQualityIssue struct {
	Role    models.TaxRole `json:"role"`
	Message string         `json:"message"`
}

// Extraction holds at most one fact per role.
type Extraction struct {
	Facts  map[models.TaxRole]models.TaxLineFact
	Issues []DataQualityIssue
}

func (e Extraction) Fact(role models.TaxRole) (models.TaxLineFact, bool) {
	fact, ok := e.Facts[role]
	return fact, ok
}

func (e Extraction) Empty() bool {
	return len(e.Facts) == 0
}

// TaxExtractor recognizes tax lines of a transaction by role.
type TaxExtractor struct {
	resolver *AccountResolver
	logger   *logrus.Logger
}

func NewTaxExtractor(resolver *AccountResolver, logger *logrus.Logger) *TaxExtractor {
	return &TaxExtractor{resolver: resolver, logger: logger}
}

// Extract maps tax lines to the requested roles. A line qualifies only with
// the sign its role expects: PPN lines positive, withholding lines negative.
// Lines are matched by resolved account first, then by description. The rate
// is the effective rate abs(tax) * 100 / base over the transaction's net
// base, not the nominal statutory rate. When two lines map to the same role
// the later one is kept and a data-quality issue is raised.
func (e *TaxExtractor) Extract(ctx context.Context, txn Taxable, roles ...models.TaxRole) Extraction {
	result := Extraction{Facts: make(map[models.TaxRole]models.TaxLineFact)}
	ref := txn.Ref()

	accounts := make(map[models.TaxRole]string, len(roles))
	for _, role := range roles {
		if account, ok := e.resolver.Resolve(ctx, txn.OwnerCompany(), role); ok {
			accounts[role] = account
		}
	}

	base := txn.NetBase()
	for _, line := range txn.TaxLines() {
		role, matchedBy, ok := matchLine(line, roles, accounts)
		if !ok {
			continue
		}

		if previous, dup := result.Facts[role]; dup {
			issue := DataQualityIssue{
				Role: role,
				Message: fmt.Sprintf("multiple %s tax lines on %s: %q replaced by %q",
					role, ref, previous.Account, line.AccountHead),
			}
			result.Issues = append(result.Issues, issue)
			metrics.DataQualityIssues.Inc()
			e.logger.WithFields(logrus.Fields{
				"doctype": ref.DocType,
				"docname": ref.Name,
				"role":    role,
			}).Warn(issue.Message)
		}

		taxAmount := line.TaxAmount.Abs()
		rate := decimal.Zero
		if !base.IsZero() {
			rate = taxAmount.Mul(hundredPercent).Div(base).Abs()
		}

		result.Facts[role] = models.TaxLineFact{
			SourceType:  ref.DocType,
			SourceID:    ref.Name,
			Role:        role,
			Account:     line.AccountHead,
			Description: line.Description,
			BaseAmount:  base,
			Rate:        rate,
			TaxAmount:   taxAmount,
			MatchedBy:   matchedBy,
		}
	}

	return result
}

var hundredPercent = decimal.NewFromInt(100)

func signQualifies(role models.TaxRole, amount decimal.Decimal) bool {
	if role.IsWithholding() {
		return amount.IsNegative()
	}
	return amount.IsPositive()
}

func matchLine(line models.TaxLine, roles []models.TaxRole, accounts map[models.TaxRole]string) (models.TaxRole, string, bool) {
	for _, role := range roles {
		if account, ok := accounts[role]; ok && account == line.AccountHead && signQualifies(role, line.TaxAmount) {
			return role, matchedByAccount, true
		}
	}

	description := strings.ToLower(line.Description)
	if description == "" {
		return "", "", false
	}
	for _, role := range roles {
		if !signQualifies(role, line.TaxAmount) {
			continue
		}
		for _, phrase := range descriptionPhrases[role] {
			if strings.Contains(description, phrase) {
				return role, matchedByDescription, true
			}
		}
	}
	return "", "", false
}
