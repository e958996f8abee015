package service

import (
	"context"
	"fmt"
	"pajak-web/internal/models"

	"github.com/sirupsen/logrus"
)

// GLTagger marks ledger postings on the VAT accounts so the PPN period
// handler can total them without rescanning invoices.
type GLTagger struct {
	entries  GLStore
	resolver *AccountResolver
	logger   *logrus.Logger
}

func NewGLTagger(entries GLStore, resolver *AccountResolver, logger *logrus.Logger) *GLTagger {
	return &GLTagger{entries: entries, resolver: resolver, logger: logger}
}

// Tag returns the role the posting was tagged with, if any. Output VAT is
// tagged on credits, input VAT on debits.
func (t *GLTagger) Tag(ctx context.Context, entry *models.GLEntry) (models.TaxRole, bool, error) {
	if entry.IsCancelled || entry.TaxType != nil {
		return "", false, nil
	}

	var role models.TaxRole
	if out, ok := t.resolver.Resolve(ctx, entry.Company, models.TaxRolePPNOut); ok && entry.Account == out && entry.Credit.IsPositive() {
		role = models.TaxRolePPNOut
	} else if in, ok := t.resolver.Resolve(ctx, entry.Company, models.TaxRolePPNIn); ok && entry.Account == in && entry.Debit.IsPositive() {
		role = models.TaxRolePPNIn
	} else {
		return "", false, nil
	}

	if err := t.entries.TagGLEntry(ctx, entry.ID, role, entry.VoucherType, entry.VoucherNo); err != nil {
		return "", false, fmt.Errorf("failed to tag gl entry %d: %w", entry.ID, err)
	}
	entry.TaxType = stringPtr(string(role))
	entry.TaxSourceType = stringPtr(entry.VoucherType)
	entry.TaxSource = stringPtr(entry.VoucherNo)

	t.logger.WithFields(logrus.Fields{"gl_entry": entry.ID, "role": role, "voucher": entry.VoucherNo}).Debug("gl entry tagged")
	return role, true, nil
}
