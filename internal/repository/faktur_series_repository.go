package repository

import (
	"context"
	"pajak-web/internal/models"

	"github.com/jmoiron/sqlx"
)

// FakturSeriesRepository hands out faktur numbers from efaktur_configs.
type FakturSeriesRepository struct {
	db *sqlx.DB
	tx *TransactionManager
}

func NewFakturSeriesRepository(db *sqlx.DB, tx *TransactionManager) *FakturSeriesRepository {
	return &FakturSeriesRepository{db: db, tx: tx}
}

// NextFakturNumber locks the company's active series row, takes its next
// number and stores the advanced counter.
func (r *FakturSeriesRepository) NextFakturNumber(ctx context.Context, company string) (string, error) {
	var nomor string
	err := r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		q := GetDB(txCtx, r.db)

		var series models.FakturSeries
		query := `
			SELECT id, company, prefix, current_start, current_end, next_number, is_active, updated_at
			FROM efaktur_configs
			WHERE company = ? AND is_active = 1
			ORDER BY id
			LIMIT 1
			FOR UPDATE`
		if err := sqlx.GetContext(txCtx, q, &series, query, company); err != nil {
			return notFound(err, "faktur series for "+company)
		}

		n, err := series.Take()
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(txCtx, "UPDATE efaktur_configs SET next_number = ? WHERE id = ?", series.NextNumber, series.ID); err != nil {
			return err
		}
		nomor = n
		return nil
	})
	if err != nil {
		return "", err
	}
	return nomor, nil
}
