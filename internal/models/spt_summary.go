package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SPTSummary is the period recap behind a monthly return: PPN sales and
// purchase totals, or the gross income and withheld tax of one PPh article.
// It can be a source document of a TaxFilingSummary, contributing NetTaxAmount.
type SPTSummary struct {
	Name                 string          `db:"name" json:"name"`
	Company              string          `db:"company" json:"company"`
	JenisSPT             TaxCategory     `db:"jenis_spt" json:"jenis_spt"`
	MasaPajak            int             `db:"masa_pajak" json:"masa_pajak"`
	TahunPajak           int             `db:"tahun_pajak" json:"tahun_pajak"`
	JumlahDPPPenjualan   decimal.Decimal `db:"jumlah_dpp_penjualan" json:"jumlah_dpp_penjualan"`
	JumlahPPNPenjualan   decimal.Decimal `db:"jumlah_ppn_penjualan" json:"jumlah_ppn_penjualan"`
	JumlahPPnBMPenjualan decimal.Decimal `db:"jumlah_ppnbm_penjualan" json:"jumlah_ppnbm_penjualan"`
	JumlahDPPPembelian   decimal.Decimal `db:"jumlah_dpp_pembelian" json:"jumlah_dpp_pembelian"`
	JumlahPPNPembelian   decimal.Decimal `db:"jumlah_ppn_pembelian" json:"jumlah_ppn_pembelian"`
	PenghasilanBruto     decimal.Decimal `db:"penghasilan_bruto" json:"penghasilan_bruto"`
	JumlahPPh            decimal.Decimal `db:"jumlah_pph" json:"jumlah_pph"`
	// PPN: sales minus purchase PPN. PPh: tax withheld.
	NetTaxAmount    decimal.Decimal `db:"net_tax_amount" json:"net_tax_amount"`
	DocumentCount   int             `db:"document_count" json:"document_count"`
	Status          string          `db:"status" json:"status"`
	NTPN            string          `db:"ntpn" json:"ntpn"`
	FilingReference *string         `db:"filing_reference" json:"filing_reference"`
	FilingDate      *time.Time      `db:"filing_date" json:"filing_date"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

func (s *SPTSummary) Period() FiscalPeriod {
	return FiscalPeriod{Year: s.TahunPajak, Month: s.MasaPajak}
}

func (s *SPTSummary) Ref() DocumentRef {
	return DocumentRef{DocType: DocTypeSPTSummary, Name: s.Name}
}

type SPTSummaryRequest struct {
	Company  string `json:"company"`
	JenisSPT string `json:"jenis_spt"`
	Year     int    `json:"tahun_pajak"`
	Month    int    `json:"masa_pajak"`
}

type SPTSummaryFilter struct {
	Company  string
	JenisSPT string
	Year     int
}
