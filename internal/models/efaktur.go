package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EfakturDocument is the output-VAT invoice (faktur pajak) synthesized from a
// submitted sales invoice.
type EfakturDocument struct {
	Name               string          `db:"name" json:"name"`
	Company            string          `db:"company" json:"company"`
	NomorFaktur        string          `db:"nomor_faktur" json:"nomor_faktur"`
	KodeJenisTransaksi string          `db:"kode_jenis_transaksi" json:"kode_jenis_transaksi"`
	FgPengganti        string          `db:"fg_pengganti" json:"fg_pengganti"`
	FgUangMuka         string          `db:"fg_uang_muka" json:"fg_uang_muka"`
	MasaPajak          string          `db:"masa_pajak" json:"masa_pajak"`
	TahunPajak         string          `db:"tahun_pajak" json:"tahun_pajak"`
	TanggalFaktur      time.Time       `db:"tanggal_faktur" json:"tanggal_faktur"`
	NPWP               string          `db:"npwp" json:"npwp"`
	Nama               string          `db:"nama" json:"nama"`
	Alamat             string          `db:"alamat" json:"alamat"`
	ReferenceDoctype   string          `db:"reference_doctype" json:"reference_doctype"`
	ReferenceName      string          `db:"reference_name" json:"reference_name"`
	JumlahDPP          decimal.Decimal `db:"jumlah_dpp" json:"jumlah_dpp"`
	JumlahPPN          decimal.Decimal `db:"jumlah_ppn" json:"jumlah_ppn"`
	JumlahPPnBM        decimal.Decimal `db:"jumlah_ppnbm" json:"jumlah_ppnbm"`
	Status             string          `db:"status" json:"status"`
	FilingReference    *string         `db:"filing_reference" json:"filing_reference"`
	FilingDate         *time.Time      `db:"filing_date" json:"filing_date"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
	Items              []EfakturItem   `db:"-" json:"items"`
}

type EfakturItem struct {
	ID           int             `db:"id" json:"id"`
	Parent       string          `db:"parent" json:"parent"`
	Idx          int             `db:"idx" json:"idx"`
	KodeBarang   string          `db:"kode_barang" json:"kode_barang"`
	NamaBarang   string          `db:"nama_barang" json:"nama_barang"`
	HargaSatuan  decimal.Decimal `db:"harga_satuan" json:"harga_satuan"`
	JumlahBarang decimal.Decimal `db:"jumlah_barang" json:"jumlah_barang"`
	HargaTotal   decimal.Decimal `db:"harga_total" json:"harga_total"`
	Diskon       decimal.Decimal `db:"diskon" json:"diskon"`
	DPP          decimal.Decimal `db:"dpp" json:"dpp"`
	PPN          decimal.Decimal `db:"ppn" json:"ppn"`
	TarifPPnBM   decimal.Decimal `db:"tarif_ppnbm" json:"tarif_ppnbm"`
	PPnBM        decimal.Decimal `db:"ppnbm" json:"ppnbm"`
	// Share of the source invoice's extracted base and tax.
	AllocatedDPP decimal.Decimal `db:"allocated_dpp" json:"allocated_dpp"`
	AllocatedPPN decimal.Decimal `db:"allocated_ppn" json:"allocated_ppn"`
}

var hundred = decimal.NewFromInt(100)

// CalculateTotals recomputes every item and the document totals from unit
// price, quantity, discount and luxury rate. PPN is always the statutory rate.
func (d *EfakturDocument) CalculateTotals() {
	d.JumlahDPP = decimal.Zero
	d.JumlahPPN = decimal.Zero
	d.JumlahPPnBM = decimal.Zero

	for i := range d.Items {
		item := &d.Items[i]
		item.HargaTotal = item.HargaSatuan.Mul(item.JumlahBarang)
		item.DPP = item.HargaTotal.Sub(item.Diskon)
		item.PPN = item.DPP.Mul(PPNRatePercent).Div(hundred)
		if item.TarifPPnBM.IsPositive() {
			item.PPnBM = item.DPP.Mul(item.TarifPPnBM).Div(hundred)
		} else {
			item.PPnBM = decimal.Zero
		}

		d.JumlahDPP = d.JumlahDPP.Add(item.DPP)
		d.JumlahPPN = d.JumlahPPN.Add(item.PPN)
		d.JumlahPPnBM = d.JumlahPPnBM.Add(item.PPnBM)
	}
}

// FakturSeries is the number range (NSFP) allotted to a company.
type FakturSeries struct {
	ID           int       `db:"id" json:"id"`
	Company      string    `db:"company" json:"company"`
	Prefix       string    `db:"prefix" json:"prefix"`
	CurrentStart int64     `db:"current_start" json:"current_start"`
	CurrentEnd   int64     `db:"current_end" json:"current_end"`
	NextNumber   int64     `db:"next_number" json:"next_number"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

var ErrFakturSeriesExhausted = errors.New("faktur number series exhausted")

// FormatNomorFaktur renders prefix.XXX.XXX.XX from an 8-digit counter.
func FormatNomorFaktur(prefix string, number int64) string {
	padded := fmt.Sprintf("%08d", number)
	return fmt.Sprintf("%s.%s.%s.%s", prefix, padded[0:3], padded[3:6], padded[6:8])
}

// Take returns the next faktur number and advances the series.
func (s *FakturSeries) Take() (string, error) {
	if s.NextNumber > s.CurrentEnd {
		return "", ErrFakturSeriesExhausted
	}
	nomor := FormatNomorFaktur(s.Prefix, s.NextNumber)
	s.NextNumber++
	return nomor, nil
}
