package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	JenisDaftarNormal = "0 - Normal"

	KodeObjekPajakPPh23 = "23-100-01"
	KodeObjekPajakPPh26 = "26-100-01"
)

// EbupotDocument is a withholding slip (bukti potong) for one PPh article,
// synthesized from a submitted purchase invoice.
type EbupotDocument struct {
	Name             string              `db:"name" json:"name"`
	Company          string              `db:"company" json:"company"`
	JenisPajak       string              `db:"jenis_pajak" json:"jenis_pajak"`
	JenisDaftar      string              `db:"jenis_daftar" json:"jenis_daftar"`
	MasaPajak        string              `db:"masa_pajak" json:"masa_pajak"`
	TahunPajak       string              `db:"tahun_pajak" json:"tahun_pajak"`
	TandatanganDate  time.Time           `db:"tandatangan_date" json:"tandatangan_date"`
	NPWPPemotong     string              `db:"npwp_pemotong" json:"npwp_pemotong"`
	NamaPemotong     string              `db:"nama_pemotong" json:"nama_pemotong"`
	AlamatPemotong   string              `db:"alamat_pemotong" json:"alamat_pemotong"`
	Supplier         string              `db:"supplier" json:"supplier"`
	NPWPTerpotong    string              `db:"npwp_terpotong" json:"npwp_terpotong"`
	NamaTerpotong    string              `db:"nama_terpotong" json:"nama_terpotong"`
	AlamatTerpotong  string              `db:"alamat_terpotong" json:"alamat_terpotong"`
	TIN              string              `db:"tin" json:"tin"`
	NegaraDomisili   string              `db:"negara_domisili" json:"negara_domisili"`
	KodeObjekPajak   string              `db:"kode_objek_pajak" json:"kode_objek_pajak"`
	PenghasilanBruto decimal.Decimal     `db:"penghasilan_bruto" json:"penghasilan_bruto"`
	Tarif            decimal.Decimal     `db:"tarif" json:"tarif"`
	TarifFasilitas   decimal.NullDecimal `db:"tarif_fasilitas" json:"tarif_fasilitas"`
	PPhDipotong      decimal.Decimal     `db:"pph_dipotong" json:"pph_dipotong"`
	ReferenceDoctype string              `db:"reference_doctype" json:"reference_doctype"`
	ReferenceName    string              `db:"reference_name" json:"reference_name"`
	Status           string              `db:"status" json:"status"`
	PaymentEntry     *string             `db:"payment_entry" json:"payment_entry"`
	PaymentDate      *time.Time          `db:"payment_date" json:"payment_date"`
	FilingReference  *string             `db:"filing_reference" json:"filing_reference"`
	FilingDate       *time.Time          `db:"filing_date" json:"filing_date"`
	CreatedAt        time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time           `db:"updated_at" json:"updated_at"`
	Items            []EbupotItem        `db:"-" json:"items"`
}

type EbupotItem struct {
	ID               int             `db:"id" json:"id"`
	Parent           string          `db:"parent" json:"parent"`
	Idx              int             `db:"idx" json:"idx"`
	KodeObjekPajak   string          `db:"kode_objek_pajak" json:"kode_objek_pajak"`
	JenisPenghasilan string          `db:"jenis_penghasilan" json:"jenis_penghasilan"`
	DPP              decimal.Decimal `db:"dpp" json:"dpp"`
	Tarif            decimal.Decimal `db:"tarif" json:"tarif"`
	PPhDipotong      decimal.Decimal `db:"pph_dipotong" json:"pph_dipotong"`
}

// EffectiveRate is the facility rate when one is granted, else the nominal rate.
func (d *EbupotDocument) EffectiveRate() decimal.Decimal {
	if d.TarifFasilitas.Valid {
		return d.TarifFasilitas.Decimal
	}
	return d.Tarif
}

// CalculateTotals recomputes item withholding and the document totals.
// The document-level withholding is derived from gross income and the
// effective rate, not from the item sum; the two diverge when item rates
// differ.
func (d *EbupotDocument) CalculateTotals() {
	d.PenghasilanBruto = decimal.Zero
	for i := range d.Items {
		item := &d.Items[i]
		item.PPhDipotong = item.DPP.Mul(item.Tarif).Div(hundred)
		d.PenghasilanBruto = d.PenghasilanBruto.Add(item.DPP)
	}
	d.PPhDipotong = d.PenghasilanBruto.Mul(d.EffectiveRate()).Div(hundred)
}

// EbupotFilter selects withholding slips when matching payment deductions.
type EbupotFilter struct {
	Company        string
	JenisPajak     string
	ReferenceNames []string
	Supplier       string
	From           time.Time
	To             time.Time
	Unlinked       bool
}
