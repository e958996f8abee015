package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"pajak-web/internal/models"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"

	exportDateLayout = "02-01-2006"
)

var (
	efakturExportHeaders = []string{
		"Kode Jenis Transaksi", "Nomor Faktur", "Masa Pajak", "Tahun Pajak",
		"Tanggal Faktur", "NPWP", "Nama", "Jumlah DPP", "Jumlah PPN", "Referensi",
	}
	ebupotExportHeaders = []string{
		"Jenis Pajak", "Masa Pajak", "Tahun Pajak", "NPWP Terpotong",
		"Nama Terpotong", "Penghasilan Bruto", "Tarif", "PPh Dipotong", "Referensi",
	}
)

// exportTable is a rendered export before it is written in a file format.
type exportTable struct {
	Sheet        string
	Headers      []string
	Rows         [][]string
	AmountColumn []int
}

// ExportFile is an export written under the export directory.
type ExportFile struct {
	Path     string
	Filename string
	Rows     int
}

// ExportService renders the statutory documents of a period for upload to
// the tax office applications.
type ExportService struct {
	efakturs  EfakturStore
	ebupots   EbupotStore
	excel     *ExcelService
	exportDir string
	logger    *logrus.Logger
}

func NewExportService(efakturs EfakturStore, ebupots EbupotStore, exportDir string, logger *logrus.Logger) *ExportService {
	return &ExportService{
		efakturs:  efakturs,
		ebupots:   ebupots,
		excel:     NewExcelService(),
		exportDir: exportDir,
		logger:    logger,
	}
}

// ExportEfaktur writes one row per non-cancelled E-Faktur of the period.
func (s *ExportService) ExportEfaktur(ctx context.Context, company string, period models.FiscalPeriod, format string) (*ExportFile, error) {
	docs, err := s.efakturs.ListEfakturByPeriod(ctx, company, period.Start(), period.End())
	if err != nil {
		return nil, fmt.Errorf("failed to list e-faktur: %w", err)
	}

	table := exportTable{Sheet: "E-Faktur", Headers: efakturExportHeaders, AmountColumn: []int{7, 8}}
	for _, doc := range docs {
		if doc.Status == models.DocStatusCancelled {
			continue
		}
		table.Rows = append(table.Rows, []string{
			doc.KodeJenisTransaksi,
			doc.NomorFaktur,
			doc.MasaPajak,
			doc.TahunPajak,
			doc.TanggalFaktur.Format(exportDateLayout),
			doc.NPWP,
			doc.Nama,
			doc.JumlahDPP.StringFixed(2),
			doc.JumlahPPN.StringFixed(2),
			doc.ReferenceName,
		})
	}

	base := fmt.Sprintf("efaktur_%s_%d%02d", fileSafe(company), period.Year, period.Month)
	return s.write(table, base, format)
}

// ExportEbupot writes one row per non-cancelled E-Bupot of the category and period.
func (s *ExportService) ExportEbupot(ctx context.Context, company string, category models.TaxCategory, period models.FiscalPeriod, format string) (*ExportFile, error) {
	if category != models.TaxCategoryPPh23 && category != models.TaxCategoryPPh26 {
		return nil, newValidationError("export ebupot", fmt.Errorf("unsupported e-bupot category %q", category))
	}

	docs, err := s.ebupots.ListEbupotByPeriod(ctx, company, string(category), period.Start(), period.End())
	if err != nil {
		return nil, fmt.Errorf("failed to list e-bupot: %w", err)
	}

	table := exportTable{Sheet: "E-Bupot", Headers: ebupotExportHeaders, AmountColumn: []int{5, 6, 7}}
	for _, doc := range docs {
		if doc.Status == models.DocStatusCancelled {
			continue
		}
		table.Rows = append(table.Rows, []string{
			doc.JenisPajak,
			doc.MasaPajak,
			doc.TahunPajak,
			doc.NPWPTerpotong,
			doc.NamaTerpotong,
			doc.PenghasilanBruto.StringFixed(2),
			doc.EffectiveRate().StringFixed(2),
			doc.PPhDipotong.StringFixed(2),
			doc.ReferenceName,
		})
	}

	base := fmt.Sprintf("ebupot_%s_%s_%d%02d", category.Code(), fileSafe(company), period.Year, period.Month)
	return s.write(table, base, format)
}

func (s *ExportService) write(table exportTable, base, format string) (*ExportFile, error) {
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	var filename string
	switch format {
	case "", ExportFormatCSV:
		filename = base + ".csv"
		data, err := renderCSV(table)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(s.exportDir, filename), data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write export: %w", err)
		}
	case ExportFormatXLSX:
		filename = base + ".xlsx"
		if err := s.excel.WriteTable(table, filepath.Join(s.exportDir, filename)); err != nil {
			return nil, fmt.Errorf("failed to write export: %w", err)
		}
	default:
		return nil, newValidationError("export", fmt.Errorf("unsupported export format %q", format))
	}

	s.logger.WithFields(logrus.Fields{"file": filename, "rows": len(table.Rows)}).Info("Export written")
	return &ExportFile{
		Path:     filepath.Join(s.exportDir, filename),
		Filename: filename,
		Rows:     len(table.Rows),
	}, nil
}

func renderCSV(table exportTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Headers); err != nil {
		return nil, err
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return nil, fmt.Errorf("failed to render csv: %w", err)
	}
	return buf.Bytes(), nil
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
