package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// ReportService renders printable PDFs for vehicles and the inventory list.
type ReportService struct {
	inventory InventoryStore
	reviews   ReviewStore
}

func NewReportService(inventory InventoryStore, reviews ReviewStore) *ReportService {
	return &ReportService{inventory: inventory, reviews: reviews}
}

// VehicleSpecSheet renders a one-page spec sheet with the rating summary.
func (s *ReportService) VehicleSpecSheet(ctx context.Context, invID int) ([]byte, error) {
	v, err := s.inventory.GetByID(ctx, invID)
	if err != nil {
		return nil, storeErr(err)
	}
	summary, err := s.reviews.Summary(ctx, invID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "CSE Motors - Vehicle Spec Sheet", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Format(timeutil.Now(), timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(190, 10, yearTitle(v), "1", 1, "L", true, 0, "")

	rows := [][2]string{
		{"Classification", v.ClassificationName},
		{"Price", fmt.Sprintf("$%s", models.FormatPrice(v.Price))},
		{"Mileage", optionalInt(v.Miles, " miles")},
		{"Color", v.Color},
		{"Body", v.Body},
		{"Transmission", v.Transmission},
		{"Rating", ratingText(summary)},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(50, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(140, 8, row[1], "1", 1, "L", false, 0, "")
	}

	if v.Description != "" {
		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 8, "Description", "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(190, 6, v.Description, "1", "L", false)
	}

	return output(pdf)
}

// InventoryReport renders the full stock list for the back office.
func (s *ReportService) InventoryReport(ctx context.Context) ([]byte, error) {
	vehicles, err := s.inventory.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, "CSE Motors - Inventory", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, fmt.Sprintf("Generated: %s  |  %d vehicles", timeutil.Format(timeutil.Now(), timeutil.DisplayLayout), len(vehicles)), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	headers := []struct {
		title string
		width float64
	}{{"ID", 15}, {"Classification", 40}, {"Vehicle", 90}, {"Year", 20}, {"Miles", 30}, {"Color", 42}, {"Price", 40}}
	for i, h := range headers {
		ln := 0
		if i == len(headers)-1 {
			ln = 1
		}
		pdf.CellFormat(h.width, 7, h.title, "1", ln, "C", true, 0, "")
	}

	pdf.SetFont("Arial", "", 10)
	for _, v := range vehicles {
		title := v.Title()
		if len(title) > 45 {
			title = title[:42] + "..."
		}
		pdf.CellFormat(15, 6, strconv.Itoa(v.ID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, v.ClassificationName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(90, 6, title, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, optionalInt(v.Year, ""), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, optionalInt(v.Miles, ""), "1", 0, "R", false, 0, "")
		pdf.CellFormat(42, 6, v.Color, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, "$"+models.FormatPrice(v.Price), "1", 1, "R", false, 0, "")
	}

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yearTitle(v *models.Vehicle) string {
	if v.Year != nil {
		return fmt.Sprintf("%d %s", *v.Year, v.Title())
	}
	return v.Title()
}

func optionalInt(n *int, suffix string) string {
	if n == nil {
		return "-"
	}
	return models.GroupThousands(*n) + suffix
}

func ratingText(s models.RatingSummary) string {
	if s.Count == 0 {
		return "No reviews yet"
	}
	return fmt.Sprintf("%.2f / 5 from %d review(s)", s.Average, s.Count)
}
