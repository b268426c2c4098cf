package prescription

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// Renderer writes a printable prescription sheet.
type Renderer interface {
	Render(w io.Writer, d *PrintDetail) error
}

// PDFRenderer lays out an A4 prescription sheet.
type PDFRenderer struct {
	ClinicName string
}

func NewPDFRenderer(clinicName string) *PDFRenderer {
	if clinicName == "" {
		clinicName = "Clinic"
	}
	return &PDFRenderer{ClinicName: clinicName}
}

func (r *PDFRenderer) Render(w io.Writer, d *PrintDetail) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Prescription #%d", d.ID), true)
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(r.ClinicName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Prescription #%d", d.ID), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	detailRow(pdf, "Patient", tr(d.PatientName))
	if d.PatientBirthDate != nil {
		detailRow(pdf, "Date of birth", d.PatientBirthDate.Format("2006-01-02"))
	}
	if d.PatientPhone != "" {
		detailRow(pdf, "Phone", d.PatientPhone)
	}
	detailRow(pdf, "Appointment", fmt.Sprintf("#%d (%s)", d.AppointmentID, d.AppointmentStatus))
	if d.EncounterClass != "" {
		detailRow(pdf, "Encounter", tr(d.EncounterClass))
	}
	if d.ReasonText != "" {
		detailRow(pdf, "Reason", tr(d.ReasonText))
	}
	if d.PrescribingDoctor != nil {
		detailRow(pdf, "Prescribed by", tr(*d.PrescribingDoctor))
	}
	detailRow(pdf, "Date", d.CreatedAt.Format("2006-01-02"))
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(235, 235, 235)
	widths := []float64{70, 40, 35, 35}
	for i, h := range []string{"Medication", "Dosage", "Frequency", "Duration"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	if len(d.Medications) == 0 {
		pdf.CellFormat(0, 8, "No medications", "1", 1, "L", false, 0, "")
	}
	for _, m := range d.Medications {
		pdf.CellFormat(widths[0], 8, tr(m.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, tr(m.Dosage), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 8, tr(m.Frequency), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 8, tr(m.Duration), "1", 1, "L", false, 0, "")
	}

	if d.Notes != nil && *d.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 8, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(*d.Notes), "", "L", false)
	}

	return pdf.Output(w)
}

func detailRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}
