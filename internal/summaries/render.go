package summaries

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
)

// Data is the content of a summary document.
type Data struct {
	ApplicationID string
	Name          string
	Email         string
	Phone         string
	Message       string
	JobTitle      string
	Company       string
	Status        string
	AppliedAt     time.Time
	ResumeFormat  string
	ResumePages   int
	ResumeExcerpt string
	GeneratedAt   time.Time
}

// Render lays out a one-page A4 summary.
func Render(d Data) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Application summary", true)
	doc.SetCreator("quickapply", true)
	doc.SetCreationDate(d.GeneratedAt)
	doc.SetMargins(18, 18, 18)
	doc.SetAutoPageBreak(true, 18)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.AddPage()
	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 10, tr("Application summary"), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.SetTextColor(90, 90, 90)
	doc.CellFormat(0, 6, tr(d.JobTitle+" at "+d.Company), "", 1, "L", false, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.Ln(4)

	rows := [][2]string{
		{"Applicant", d.Name},
		{"Email", d.Email},
		{"Phone", orDash(d.Phone)},
		{"Status", d.Status},
		{"Applied", d.AppliedAt.UTC().Format(time.RFC1123)},
		{"Reference", d.ApplicationID},
	}
	if d.ResumeFormat != "" {
		resume := d.ResumeFormat
		if d.ResumePages > 0 {
			resume += ", " + strconv.Itoa(d.ResumePages) + " page"
			if d.ResumePages != 1 {
				resume += "s"
			}
		}
		rows = append(rows, [2]string{"Resume", resume})
	}
	for _, row := range rows {
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(35, 7, tr(row[0]), "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 11)
		doc.CellFormat(0, 7, tr(row[1]), "", 1, "L", false, 0, "")
	}

	section(doc, tr, "Message", orDash(d.Message))
	if d.ResumeExcerpt != "" {
		section(doc, tr, "Resume excerpt", d.ResumeExcerpt)
	}

	doc.SetY(-25)
	doc.SetFont("Helvetica", "I", 8)
	doc.SetTextColor(120, 120, 120)
	doc.CellFormat(0, 5, tr("Generated "+d.GeneratedAt.UTC().Format(time.RFC3339)), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render summary pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(doc *fpdf.Fpdf, tr func(string) string, title, body string) {
	doc.Ln(5)
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
	doc.Ln(2)
	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 5, tr(body), "", "L", false)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
