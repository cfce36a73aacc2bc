// README: One-page A4 PDF receipt for a booking.
package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"taxihub/internal/modules/booking"
)

// IST is used for every printed time; the business runs out of Visakhapatnam.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// Render returns the PDF bytes and a download filename.
func Render(b *booking.Booking, issuedAt time.Time) ([]byte, string, error) {
	if b == nil {
		return nil, "", fmt.Errorf("render receipt: nil booking")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt "+b.Number, false)
	pdf.SetAuthor("Vizag Taxi Hub", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "VIZAG TAXI HUB")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Booking receipt")
	pdf.Ln(10)

	rows := [][2]string{
		{"Receipt no", b.Number},
		{"Issued", issuedAt.In(IST).Format("02 Jan 2006 15:04")},
		{"Status", strings.ToUpper(string(b.Status))},
		{"Passenger", dash(b.PassengerName)},
		{"Phone", dash(b.PassengerPhone)},
		{"Trip", tripLine(b)},
		{"Vehicle", dash(b.VehicleID)},
		{"Pickup", dash(b.PickupLocation)},
		{"Drop", dash(b.DropLocation)},
		{"Pickup time", b.PickupAt.In(IST).Format("02 Jan 2006 15:04")},
	}
	if b.ReturnAt != nil {
		rows = append(rows, [2]string{"Return", b.ReturnAt.In(IST).Format("02 Jan 2006 15:04")})
	}
	if b.DistanceKm > 0 {
		rows = append(rows, [2]string{"Distance", fmt.Sprintf("%.0f km", b.DistanceKm)})
	}
	if b.PaymentRef != nil {
		rows = append(rows, [2]string{"Payment ref", *b.PaymentRef})
	}

	for _, r := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 7, r[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 7, r[1], "", "L", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Total: Rs %.2f", b.Fare.Rupees()), "T", 1, "R", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, fmt.Sprintf("Cancellation is free until %s. Tolls, parking and state permits are paid separately.",
		booking.CancellationDeadline(b.PickupAt).In(IST).Format("02 Jan 2006 15:04")), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("receipt-%s.pdf", b.Number), nil
}

func tripLine(b *booking.Booking) string {
	parts := []string{string(b.TripType)}
	if b.TripMode != "" {
		parts = append(parts, string(b.TripMode))
	}
	if b.PackageID != "" {
		parts = append(parts, b.PackageID)
	}
	return strings.Join(parts, " / ")
}

func dash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
