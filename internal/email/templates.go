package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
	AgencyName string
}

type quoteEmailData struct {
	baseEmailData
	CustomerName string
	QuoteID      string
	Destination  string
	CheckIn      string
	CheckOut     string
	Nights       int
	Options      []quoteEmailOption
	Currency     string
	FromPrice    int64
}

type quoteEmailOption struct {
	HotelName string
	RoomType  string
	MealPlan  string
	Total     int64
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
