package pdf

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"travelquote_backend/internal/quotes/repository"
	"travelquote_backend/internal/tenant"
)

//go:embed templates/*.html
var templateFS embed.FS

// DocumentStore persists a rendered PDF and returns its file key.
type DocumentStore interface {
	StoreQuotePDF(ctx context.Context, tenantID, quoteID string, pdf []byte) (string, error)
}

// Converter turns an HTML document into PDF bytes.
type Converter interface {
	ConvertHTML(ctx context.Context, indexHTML []byte, opts ConvertOpts) ([]byte, error)
}

// Renderer builds the quote HTML document, converts it through Gotenberg,
// and stores the result. It implements the orchestrator's PDFRenderer port.
type Renderer struct {
	converter Converter
	store     DocumentStore
	tmpl      *template.Template
}

// NewRenderer creates a quote PDF renderer.
func NewRenderer(converter Converter, store DocumentStore) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"addOne": func(i int) int { return i + 1 },
		"stars":  func(n int) string { return strings.Repeat("★", n) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse quote templates: %w", err)
	}
	return &Renderer{converter: converter, store: store, tmpl: tmpl}, nil
}

type optionView struct {
	HotelName  string
	StarRating int
	RoomType   string
	MealPlan   string
	Lines      []lineView
	Total      int64
}

type lineView struct {
	Label    string
	Count    int
	Rate     int64
	Subtotal int64
}

type documentView struct {
	TenantName   string
	Currency     string
	QuoteID      string
	CustomerName string
	Destination  string
	CheckIn      string
	CheckOut     string
	Nights       int
	Adults       int
	Children     int
	Options      []optionView
	TotalPrice   int64
	CreatedAt    string
}

// RenderQuote renders, converts and stores the quote document, returning
// the stored file key.
func (r *Renderer) RenderQuote(ctx context.Context, tn *tenant.Tenant, q *repository.Quote) (string, error) {
	html, err := r.buildHTML(tn, q)
	if err != nil {
		return "", err
	}

	pdf, err := r.converter.ConvertHTML(ctx, html, QuoteDocumentOpts())
	if err != nil {
		return "", fmt.Errorf("convert quote document: %w", err)
	}

	key, err := r.store.StoreQuotePDF(ctx, tn.ID, q.QuoteID, pdf)
	if err != nil {
		return "", fmt.Errorf("store quote document: %w", err)
	}
	return key, nil
}

func (r *Renderer) buildHTML(tn *tenant.Tenant, q *repository.Quote) ([]byte, error) {
	view := documentView{
		TenantName:   tn.Name,
		Currency:     tn.Currency,
		QuoteID:      q.QuoteID,
		CustomerName: q.CustomerName,
		Destination:  q.Destination,
		CheckIn:      q.CheckIn.Format("02 Jan 2006"),
		CheckOut:     q.CheckOut.Format("02 Jan 2006"),
		Nights:       q.Nights,
		Adults:       q.Adults,
		Children:     q.Children,
		TotalPrice:   q.TotalPrice,
		CreatedAt:    q.CreatedAt.Format("02 Jan 2006"),
	}

	for _, h := range q.Hotels {
		opt := optionView{
			HotelName:  h.HotelName,
			StarRating: h.StarRating,
			RoomType:   h.RoomType,
			MealPlan:   h.MealPlan,
			Total:      h.TotalPrice,
		}
		for _, l := range []struct {
			label string
			cat   repository.PricedCategory
		}{
			{"Adults sharing", h.SharingAdults},
			{"Adults single", h.SingleAdults},
			{"Children", h.Children},
			{"Infants", h.Infants},
		} {
			if l.cat.Count == 0 {
				continue
			}
			opt.Lines = append(opt.Lines, lineView{
				Label:    l.label,
				Count:    l.cat.Count,
				Rate:     l.cat.Rate,
				Subtotal: l.cat.Subtotal,
			})
		}
		view.Options = append(view.Options, opt)
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "quote.html", view); err != nil {
		return nil, fmt.Errorf("execute quote template: %w", err)
	}
	return buf.Bytes(), nil
}
