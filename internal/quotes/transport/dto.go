package transport

import (
	"time"

	"github.com/google/uuid"
)

// QuoteStatus defines the lifecycle status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft          QuoteStatus = "draft"
	QuoteStatusGenerated      QuoteStatus = "generated"
	QuoteStatusSent           QuoteStatus = "sent"
	QuoteStatusNoAvailability QuoteStatus = "no_availability"
	QuoteStatusPricingError   QuoteStatus = "pricing_error"
	QuoteStatusError          QuoteStatus = "error"
	QuoteStatusViewed         QuoteStatus = "viewed"
	QuoteStatusAccepted       QuoteStatus = "accepted"
)

// =============================================================================
// Requests
// =============================================================================

// GenerateQuoteRequest is the request body for generating a new quote.
// Dates, traveler counts and meal plan are all optional; missing values are
// normalized to tenant defaults before matching.
type GenerateQuoteRequest struct {
	CustomerName  string   `json:"customerName" validate:"required,min=1,max=255"`
	CustomerEmail string   `json:"customerEmail" validate:"required,email"`
	CustomerPhone string   `json:"customerPhone" validate:"omitempty,max=32"`
	Destination   string   `json:"destination" validate:"required,min=1,max=255"`
	CheckIn       *string  `json:"checkIn" validate:"omitempty,datetime=2006-01-02"`
	CheckOut      *string  `json:"checkOut" validate:"omitempty,datetime=2006-01-02"`
	Nights        int      `json:"nights" validate:"omitempty,min=1,max=60"`
	Adults        int      `json:"adults" validate:"omitempty,min=1,max=20"`
	SingleAdults  int      `json:"singleAdults" validate:"omitempty,min=0,max=20"`
	ChildAges     []int    `json:"childAges" validate:"omitempty,max=10,dive,min=0,max=11"`
	HotelNames    []string `json:"hotelNames" validate:"omitempty,max=10,dive,min=1,max=255"`

	BudgetPerPerson    *int64 `json:"budgetPerPerson" validate:"omitempty,min=1"`
	MealPlanPreference string `json:"mealPlanPreference" validate:"omitempty,max=64"`

	// AsDraft holds the quote back for consultant review instead of
	// emailing it to the customer immediately.
	AsDraft          bool `json:"asDraft"`
	AssignConsultant bool `json:"assignConsultant"`
}

// ListQuotesRequest defines the query parameters for listing quotes
type ListQuotesRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=draft generated sent no_availability pricing_error error viewed accepted"`
	Search   string `form:"search"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// =============================================================================
// Responses
// =============================================================================

// PricedCategory is a single traveler-category line in a pricing breakdown.
type PricedCategory struct {
	Count    int   `json:"count"`
	Rate     int64 `json:"rate"`
	Subtotal int64 `json:"subtotal"`
}

// HotelOptionResponse is one priced hotel option on a quote.
type HotelOptionResponse struct {
	RateID        string         `json:"rateId"`
	HotelName     string         `json:"hotelName"`
	StarRating    int            `json:"starRating"`
	RoomType      string         `json:"roomType"`
	MealPlan      string         `json:"mealPlan"`
	SharingAdults PricedCategory `json:"sharingAdults"`
	SingleAdults  PricedCategory `json:"singleAdults"`
	Children      PricedCategory `json:"children"`
	Infants       PricedCategory `json:"infants"`
	TotalPrice    int64          `json:"totalPrice"`
}

// QuoteResponse is the full response shape for a quote
type QuoteResponse struct {
	ID            uuid.UUID             `json:"id"`
	QuoteID       string                `json:"quoteId"`
	TenantID      string                `json:"tenantId"`
	CustomerName  string                `json:"customerName"`
	CustomerEmail string                `json:"customerEmail"`
	CustomerPhone *string               `json:"customerPhone,omitempty"`
	Destination   string                `json:"destination"`
	CheckIn       string                `json:"checkIn"`
	CheckOut      string                `json:"checkOut"`
	Nights        int                   `json:"nights"`
	Adults        int                   `json:"adults"`
	Children      int                   `json:"children"`
	ChildAges     []int                 `json:"childAges"`
	Hotels        []HotelOptionResponse `json:"hotels"`
	TotalPrice    int64                 `json:"totalPrice"`
	Status        QuoteStatus           `json:"status"`
	EmailSent     bool                  `json:"emailSent"`
	PDFGenerated  bool                  `json:"pdfGenerated"`
	PDFFileKey    *string               `json:"pdfFileKey,omitempty"`
	ConsultantID  *uuid.UUID            `json:"consultantId,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
	SentAt        *time.Time            `json:"sentAt,omitempty"`
	ViewedAt      *time.Time            `json:"viewedAt,omitempty"`
	AcceptedAt    *time.Time            `json:"acceptedAt,omitempty"`
}

// GenerateQuoteResponse is the structured result of a generation run.
// Success reports whether the engine produced a usable outcome, which
// includes the no_availability path; Error carries the failure reason for
// pricing_error and error statuses.
type GenerateQuoteResponse struct {
	Success bool           `json:"success"`
	Status  QuoteStatus    `json:"status"`
	Error   string         `json:"error,omitempty"`
	Quote   *QuoteResponse `json:"quote,omitempty"`
}

// DeliveryResponse is the result of a resend or draft-send operation.
type DeliveryResponse struct {
	Success bool        `json:"success"`
	Status  QuoteStatus `json:"status"`
	Error   string      `json:"error,omitempty"`
}

// QuoteListResponse is the paginated list response
type QuoteListResponse struct {
	Items      []QuoteResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// PresignedDownloadResponse is the presigned URL for downloading a quote PDF.
type PresignedDownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
	ExpiresAt   int64  `json:"expiresAt"`
}
