package exports

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"
	_ "time/tzdata"

	"agency_backend/internal/quotes/transport"
	"agency_backend/platform/httpkit"
	"agency_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	defaultTimezone = "Europe/Paris"
	timeLayout      = "2006-01-02 15:04"
	pageSize        = 100
)

// QuoteLister pages through quotes the way the admin list does.
type QuoteLister interface {
	List(ctx context.Context, req transport.ListQuotesRequest) (transport.QuoteListResponse, error)
}

// Handler serves accounting exports.
type Handler struct {
	quotes QuoteLister
	val    *validator.Validator
}

// NewHandler creates a new export handler.
func NewHandler(quotes QuoteLister, val *validator.Validator) *Handler {
	return &Handler{quotes: quotes, val: val}
}

type exportQuery struct {
	Status   string `form:"status" validate:"omitempty,max=32"`
	Timezone string `form:"timezone" validate:"omitempty,max=64"`
}

// ExportQuotesCSV streams every quote matching the status filter, oldest
// first. The first page is loaded before any byte is written so that a bad
// filter still gets a JSON error.
func (h *Handler) ExportQuotesCSV(c *gin.Context) {
	var q exportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.InvalidRequest(c)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.ValidationFailed(c, err)
		return
	}

	location, tzName, ok := parseTimezone(q.Timezone)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, "invalid timezone", nil)
		return
	}

	req := transport.ListQuotesRequest{Status: q.Status, SortBy: "createdAt", SortOrder: "asc", Page: 1, PageSize: pageSize}
	page, err := h.quotes.List(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	writer, ok := startCsvResponse(c, tzName)
	if !ok {
		return
	}
	for {
		for _, item := range page.Items {
			if err := writer.Write(quoteRow(item, location)); err != nil {
				return
			}
		}
		if req.Page >= page.TotalPages {
			break
		}
		req.Page++
		if page, err = h.quotes.List(c.Request.Context(), req); err != nil {
			// Headers are gone; the truncated file is all we can do.
			_ = c.Error(err)
			break
		}
	}
	writer.Flush()
}

// ---- Helpers ----

func csvHeaders() []string {
	return []string{
		"Numero",
		"Statut",
		"Paiement",
		"Client",
		"Email",
		"Offre",
		"Total TTC",
		"Cree le",
		"Valide jusqu'au",
	}
}

func quoteRow(q transport.QuoteSummary, location *time.Location) []string {
	return []string{
		q.ID,
		string(q.Status),
		string(q.PaymentStatus),
		q.ClientName,
		q.ClientEmail,
		q.OfferType,
		q.TotalTTC.StringFixed(2),
		q.CreatedAt.In(location).Format(timeLayout),
		q.ValidityDeadline.In(location).Format(timeLayout),
	}
}

func parseTimezone(raw string) (*time.Location, string, bool) {
	tzName := strings.TrimSpace(raw)
	if tzName == "" {
		tzName = defaultTimezone
	}
	location, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, "", false
	}
	return location, tzName, true
}

func startCsvResponse(c *gin.Context, tzName string) (*csv.Writer, bool) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=devis-%s.csv", time.Now().Format("20060102")))
	c.Header("Cache-Control", "no-store")

	writer := csv.NewWriter(c.Writer)
	if err := writer.Write([]string{fmt.Sprintf("Parameters:TimeZone=%s", tzName)}); err != nil {
		return nil, false
	}
	if err := writer.Write(csvHeaders()); err != nil {
		return nil, false
	}
	return writer, true
}
