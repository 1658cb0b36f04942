package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sp3dr4/shortlink/internal/application"
	"github.com/sp3dr4/shortlink/internal/domain"
	"github.com/sp3dr4/shortlink/internal/pkg/logging"
	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
)

// localTimeLayout renders timestamps as DD-MM-YYYY HH:MM.
const localTimeLayout = "02-01-2006 15:04"

type Handlers struct {
	service  *application.LinkService
	baseURL  string
	repo     domain.LinkRepository
	metrics  metrics.Registry
	location *time.Location
}

func NewHandlers(service *application.LinkService, baseURL string, repo domain.LinkRepository, metricsRegistry metrics.Registry, location *time.Location) *Handlers {
	if metricsRegistry == nil {
		metricsRegistry = metrics.NewNoOpRegistry()
	}
	if location == nil {
		location = time.UTC
	}
	return &Handlers{
		service:  service,
		baseURL:  strings.TrimRight(baseURL, "/"),
		repo:     repo,
		metrics:  metricsRegistry,
		location: location,
	}
}

// ShortenRequest is the body of POST /api/shorten. code must be a string or
// null. expiry_hours may be a number or a numeric string; any other value
// means no expiry.
type ShortenRequest struct {
	URL         string          `json:"url" example:"example.com"`
	Code        json.RawMessage `json:"code,omitempty" swaggertype:"string" example:"promo1"`
	ExpiryHours json.RawMessage `json:"expiry_hours,omitempty" swaggertype:"number" example:"24"`
}

// ShortenResponse describes a newly created short link.
type ShortenResponse struct {
	Code      string     `json:"code" example:"aZ3kP9q"`
	ShortURL  string     `json:"short_url" example:"http://localhost:8080/aZ3kP9q"`
	ExpiresAt *time.Time `json:"expires_at" example:"2025-01-31T12:00:00Z"`
}

// LinkResponse is the stats view of a link.
type LinkResponse struct {
	ID             int64      `json:"id"`
	Code           string     `json:"code"`
	ShortURL       string     `json:"short_url"`
	OriginalURL    string     `json:"original_url"`
	Clicks         int64      `json:"clicks"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at"`
	Expired        bool       `json:"expired"`
	CreatedAtLocal string     `json:"created_at_local" example:"31-01-2025 17:30"`
	ExpiresAtLocal string     `json:"expires_at_local,omitempty"`
}

// LinkListResponse wraps a list of links.
type LinkListResponse struct {
	Links []LinkResponse `json:"links"`
	Count int            `json:"count"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     map[string]string `json:"error"`
	Timestamp string            `json:"timestamp" example:"2024-01-31T12:00:00Z"`
}

// HandleHealth handles the health check endpoint.
//
//	@Summary		Health check endpoint
//	@Description	Check if the service is running
//	@Tags			health
//	@Produce		plain
//	@Success		200	{string}	string	"OK"
//	@Router			/health [get]
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// HandleReady handles the readiness check endpoint.
//
//	@Summary		Readiness check endpoint
//	@Description	Check if the service is ready to serve requests (includes link store connectivity)
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	object{status=string,timestamp=string}	"Service is ready"
//	@Failure		503	{object}	ErrorResponse							"Service is not ready"
//	@Router			/ready [get]
func (h *Handlers) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.HealthCheck(ctx); err != nil {
		logging.FromContext(ctx).Error("Readiness check failed", "error", err)
		respondWithError(w, http.StatusServiceUnavailable, "unavailable", "Service not ready: link store unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":    "ready",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HandleShortenUsage describes how to call the shorten endpoint.
//
//	@Summary	Shorten endpoint usage
//	@Tags		links
//	@Produce	json
//	@Success	200	{object}	object{message=string}
//	@Router		/api/shorten [get]
func (h *Handlers) HandleShortenUsage(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "POST a JSON body to /api/shorten with url, optional code, expiry_hours",
	})
}

// HandleShorten handles the link creation endpoint.
//
//	@Summary		Create a short link
//	@Description	Shorten a URL, optionally with a custom code and an expiry in hours
//	@Tags			links
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ShortenRequest	true	"URL to shorten"
//	@Success		201		{object}	ShortenResponse	"Short link created"
//	@Failure		400		{object}	ErrorResponse	"Invalid URL or custom code"
//	@Failure		409		{object}	ErrorResponse	"Code already exists"
//	@Failure		503		{object}	ErrorResponse	"No free code could be allocated"
//	@Router			/api/shorten [post]
func (h *Handlers) HandleShorten(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("Failed to decode request", "error", err)
		respondWithError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	code, err := ParseCode(req.Code)
	if err != nil {
		h.respondWithDomainError(ctx, w, err)
		return
	}

	link, err := h.service.CreateLink(ctx, application.CreateLinkRequest{
		URL:         req.URL,
		Code:        code,
		ExpiryHours: ParseExpiryHours(req.ExpiryHours),
	})
	if err != nil {
		h.respondWithDomainError(ctx, w, err)
		return
	}

	h.metrics.IncLinksCreated(code != "")
	respondWithJSON(w, http.StatusCreated, ShortenResponse{
		Code:      link.Code,
		ShortURL:  h.shortURL(link.Code),
		ExpiresAt: link.ExpiresAt,
	})
}

// HandleRedirect handles the redirect endpoint.
//
//	@Summary		Follow a short link
//	@Description	Redirect to the original URL and count the click
//	@Tags			links
//	@Param			code	path	string	true	"Short code"
//	@Success		302		"Redirect to original URL"
//	@Failure		404		{object}	ErrorResponse	"Short link not found"
//	@Failure		410		{object}	ErrorResponse	"Short link has expired"
//	@Router			/{code} [get]
func (h *Handlers) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	ctx := logging.WithCode(r.Context(), code)

	target, err := h.service.ResolveLink(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLinkNotFound):
			h.metrics.IncLinkLookupFailures(metrics.ReasonNotFound)
		case errors.Is(err, domain.ErrLinkExpired):
			h.metrics.IncLinkLookupFailures(metrics.ReasonExpired)
		}
		h.respondWithDomainError(ctx, w, err)
		return
	}

	h.metrics.IncLinksResolved()
	http.Redirect(w, r, target, http.StatusFound)
}

// HandleLinkStats returns a single link with its click count.
//
//	@Summary		Link statistics
//	@Description	Show a link, expired or not, with its click count
//	@Tags			links
//	@Produce		json
//	@Param			code	path		string			true	"Short code"
//	@Success		200		{object}	LinkResponse
//	@Failure		404		{object}	ErrorResponse	"Short link not found"
//	@Router			/api/links/{code} [get]
func (h *Handlers) HandleLinkStats(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	ctx := logging.WithCode(r.Context(), code)

	link, err := h.service.GetLink(ctx, code)
	if err != nil {
		h.respondWithDomainError(ctx, w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.toLinkResponse(link, h.service.Now()))
}

// HandleListLinks lists the most recently created links.
//
//	@Summary		Recent links
//	@Description	List links newest first
//	@Tags			links
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of links (default 10, max 100)"
//	@Success		200		{object}	LinkListResponse
//	@Router			/api/links [get]
func (h *Handlers) HandleListLinks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	links, err := h.service.ListRecentLinks(r.Context(), limit)
	if err != nil {
		h.respondWithDomainError(r.Context(), w, err)
		return
	}

	now := h.service.Now()
	resp := LinkListResponse{Links: make([]LinkResponse, 0, len(links))}
	for _, link := range links {
		resp.Links = append(resp.Links, h.toLinkResponse(link, now))
	}
	resp.Count = len(resp.Links)

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handlers) shortURL(code string) string {
	return h.baseURL + "/" + code
}

func (h *Handlers) toLinkResponse(link *domain.Link, now time.Time) LinkResponse {
	resp := LinkResponse{
		ID:             link.ID,
		Code:           link.Code,
		ShortURL:       h.shortURL(link.Code),
		OriginalURL:    link.OriginalURL,
		Clicks:         link.Clicks,
		CreatedAt:      link.CreatedAt,
		ExpiresAt:      link.ExpiresAt,
		Expired:        link.IsExpired(now),
		CreatedAtLocal: link.CreatedAt.In(h.location).Format(localTimeLayout),
	}
	if link.ExpiresAt != nil {
		resp.ExpiresAtLocal = link.ExpiresAt.In(h.location).Format(localTimeLayout)
	}
	return resp
}

// respondWithDomainError gives every domain error its own status and message.
// Anything else is an infrastructure failure and is logged.
func (h *Handlers) respondWithDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		respondWithError(w, http.StatusBadRequest, "invalid_url", "Invalid URL")
	case errors.Is(err, domain.ErrInvalidCode):
		respondWithError(w, http.StatusBadRequest, "invalid_code", "Invalid custom code")
	case errors.Is(err, domain.ErrCodeTaken):
		respondWithError(w, http.StatusConflict, "code_taken", "Code already exists")
	case errors.Is(err, domain.ErrCodeSpaceExhausted):
		respondWithError(w, http.StatusServiceUnavailable, "code_space_exhausted", "Could not allocate a short code, please retry")
	case errors.Is(err, domain.ErrLinkNotFound):
		respondWithError(w, http.StatusNotFound, "not_found", "Short link not found")
	case errors.Is(err, domain.ErrLinkExpired):
		respondWithError(w, http.StatusGone, "expired", "This short link has expired")
	default:
		logging.FromContext(ctx).Error("Request failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "internal", "Internal server error")
	}
}

// ParseCode reads the optional custom code. Absent and null mean a generated
// code; any JSON value other than a string is domain.ErrInvalidCode.
func ParseCode(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	var code string
	if err := json.Unmarshal(raw, &code); err != nil {
		return "", domain.ErrInvalidCode
	}
	return code, nil
}

// ParseExpiryHours reads a JSON number or numeric string. Anything else,
// including null and an empty value, yields nil.
func ParseExpiryHours(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var hours float64
	if err := json.Unmarshal(raw, &hours); err == nil {
		return &hours
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	hours, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &hours
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(context.Background()).Error("Failed to encode response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, kind, message string) {
	respondWithJSON(w, code, ErrorResponse{
		Error: map[string]string{
			"kind":    kind,
			"message": message,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
