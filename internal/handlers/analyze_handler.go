package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/services/ingress"
)

// maxRequestBody bounds the /analyze request body. The URL itself is capped
// at 2048 characters, so anything larger is garbage.
const maxRequestBody = 8 * 1024

var validate = validator.New()

type analyzeRequest struct {
	URL string `json:"url" validate:"required,min=1,max=2048"`
}

type analyzeResponse struct {
	JobID    string     `json:"jobId"`
	Status   string     `json:"status"`
	Cached   bool       `json:"cached"`
	CachedAt *time.Time `json:"cachedAt,omitempty"`
	PollURL  string     `json:"pollUrl"`
	Message  string     `json:"message,omitempty"`
}

// AnalyzeHandler accepts scan submissions
type AnalyzeHandler struct {
	admission *ingress.Service
	logger    arbor.ILogger
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(admission *ingress.Service, logger arbor.ILogger) *AnalyzeHandler {
	return &AnalyzeHandler{
		admission: admission,
		logger:    logger,
	}
}

// friendlyMessage maps an admission error code to the message shown to the
// user. Codes with dynamic suffixes (DNS_FAILED:<class>) match by prefix.
func friendlyMessage(code string) string {
	switch {
	case code == ingress.CodeURLMissing, code == ingress.CodeURLEmpty:
		return "Enter a URL to scan."
	case code == ingress.CodeNoTLD:
		return "That doesn't look like a real domain. Check the address and try again."
	case code == ingress.CodeRawIP:
		return "Scanning raw IP addresses is not supported. Enter a domain name instead."
	case code == ingress.CodeURLMalformed, code == ingress.CodeInvalidProtocol, code == ingress.CodeInvalidHostname:
		return "That URL looks malformed. Enter an address like https://example.com."
	case code == ingress.CodeDNSTimeout, strings.HasPrefix(code, ingress.CodeDNSFailed):
		return "We couldn't resolve that domain. Check the spelling and try again."
	case strings.HasPrefix(code, "SSRF_"):
		return "Scanning private or internal network addresses is not permitted."
	default:
		return "Something went wrong while submitting the scan. Please try again shortly."
	}
}

// SubmitHandler handles POST /analyze
func (h *AnalyzeHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ingress.CodeURLMissing, "Request body must be JSON with a url field.")
		return
	}
	if err := validate.Struct(&req); err != nil {
		code := ingress.CodeURLEmpty
		if len(req.URL) > 2048 {
			code = ingress.CodeURLMalformed
		}
		WriteError(w, http.StatusBadRequest, code, "Provide a url between 1 and 2048 characters.")
		return
	}

	admission, err := h.admission.Submit(r.Context(), req.URL, nil)
	if err != nil {
		code := ingress.CodeOf(err)
		if ingress.IsClientError(code) {
			WriteError(w, http.StatusBadRequest, code, friendlyMessage(code))
			return
		}
		h.logger.Error().Str("code", code).Err(err).Msg("Scan submission failed")
		WriteError(w, http.StatusInternalServerError, code, friendlyMessage(code))
		return
	}

	job := admission.Job
	resp := analyzeResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		PollURL: "/scan/" + job.ID,
	}

	if admission.Cached {
		resp.Cached = true
		resp.CachedAt = admission.CachedAt
		WriteJSON(w, http.StatusOK, resp)
		return
	}

	if admission.Coalesced {
		resp.Message = "A scan for this URL is already in progress."
	}
	WriteJSON(w, http.StatusAccepted, resp)
}
