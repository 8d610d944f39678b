package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/copycraft-api/internal/api/shared"
	"github.com/phrazzld/copycraft-api/internal/marketing"
)

// FlowParam is the chi URL parameter naming the flow to run.
const FlowParam = "flow"

// flowSlugs maps URL path segments to flow names.
var flowSlugs = map[string]string{
	"ad-copy-variations": marketing.AdCopyFlowName,
	"social-media-post":  marketing.SocialMediaFlowName,
	"seo-suggestions":    marketing.SEOFlowName,
}

// FlowDescription is one entry of the flow listing.
type FlowDescription struct {
	Name         string         `json:"name"`
	Path         string         `json:"path"`
	InputSchema  map[string]any `json:"inputSchema"`
	OutputSchema map[string]any `json:"outputSchema"`
}

// FlowHandler handles flow-related HTTP requests.
type FlowHandler struct {
	suite *marketing.Suite
}

// NewFlowHandler creates a new FlowHandler.
func NewFlowHandler(suite *marketing.Suite) *FlowHandler {
	return &FlowHandler{suite: suite}
}

// RunFlow handles POST /api/flows/{flow}. The request body is the raw input
// payload; the response is the validated output record.
func (h *FlowHandler) RunFlow(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, FlowParam)
	name, ok := flowSlugs[slug]
	if !ok {
		HandleAPIError(w, r, fmt.Errorf("%w: %q", marketing.ErrUnknownFlow, slug))
		return
	}

	var payload any
	if err := shared.DecodeJSON(w, r, &payload); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	result, err := h.suite.Run(r.Context(), name, payload)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// ListFlows handles GET /api/flows.
func (h *FlowHandler) ListFlows(w http.ResponseWriter, r *http.Request) {
	infos := marketing.Flows()
	flows := make([]FlowDescription, 0, len(infos))
	for _, info := range infos {
		flows = append(flows, FlowDescription{
			Name:         info.Name,
			Path:         "/api/flows/" + slugFor(info.Name),
			InputSchema:  info.Input.JSONSchema(),
			OutputSchema: info.Output.JSONSchema(),
		})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, flows)
}

func slugFor(name string) string {
	for slug, n := range flowSlugs {
		if n == name {
			return slug
		}
	}
	return name
}
