package api

import (
	"net/http"
	"strings"

	"github.com/xraph/renderrelay/catalog"
)

func (h *Handler) listEventTypes(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")

	defs := h.config.Catalog.List()
	out := make([]catalog.WebhookDefinition, 0, len(defs))
	for _, def := range defs {
		if group != "" && !strings.EqualFold(def.Group, group) {
			continue
		}
		out = append(out, def)
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)
	if offset >= len(out) {
		out = out[:0]
	} else {
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}

	writeJSON(w, http.StatusOK, out)
}
