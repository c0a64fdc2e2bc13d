package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"inferd/internal/registry"
	"inferd/pkg/types"
)

// placeholderSize is reported for registry models; the gateway does not host
// weights, so real sizes are unknown.
const placeholderSize = int64(1_000_000_000)

// handleTags godoc
// @Summary  List known models (Ollama compatible)
// @Produce  json
// @Success  200 {object} types.TagsResponse
// @Router   /api/tags [get]
func (s *server) handleTags(w http.ResponseWriter, r *http.Request) {
	ids := registry.Known()
	models := make([]types.ModelSummary, 0, len(ids))
	for _, id := range ids {
		models = append(models, types.ModelSummary{
			Name:       id,
			ModifiedAt: timestamp(),
			Size:       placeholderSize,
			Digest:     nameDigest(id),
		})
	}
	writeJSON(w, http.StatusOK, types.TagsResponse{Models: models})
}

// nameDigest derives a stable placeholder digest from the identifier.
func nameDigest(id string) string {
	sum := sha256.Sum256([]byte(id))
	return "sha256:" + hex.EncodeToString(sum[:])
}
