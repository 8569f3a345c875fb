package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"donor_registry/internal/common"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.WrapError(common.ErrBadRequest, "Invalid request payload.", err)
	}
	return nil
}

// idParam parses the {id} segment. Ids that parse but match no row are left
// to the service, which reports them as not found.
func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, common.NewError(common.ErrBadRequest, "Invalid id.")
	}
	return id, nil
}
