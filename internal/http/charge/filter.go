package charge

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

// ParseFilter reads the kind and owner_id query parameters shared by the charge and payment
// listings.
func ParseFilter(r *http.Request) (charge.ListFilter, error) {
	var filter charge.ListFilter

	if s := r.URL.Query().Get("kind"); s != "" {
		kind := charge.Kind(s)
		if !kind.Valid() {
			return filter, fmt.Errorf("invalid kind %q", s)
		}

		filter.Kind = &kind
	}

	if s := r.URL.Query().Get("owner_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return filter, fmt.Errorf("invalid owner_id %q", s)
		}

		filter.OwnerID = &id
	}

	return filter, nil
}
