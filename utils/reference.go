package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewReferenceCode builds a short, guest-facing booking reference like
// "BK-4F2A9C1D". Uniqueness is still enforced by the database index; the
// uuid source just makes collisions vanishingly rare.
func NewReferenceCode() string {
	id := uuid.New()
	return fmt.Sprintf("BK-%s", strings.ToUpper(id.String()[:8]))
}
