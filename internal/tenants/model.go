// Package tenants resolves barbershop tenants from the identity database.
// Booking traffic arrives addressed by slug; the resolver turns that into a
// tenant id and caches the answer.
package tenants

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one barbershop on the platform.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	Currency  string    `json:"currency"`
	Features  []string  `json:"features"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
