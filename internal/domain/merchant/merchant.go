package merchant

import (
	"time"
)

// Merchant is the owning tenant for every ledger entity. Profile management
// lives at the API boundary; the engine only needs the identity row.
type Merchant struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}
