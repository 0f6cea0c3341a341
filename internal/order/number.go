// AngelaMos | 2026
// number.go

package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber renders a human-facing order number such as
// ORD-20260301-120000-3F9A1C. The unique index on order_number catches the
// rare suffix collision.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102-150405"), suffix)
}
