// internal/application/ids.go
package application

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewApplicationID returns APP-YYYYMMDD-XXXXXXXX.
func NewApplicationID(now time.Time) string {
	return newID("APP", now)
}

// NewContractID returns CONTRACT-YYYYMMDD-XXXXXXXX.
func NewContractID(now time.Time) string {
	return newID("CONTRACT", now)
}

func newID(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return prefix + "-" + now.UTC().Format("20060102") + "-" + suffix
}
