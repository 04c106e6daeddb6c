package model

import (
	"fmt"
	"strings"
	"time"
)

// ReadableSize renders bytes with binary units, e.g. 1.50 GB.
func ReadableSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	units := []string{"KB", "MB", "GB", "TB", "PB"}
	v := float64(b)
	i := -1
	for v >= unit && i < len(units)-1 {
		v /= unit
		i++
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}

// DataLimitText renders a data limit, "Unlimited" for 0.
func DataLimitText(b int64) string {
	if b <= 0 {
		return "Unlimited"
	}
	return ReadableSize(b)
}

// ExpiryText renders an expiry date, "Never" for nil.
func ExpiryText(t *time.Time) string {
	if t == nil {
		return "Never"
	}
	return t.Format("2006-01-02")
}

// String renders the selection as "vless: a, b | trojan: t".
func (in Inbounds) String() string {
	if len(in) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(in))
	for _, p := range in.Protocols() {
		parts = append(parts, fmt.Sprintf("%s: %s", p, strings.Join(in[p], ", ")))
	}
	return strings.Join(parts, " | ")
}
