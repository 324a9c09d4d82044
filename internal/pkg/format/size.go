// Package format holds small human-output helpers shared by the tool
// handlers.
package format

import "fmt"

var byteUnits = []string{"KB", "MB", "GB", "TB", "PB", "EB"}

// ByteSize renders a byte count in binary units with one decimal place,
// or plain bytes under 1 KiB. Zero renders as the empty string so
// callers can omit the field entirely.
func ByteSize(n int64) string {
	if n == 0 {
		return ""
	}
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n)
	for i, unit := range byteUnits {
		v /= 1024
		if v < 1024 || i == len(byteUnits)-1 {
			return fmt.Sprintf("%.1f %s", v, unit)
		}
	}
	return ""
}
