package player

import "fmt"

// FormatTime форматирует миллисекунды как m:ss; доли секунды отбрасываются.
func FormatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
