//go:build !(linux && (arm || arm64))

package link

import "fmt"

// OpenIndicator is only available on Linux ARM boards.
func OpenIndicator(pin int) (Indicator, error) {
	return nil, fmt.Errorf("link: gpio indicator not supported on this platform")
}
