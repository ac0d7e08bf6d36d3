//go:build linux && (arm || arm64)

package link

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

type gpioIndicator struct {
	chip  *gpiocdev.Chip
	line  *gpiocdev.Line
	value int
}

// OpenIndicator drives the BCM GPIO pin as the forwarding activity LED.
func OpenIndicator(pin int) (Indicator, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("link: invalid gpio pin %d", pin)
	}
	lineName := fmt.Sprintf("GPIO%d", pin)

	chips := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "gpiochip") {
			chips = append(chips, filepath.Join("/dev", e.Name()))
		}
	}
	for _, path := range chips {
		chip, err := gpiocdev.NewChip(path)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("fccore-link"))
		if err != nil {
			chip.Close()
			continue
		}
		return &gpioIndicator{chip: chip, line: line}, nil
	}
	return nil, fmt.Errorf("link: gpio line %q not found (or busy)", lineName)
}

func (g *gpioIndicator) Toggle() {
	g.value ^= 1
	g.line.SetValue(g.value)
}

func (g *gpioIndicator) Close() error {
	if g.line == nil {
		return nil
	}
	g.line.SetValue(0)
	err := g.line.Close()
	g.line = nil
	g.chip.Close()
	return err
}
