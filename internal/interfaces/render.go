package interfaces

import (
	"fmt"
	"strconv"
)

var byteUnits = []string{"B", "kB", "MB", "GB", "TB"}

// RenderBytesRate renders a byte rate with decimal prefixes, e.g. "1.25 MB/s".
func RenderBytesRate(v float64) string {
	unit := 0
	for v >= 1000 && unit < len(byteUnits)-1 {
		v /= 1000
		unit++
	}
	return fmt.Sprintf("%.2f %s/s", v, byteUnits[unit])
}

var bitUnits = []string{"Bit/s", "kBit/s", "MBit/s", "GBit/s", "TBit/s"}

// RenderSpeed renders a link speed in bits/s, e.g. "1 GBit/s".
func RenderSpeed(v float64) string {
	unit := 0
	for v >= 1000 && unit < len(bitUnits)-1 {
		v /= 1000
		unit++
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + bitUnits[unit]
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
