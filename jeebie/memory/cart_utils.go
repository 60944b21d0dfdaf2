package memory

import (
	"fmt"
	"strings"
)

// cleanGameboyTitle turns the raw title bytes into a printable string.
// The title is NUL padded, and anything outside printable ASCII is replaced.
func cleanGameboyTitle(titleBytes []byte) string {
	var sb strings.Builder
	for _, b := range titleBytes {
		switch {
		case b == 0:
			sb.WriteByte(' ')
		case b < 0x20 || b > 0x7E:
			sb.WriteByte('?')
		default:
			sb.WriteByte(b)
		}
	}

	title := strings.TrimSpace(sb.String())
	if title == "" {
		return "(Untitled)"
	}
	return title
}

func cleanCode(code []byte) string {
	for _, b := range code {
		if b < 0x20 || b > 0x7E {
			return ""
		}
	}
	return string(code)
}

// licensee returns the two character new licensee code when the old code
// defers to it (0x33), the old code in hex otherwise.
func licensee(rom []byte) string {
	old := rom[oldLicenseCodeAddress]
	if old == 0x33 {
		return cleanCode(rom[newLicenseCodeAddress : newLicenseCodeAddress+2])
	}
	return fmt.Sprintf("%02X", old)
}

// romSize decodes header byte 0x148. Unknown values fall back to the image size.
func romSize(code uint8, actual int) int {
	switch {
	case code <= 0x08:
		return 0x8000 << code
	case code == 0x52:
		return 72 * romBankSize
	case code == 0x53:
		return 80 * romBankSize
	case code == 0x54:
		return 96 * romBankSize
	}
	return actual
}
