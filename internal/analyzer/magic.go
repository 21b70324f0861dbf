package analyzer

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf8"

	"github.com/ralt/rpmfiles/internal/archive"
	"github.com/ralt/rpmfiles/internal/models"
)

// ELF colors as used by rpm's multilib handling
const (
	ColorNone  uint32 = 0
	ColorELF32 uint32 = 1
	ColorELF64 uint32 = 2
)

var (
	elfMagic     = []byte{0x7F, 'E', 'L', 'F'}
	shebangMagic = []byte("#!")
)

// MagicAnalyzer is the default analyzer. It only looks at magic bytes and
// path conventions, so it never derives symbol-level provides.
type MagicAnalyzer struct{}

// NewMagicAnalyzer creates a new magic byte analyzer
func NewMagicAnalyzer() *MagicAnalyzer {
	return &MagicAnalyzer{}
}

// Analyze classifies an entry
func (a *MagicAnalyzer) Analyze(name string, info archive.EntryInfo, header []byte) (Result, error) {
	res := Result{Flags: pathFlags(name)}

	switch info.Mode & models.ModeTypeMask {
	case models.ModeDir:
		res.Class = "directory"
		return res, nil
	case models.ModeSymlink:
		res.Class = "symbolic link"
		return res, nil
	case models.ModeChar:
		res.Class = "character special"
		return res, nil
	case models.ModeBlock:
		res.Class = "block special"
		return res, nil
	case models.ModeFifo:
		res.Class = "fifo (named pipe)"
		return res, nil
	case models.ModeSocket:
		res.Class = "socket"
		return res, nil
	}

	switch {
	case len(header) == 0:
		res.Class = "empty"
	case bytes.HasPrefix(header, elfMagic):
		res.Color, res.Class = classifyELF(header)
	case bytes.HasPrefix(header, shebangMagic) && info.Mode&0111 != 0:
		res.Class = "script text executable"
		if interp := interpreter(header); interp != "" {
			res.Requires = append(res.Requires, models.NewDependency(interp, models.SenseFindRequires, ""))
		}
	case isText(header):
		res.Class = "text"
	default:
		res.Class = "data"
	}

	return res, nil
}

func pathFlags(name string) uint32 {
	name = "/" + strings.TrimLeft(name, "/")
	switch {
	case strings.HasPrefix(name, "/usr/share/doc/"):
		return models.FileDoc
	case strings.HasPrefix(name, "/usr/share/licenses/"):
		return models.FileLicense
	default:
		return 0
	}
}

// classifyELF reads e_ident and e_type. Anything past the ELF header needs
// the full file and is left to richer analyzers.
func classifyELF(header []byte) (uint32, string) {
	if len(header) < 18 {
		return ColorNone, "ELF"
	}

	var color uint32
	var bits string
	switch header[4] {
	case 1:
		color, bits = ColorELF32, "32-bit"
	case 2:
		color, bits = ColorELF64, "64-bit"
	default:
		return ColorNone, "ELF"
	}

	var order binary.ByteOrder
	var endian string
	switch header[5] {
	case 1:
		order, endian = binary.LittleEndian, "LSB"
	case 2:
		order, endian = binary.BigEndian, "MSB"
	default:
		return color, "ELF " + bits
	}

	kind := "object"
	switch order.Uint16(header[16:18]) {
	case 1:
		kind = "relocatable"
	case 2:
		kind = "executable"
	case 3:
		kind = "shared object"
	case 4:
		kind = "core file"
	}

	return color, strings.Join([]string{"ELF", bits, endian, kind}, " ")
}

// interpreter returns the first word after #!
func interpreter(header []byte) string {
	line := header[len(shebangMagic):]
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(string(line))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	return fields[0]
}

func isText(header []byte) bool {
	if bytes.IndexByte(header, 0) >= 0 {
		return false
	}
	// The captured prefix may end mid-rune
	for i := 0; i < utf8.UTFMax-1 && len(header) > 1; i++ {
		if utf8.Valid(header) {
			return true
		}
		header = header[:len(header)-1]
	}
	return utf8.Valid(header)
}
