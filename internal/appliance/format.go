// Package appliance inspects OVA and OVF files before they are handed to
// VBoxManage.
package appliance

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Format is an appliance packaging format.
type Format string

const (
	// FormatOVA is a tar archive holding the descriptor and disks.
	FormatOVA Format = "ova"
	// FormatOVF is a bare XML descriptor next to its disks.
	FormatOVF Format = "ovf"
)

// tarMagicOffset is where tarMagic starts in a tar header.
const tarMagicOffset = 257

var (
	// tarMagic opens the magic field of every POSIX and GNU tar header.
	tarMagic = []byte("ustar")

	utf8BOM = []byte{0xef, 0xbb, 0xbf}
)

// DetectFormat reads the start of the file at path and reports whether it
// is an OVA archive or an OVF descriptor.
//
// Validation rules:
//   - OVA: "ustar" at offset 257 (tar header of the first member)
//   - OVF: first non-blank byte is '<', after an optional UTF-8 BOM
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, tarMagicOffset+len(tarMagic))
	n, err := io.ReadFull(f, head)
	if err == io.EOF {
		return "", fmt.Errorf("file is empty")
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	head = head[:n]

	if n == tarMagicOffset+len(tarMagic) && bytes.Equal(head[tarMagicOffset:], tarMagic) {
		return FormatOVA, nil
	}

	text := bytes.TrimLeft(bytes.TrimPrefix(head, utf8BOM), " \t\r\n")
	if len(text) > 0 && text[0] == '<' {
		return FormatOVF, nil
	}

	return "", fmt.Errorf("unsupported appliance: not a tar archive and not an XML descriptor")
}
