// Package encoding normalizes uploaded text files to UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

// Charset names reported by Detect.
const (
	CharsetUTF8        = "UTF-8"
	CharsetUTF16LE     = "UTF-16LE"
	CharsetUTF16BE     = "UTF-16BE"
	CharsetWindows1252 = "windows-1252"
	CharsetISO88599    = "ISO-8859-9"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Detect guesses the charset of sample. A byte order mark wins, then strict
// UTF-8 validation, then chardet. Anything else is treated as Windows-1252,
// the usual encoding of spreadsheet exports on Spanish locale desktops.
func Detect(sample []byte) string {
	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		return CharsetUTF8
	case bytes.HasPrefix(sample, bomUTF16LE):
		return CharsetUTF16LE
	case bytes.HasPrefix(sample, bomUTF16BE):
		return CharsetUTF16BE
	case utf8.Valid(sample):
		return CharsetUTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err == nil && result != nil {
		switch result.Charset {
		case "UTF-8":
			return CharsetUTF8
		case "ISO-8859-9":
			return CharsetISO88599
		}
	}
	return CharsetWindows1252
}

// NewUTF8Reader wraps r so that reads yield UTF-8, stripping a UTF-8 BOM.
func NewUTF8Reader(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffSize)
	sample, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	charset := Detect(sample)
	switch charset {
	case CharsetUTF8:
		if bytes.HasPrefix(sample, bomUTF8) {
			_, _ = br.Discard(len(bomUTF8))
		}
		return br, charset, nil
	case CharsetUTF16LE:
		return transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), charset, nil
	case CharsetUTF16BE:
		return transform.NewReader(br, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()), charset, nil
	case CharsetISO88599:
		return transform.NewReader(br, charmap.ISO8859_9.NewDecoder()), charset, nil
	default:
		return transform.NewReader(br, charmap.Windows1252.NewDecoder()), charset, nil
	}
}
