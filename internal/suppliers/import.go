package suppliers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/angelmondragon/procurement-backend/pkg/encoding"
	pkgerrors "github.com/angelmondragon/procurement-backend/pkg/errors"
)

// MaxImportBytes bounds the size of an uploaded supplier file.
const MaxImportBytes = 5 << 20

const (
	colRUC          = "ruc"
	colBusinessName = "business_name"
	colTradeName    = "trade_name"
	colEmail        = "email"
	colPhone        = "phone"
	colAddress      = "address"
	colCategory     = "category"
	colPaymentTerms = "payment_terms"
	colActive       = "active"
)

var headerAliases = map[string]string{
	"ruc":               colRUC,
	"taxid":             colRUC,
	"razonsocial":       colBusinessName,
	"businessname":      colBusinessName,
	"nombre":            colBusinessName,
	"name":              colBusinessName,
	"nombrecomercial":   colTradeName,
	"tradename":         colTradeName,
	"email":             colEmail,
	"correo":            colEmail,
	"telefono":          colPhone,
	"phone":             colPhone,
	"direccion":         colAddress,
	"address":           colAddress,
	"categoria":         colCategory,
	"category":          colCategory,
	"condicionpago":     colPaymentTerms,
	"condicionesdepago": colPaymentTerms,
	"paymentterms":      colPaymentTerms,
	"activo":            colActive,
	"active":            colActive,
	"estado":            colActive,
}

type importRow struct {
	line  int
	input CreateInput
	err   error
}

// parseSupplierCSV decodes an uploaded file of any common encoding and
// returns one row per data line. Row level problems are reported on the row.
func parseSupplierCSV(r io.Reader) ([]importRow, string, error) {
	utf8Reader, charset, err := encoding.NewUTF8Reader(io.LimitReader(r, MaxImportBytes+1))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read import file")
	}
	data, err := io.ReadAll(utf8Reader)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read import file")
	}
	if len(data) > MaxImportBytes {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "import file is too large")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "import file is empty")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectSeparator(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read header")
	}
	columns := mapHeader(header)
	if _, ok := columns[colRUC]; !ok {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "missing ruc column")
	}
	if _, ok := columns[colBusinessName]; !ok {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "missing razon_social column")
	}

	var rows []importRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rows = append(rows, importRow{line: parseErr.Line, err: parseErr.Err})
				continue
			}
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read import file")
		}
		if blankRecord(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, buildRow(line, record, columns))
	}
	return rows, charset, nil
}

func buildRow(line int, record []string, columns map[string]int) importRow {
	get := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	opt := func(name string) *string {
		if v := get(name); v != "" {
			return &v
		}
		return nil
	}

	input := CreateInput{
		RUC:          strings.ReplaceAll(get(colRUC), " ", ""),
		BusinessName: get(colBusinessName),
		TradeName:    opt(colTradeName),
		Email:        opt(colEmail),
		Phone:        opt(colPhone),
		Address:      opt(colAddress),
		Category:     opt(colCategory),
		PaymentTerms: opt(colPaymentTerms),
	}
	row := importRow{line: line, input: input}

	if raw := get(colActive); raw != "" {
		active, ok := parseActive(raw)
		if !ok {
			row.err = fmt.Errorf("invalid active value %q", raw)
			return row
		}
		row.input.Active = &active
	}
	switch {
	case !ValidRUC(input.RUC):
		row.err = fmt.Errorf("invalid ruc %q", input.RUC)
	case input.BusinessName == "":
		row.err = errors.New("razon_social is required")
	}
	return row
}

// detectSeparator picks ';' or ',' by counting them on the header line.
func detectSeparator(data []byte) rune {
	first, _, _ := bufio.NewReader(bytes.NewReader(data)).ReadLine()
	if bytes.Count(first, []byte{';'}) > bytes.Count(first, []byte{','}) {
		return ';'
	}
	return ','
}

func mapHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		if canonical, ok := headerAliases[headerKey(name)]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = i
			}
		}
	}
	return columns
}

func headerKey(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, folded)
}

func parseActive(value string) (bool, bool) {
	switch headerKey(value) {
	case "1", "si", "s", "true", "yes", "activo", "active":
		return true, true
	case "0", "no", "n", "false", "inactivo", "inactive":
		return false, true
	}
	return false, false
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
