package dataio

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/DataEditor/internal/table"
)

// cellDecoder turns raw worksheet values into the text the type inference
// expects. Numbers stay as stored; booleans become TRUE/FALSE; serial numbers
// in date-formatted cells become timestamps.
type cellDecoder struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	isDate   map[int]bool // by style index
}

func newCellDecoder(f *excelize.File, sheet string) *cellDecoder {
	d := &cellDecoder{f: f, sheet: sheet, isDate: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

// decodeRows rewrites rows in place. rows[i] is worksheet row i+1.
func (d *cellDecoder) decodeRows(rows [][]string) error {
	for i, row := range rows {
		for j, raw := range row {
			if raw == "" {
				continue
			}
			v, err := d.decode(j+1, i+1, raw)
			if err != nil {
				return err
			}
			row[j] = v
		}
	}
	return nil
}

func (d *cellDecoder) decode(col, row int, raw string) (string, error) {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	typ, err := d.f.GetCellType(d.sheet, ref)
	if err != nil {
		return "", err
	}

	switch typ {
	case excelize.CellTypeBool:
		switch raw {
		case "1":
			return "TRUE", nil
		case "0":
			return "FALSE", nil
		}
		return raw, nil

	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		serial, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw, nil
		}
		date, err := d.dateStyled(ref)
		if err != nil {
			return "", err
		}
		if !date {
			return raw, nil
		}
		t, err := excelize.ExcelDateToTime(serial, d.date1904)
		if err != nil {
			return raw, nil
		}
		return t.Format(table.DateTimeLayout), nil

	default:
		return raw, nil
	}
}

// dateStyled reports whether the cell's number format displays a date or
// time.
func (d *cellDecoder) dateStyled(ref string) (bool, error) {
	idx, err := d.f.GetCellStyle(d.sheet, ref)
	if err != nil {
		return false, err
	}
	if idx == 0 {
		return false, nil
	}
	if date, ok := d.isDate[idx]; ok {
		return date, nil
	}

	style, err := d.f.GetStyle(idx)
	if err != nil {
		return false, err
	}
	date := isDateNumFmt(style.NumFmt)
	if style.CustomNumFmt != nil {
		date = isDateFormatCode(*style.CustomNumFmt)
	}
	d.isDate[idx] = date
	return date, nil
}

// isDateNumFmt reports whether a built-in number format ID is a date or time
// format, including the locale-specific date IDs.
func isDateNumFmt(id int) bool {
	return (14 <= id && id <= 22) ||
		(27 <= id && id <= 36) ||
		(45 <= id && id <= 47) ||
		(50 <= id && id <= 58)
}

// isDateFormatCode reports whether a custom format code contains date or
// time tokens outside quoted literals, escapes and bracketed modifiers.
// Elapsed-time brackets such as [h] count as time.
func isDateFormatCode(code string) bool {
	// Only the first section formats positive numbers.
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	if strings.EqualFold(code, "general") {
		return false
	}

	lower := strings.ToLower(code)
	for i := 0; i < len(lower); i++ {
		switch c := lower[i]; c {
		case '"':
			for i++; i < len(lower) && lower[i] != '"'; i++ {
			}
		case '\\', '_', '*':
			i++
		case '[':
			end := strings.IndexByte(lower[i:], ']')
			if end < 0 {
				return false
			}
			inner := lower[i+1 : i+end]
			if inner != "" && strings.Trim(inner, "hms") == "" {
				return true
			}
			i += end
		case 'y', 'm', 'd', 'h', 's':
			return true
		}
	}
	return false
}
