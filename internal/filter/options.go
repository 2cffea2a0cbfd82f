package filter

import "github.com/JonMunkholm/DataEditor/internal/table"

// DefaultDistinctLimit is the distinct-value count below which a value picker
// is offered instead of a free-text box.
const DefaultDistinctLimit = 50

// Mode tells the UI how to collect a filter value.
type Mode string

const (
	ModeSelect Mode = "select" // pick from Values
	ModeText   Mode = "text"   // type a value
	ModeNone   Mode = "none"   // column has no present values
)

// Options describes how a column can be filtered. Each entry of Values is
// filter text that coerces back to the value it was rendered from, so
// applying it selects at least one row.
type Options struct {
	Column string           `json:"column"`
	Type   table.ScalarType `json:"type"`
	Mode   Mode             `json:"mode"`
	Values []string         `json:"values,omitempty"`
}

// OptionsFor inspects a column's distinct values. Fewer than limit distinct
// present values gives ModeSelect; none gives ModeNone; otherwise ModeText.
func OptionsFor(t *table.Table, column string, limit int) (Options, error) {
	if limit <= 0 {
		limit = DefaultDistinctLimit
	}
	col, err := t.Column(column)
	if err != nil {
		return Options{}, err
	}
	uniq, err := t.UniqueValues(column)
	if err != nil {
		return Options{}, err
	}

	opts := Options{Column: column, Type: col.Type()}
	switch {
	case len(uniq) == 0:
		opts.Mode = ModeNone
	case len(uniq) < limit:
		opts.Mode = ModeSelect
		dateOnly := col.DateOnly()
		opts.Values = make([]string, len(uniq))
		for i, v := range uniq {
			opts.Values[i] = optionText(v, dateOnly)
		}
	default:
		opts.Mode = ModeText
	}
	return opts, nil
}

// optionText renders v as filter text. Timestamps keep fractional seconds
// and are in UTC, which is how ParseTimestamp reads them back.
func optionText(v table.Value, dateOnly bool) string {
	if v.Type == table.TypeTimestamp && dateOnly {
		return v.Time.Format(table.DateLayout)
	}
	return v.String()
}
