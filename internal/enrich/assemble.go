package enrich

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/internal/table"
)

// Assemble returns a copy of in with one column per stage, named by columns
// and filled from results[row][stage]. A column whose name already exists is
// overwritten in place; others are appended in stage order. Row order and all
// other columns are unchanged.
func Assemble(in *table.Table, columns []string, results [][]Result) (*table.Table, error) {
	if len(results) != in.Len() {
		return nil, eris.Errorf("assemble: %d results for %d rows", len(results), in.Len())
	}

	out := in.Clone()
	for stage, name := range columns {
		values := make([]string, len(results))
		for row, rs := range results {
			if stage < len(rs) {
				values[row] = rs[stage].Cell()
			}
		}
		if err := out.SetColumn(name, values); err != nil {
			return nil, eris.Wrap(err, "assemble")
		}
	}
	return out, nil
}
