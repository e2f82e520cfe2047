package annotate

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"

	"cloud.google.com/go/storage"
	"github.com/carbocation/esetclust/eset"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

type probeSymbol struct {
	ProbeID string `csv:"probe_id"`
	Symbol  string `csv:"symbol"`
}

// ReadTable parses a delimited table with probe_id and symbol columns. Other
// columns are ignored. Probes listed more than once keep their first symbol.
func ReadTable(r io.Reader, delim rune) (Map, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records := []*probeSymbol{}
	if err := gocsv.UnmarshalCSV(cr, &records); err != nil {
		return nil, pfx.Err(err)
	}

	out := make(Map, len(records))
	for _, rec := range records {
		if rec.ProbeID == "" || rec.Symbol == "" || rec.Symbol == "NA" {
			continue
		}
		if _, exists := out[rec.ProbeID]; exists {
			continue
		}
		out[rec.ProbeID] = rec.Symbol
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: table has no probe_id/symbol pairs", ErrNoSource)
	}

	return out, nil
}

// OpenTable reads a probe_id/symbol table from a local, http(s) or gs:// path.
func OpenTable(ctx context.Context, path string, client *storage.Client) (Map, error) {
	log.Printf("Importing annotation from %s\n", path)

	payload, err := eset.ReadAll(ctx, path, client)
	if err != nil {
		return nil, err
	}

	return ReadTable(bytes.NewReader(payload), eset.DetermineDelimiter(payload))
}
