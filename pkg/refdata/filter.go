package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/bmatcuk/doublestar/v4"
)

// FilterSummary reports what a catalog filter run did.
type FilterSummary struct {
	CatalogRows  int
	LeadFiles    int
	UniqueEmails int
	Matched      int
}

// FilterCatalog writes the subset of a message catalog whose emails appear
// in at least one exported campaign lead CSV.
//
// leadsGlob is a doublestar pattern selecting the campaign CSVs; each must
// carry an "email" column (the raw upstream field name, lowercase). The
// catalog keeps its original header and column order in the output.
func FilterCatalog(catalogPath, leadsGlob, outputPath string) (*FilterSummary, error) {
	emails, leadFiles, err := collectLeadEmails(leadsGlob)
	if err != nil {
		return nil, err
	}

	t, err := readTable(catalogPath, MessageColumns)
	if err != nil {
		return nil, err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("refdata: create %s: %w", outputPath, err)
	}
	defer func() { _ = out.Close() }()

	w := csv.NewWriter(out)

	header := make([]string, len(t.columns))
	for name, i := range t.columns {
		header[i] = name
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("refdata: write %s: %w", outputPath, err)
	}

	matched := 0
	for _, row := range t.rows {
		email := NormalizeEmail(t.field(row, "Email"))
		if _, ok := emails[email]; !ok {
			continue
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("refdata: write %s: %w", outputPath, err)
		}
		matched++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("refdata: flush %s: %w", outputPath, err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("refdata: close %s: %w", outputPath, err)
	}

	return &FilterSummary{
		CatalogRows:  len(t.rows),
		LeadFiles:    leadFiles,
		UniqueEmails: len(emails),
		Matched:      matched,
	}, nil
}

// collectLeadEmails gathers the set of normalized emails across every
// campaign CSV matched by the glob. Files without an email column are
// skipped rather than failing the run.
func collectLeadEmails(pattern string) (map[string]struct{}, int, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, 0, fmt.Errorf("refdata: bad glob %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, 0, fmt.Errorf("refdata: no lead files match %q", pattern)
	}

	emails := make(map[string]struct{})
	files := 0
	for _, path := range paths {
		n, err := readLeadEmails(path, emails)
		if err != nil {
			return nil, 0, err
		}
		if n >= 0 {
			files++
		}
	}
	return emails, files, nil
}

// readLeadEmails appends a file's emails into the set. Returns -1 when the
// file has no email column.
func readLeadEmails(path string, emails map[string]struct{}) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("refdata: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("refdata: read header of %s: %w", path, err)
	}

	emailIdx := -1
	for i, name := range header {
		if name == "email" {
			emailIdx = i
			break
		}
	}
	if emailIdx == -1 {
		return -1, nil
	}

	count := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("refdata: read %s: %w", path, err)
		}
		if emailIdx >= len(row) {
			continue
		}
		email := NormalizeEmail(row[emailIdx])
		if email == "" {
			continue
		}
		emails[email] = struct{}{}
		count++
	}
	return count, nil
}
