package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/bmatcuk/doublestar/v4"
)

// table is a parsed CSV file: a header with a column index plus raw rows.
type table struct {
	path    string
	columns map[string]int
	rows    [][]string
}

// readTable parses a CSV file and validates that every required column is
// present in the header.
func readTable(path string, required []string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("refdata: file not found: %s", path)
		}
		return nil, fmt.Errorf("refdata: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	// Rows may legitimately have trailing columns missing; pad on access.
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("refdata: file is empty: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("refdata: read header of %s: %w", path, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, col := range required {
		if _, ok := columns[col]; !ok {
			return nil, &ValidationError{Path: path, Column: col}
		}
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("refdata: read %s: %w", path, err)
		}
		rows = append(rows, row)
	}

	return &table{path: path, columns: columns, rows: rows}, nil
}

// field returns the named column of a row, or "" when the row is short.
func (t *table) field(row []string, column string) string {
	i := t.columns[column]
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func loadContacts(path string) (map[string]Contact, error) {
	t, err := readTable(path, ContactColumns)
	if err != nil {
		return nil, err
	}

	contacts := make(map[string]Contact, len(t.rows))
	for _, row := range t.rows {
		email := NormalizeEmail(t.field(row, "Email"))
		if email == "" {
			continue
		}
		contacts[email] = Contact{
			FirstName:   t.field(row, "First Name"),
			LastName:    t.field(row, "Last Name"),
			LinkedInURL: t.field(row, "Person Linkedin Url"),
		}
	}
	return contacts, nil
}

func loadMessages(path string) (map[string]string, error) {
	t, err := readTable(path, MessageColumns)
	if err != nil {
		return nil, err
	}

	messages := make(map[string]string, len(t.rows))
	for _, row := range t.rows {
		email := NormalizeEmail(t.field(row, "Email"))
		if email == "" {
			continue
		}
		messages[email] = t.field(row, "Personalized_Message")
	}
	return messages, nil
}

// LoadMessagesGlob merges every message catalog matched by a doublestar
// glob pattern into one map. Later files win on duplicate emails.
//
// Every matched file must satisfy the message catalog column set.
func LoadMessagesGlob(pattern string) (map[string]string, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("refdata: bad glob %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("refdata: no catalog files match %q", pattern)
	}

	merged := make(map[string]string)
	for _, path := range paths {
		messages, err := loadMessages(path)
		if err != nil {
			return nil, err
		}
		for email, msg := range messages {
			merged[email] = msg
		}
	}
	return merged, nil
}

// LoadGlob reads the contact directory plus every message catalog
// matched by a doublestar glob.
func LoadGlob(contactsPath, messagesGlob string) (*Store, error) {
	contacts, err := loadContacts(contactsPath)
	if err != nil {
		return nil, err
	}
	messages, err := LoadMessagesGlob(messagesGlob)
	if err != nil {
		return nil, err
	}
	return &Store{contacts: contacts, messages: messages}, nil
}

// NewStore builds a Store from already-loaded tables. Intended for wiring
// LoadMessagesGlob output and for tests.
func NewStore(contacts map[string]Contact, messages map[string]string) *Store {
	if contacts == nil {
		contacts = map[string]Contact{}
	}
	if messages == nil {
		messages = map[string]string{}
	}
	return &Store{contacts: contacts, messages: messages}
}
