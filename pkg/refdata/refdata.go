// Package refdata loads and serves the read-only enrichment tables: the
// contact directory and the personalized message catalog.
//
// Both tables are CSV files keyed by email address. They are loaded once at
// process start, validated against a fixed required column set, and never
// mutated afterwards, so lookups need no locking.
package refdata

import (
	"fmt"
	"strings"
)

// Required column sets for the two tables. A file missing any of these
// columns fails validation and prevents the process from serving.
var (
	ContactColumns = []string{"Email", "First Name", "Last Name", "Person Linkedin Url"}
	MessageColumns = []string{"Email", "Personalized_Message"}
)

// Contact is one row of the contact directory.
type Contact struct {
	FirstName   string
	LastName    string
	LinkedInURL string
}

// Store holds the two enrichment tables in memory.
//
// Store is read-only after Load returns.
type Store struct {
	contacts map[string]Contact
	messages map[string]string
}

// Load reads and validates both enrichment tables.
//
// Returns a *ValidationError if either file is missing a required column.
func Load(contactsPath, messagesPath string) (*Store, error) {
	contacts, err := loadContacts(contactsPath)
	if err != nil {
		return nil, err
	}
	messages, err := loadMessages(messagesPath)
	if err != nil {
		return nil, err
	}
	return &Store{contacts: contacts, messages: messages}, nil
}

// Contact looks up a directory entry by email. The email is normalized
// before the lookup.
func (s *Store) Contact(email string) (Contact, bool) {
	c, ok := s.contacts[NormalizeEmail(email)]
	return c, ok
}

// Message looks up a personalized message by email. The email is normalized
// before the lookup.
func (s *Store) Message(email string) (string, bool) {
	m, ok := s.messages[NormalizeEmail(email)]
	return m, ok
}

// ContactCount returns the number of contact directory entries.
func (s *Store) ContactCount() int { return len(s.contacts) }

// MessageCount returns the number of message catalog entries.
func (s *Store) MessageCount() int { return len(s.messages) }

// NormalizeEmail lowercases and trims an email for case-insensitive joins.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidationError reports a reference data file that does not satisfy the
// required column set.
type ValidationError struct {
	Path   string
	Column string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("refdata: required column %q not found in %s", e.Column, e.Path)
}
