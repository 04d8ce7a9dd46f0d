// Package enrich joins raw campaign leads against the reference data
// tables to produce enriched outreach records.
//
// The engine is a pure function of its inputs: it holds only a reference
// to the read-only refdata store and keeps no state between calls.
package enrich

import (
	"github.com/leadpulse/leadpulse/pkg/instantly"
	"github.com/leadpulse/leadpulse/pkg/refdata"
)

// Record is one enriched lead.
//
// The capitalized JSON field names are part of the wire contract with the
// browser extension and must not be renamed.
type Record struct {
	// Name is the contact's first and last name joined with a space.
	Name string `json:"Name"`

	// LinkedIn is the contact's profile URL from the directory.
	LinkedIn string `json:"LinkedIn"`

	// InputField is the personalized message, or "" when the catalog has
	// no entry for the email.
	InputField string `json:"InputField"`
}

// Engine enriches raw leads against a refdata store.
type Engine struct {
	ref *refdata.Store
}

// New creates an engine over the given reference data.
func New(ref *refdata.Store) *Engine {
	return &Engine{ref: ref}
}

// Enrich converts a batch of raw leads into enriched records.
//
// Steps: extract emails (leads without one are skipped), deduplicate
// preserving first-seen order, inner-join the contact directory on the
// normalized email (non-matches are dropped; only leads resolvable to a
// known contact are useful downstream), then left-join the message
// catalog, defaulting InputField to "".
func (e *Engine) Enrich(leads []instantly.RawLead) []Record {
	return e.join(leads, true)
}

// Match is the contact-directory-only variant: same join as Enrich but
// InputField is always empty. It backs the legacy match endpoint.
func (e *Engine) Match(leads []instantly.RawLead) []Record {
	return e.join(leads, false)
}

func (e *Engine) join(leads []instantly.RawLead, withMessages bool) []Record {
	emails := dedupeEmails(leads)

	records := make([]Record, 0, len(emails))
	for _, email := range emails {
		contact, ok := e.ref.Contact(email)
		if !ok {
			continue
		}

		// The name join is literal: a missing part leaves a leading or
		// trailing space, which downstream consumers already tolerate.
		rec := Record{
			Name:     contact.FirstName + " " + contact.LastName,
			LinkedIn: contact.LinkedInURL,
		}
		if withMessages {
			if msg, ok := e.ref.Message(email); ok {
				rec.InputField = msg
			}
		}
		records = append(records, rec)
	}
	return records
}

// dedupeEmails extracts normalized emails in first-seen order, skipping
// leads without an email field.
func dedupeEmails(leads []instantly.RawLead) []string {
	seen := make(map[string]struct{}, len(leads))
	var emails []string
	for _, lead := range leads {
		raw, ok := lead.Email()
		if !ok {
			continue
		}
		email := refdata.NormalizeEmail(raw)
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		emails = append(emails, email)
	}
	return emails
}
