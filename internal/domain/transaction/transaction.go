// Package transaction holds the canonical transaction row and the content
// fingerprint used as its natural key.
package transaction

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/statement-ingest/pkg/money"
)

// DateLayout is the normalized date representation used in fingerprints and records.
const DateLayout = "2006-01-02"

// Transaction is one canonical statement row.
type Transaction struct {
	Date                  time.Time // UTC midnight
	AmountCents           int64     // negative = outflow
	Description           string    // raw source text
	Category              string    // empty until resolved
	SimplifiedDescription string
	UserID                string
	Fingerprint           string
}

// Resolved reports whether a category has been assigned.
func (t Transaction) Resolved() bool {
	return t.Category != ""
}

// Fingerprint hashes user id, date, integer cents and the upper-cased trimmed
// description. It is a pure function of those four values.
func Fingerprint(t Transaction) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(t.UserID))
	b.WriteByte('|')
	b.WriteString(t.Date.Format(DateLayout))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(t.AmountCents, 10))
	b.WriteByte('|')
	b.WriteString(strings.ToUpper(strings.TrimSpace(t.Description)))

	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Stamp attaches userID and the resulting fingerprint to every row in place.
func Stamp(rows []Transaction, userID string) {
	for i := range rows {
		rows[i].UserID = userID
		rows[i].Fingerprint = Fingerprint(rows[i])
	}
}

// DedupeBatch drops every row whose fingerprint was already seen earlier in
// the batch. Survivors keep their relative order. Rows without a fingerprint
// are fingerprinted on the fly.
func DedupeBatch(rows []Transaction) (kept []Transaction, dropped int) {
	seen := make(map[string]struct{}, len(rows))
	kept = make([]Transaction, 0, len(rows))
	for _, row := range rows {
		fp := row.Fingerprint
		if fp == "" {
			fp = Fingerprint(row)
			row.Fingerprint = fp
		}
		if _, dup := seen[fp]; dup {
			dropped++
			continue
		}
		seen[fp] = struct{}{}
		kept = append(kept, row)
	}
	return kept, dropped
}

// Record is the flat serialized shape of a transaction.
type Record struct {
	UserID                string `csv:"user_id" json:"user_id"`
	Date                  string `csv:"date" json:"date"`
	Amount                string `csv:"amount" json:"amount"`
	Description           string `csv:"description" json:"description"`
	Category              string `csv:"category" json:"category"`
	SimplifiedDescription string `csv:"simplified_description" json:"simplified_description"`
	Fingerprint           string `csv:"fingerprint" json:"fingerprint"`
}

// ToRecord flattens t. Amount is rendered with exactly two decimals.
func (t Transaction) ToRecord() Record {
	return Record{
		UserID:                t.UserID,
		Date:                  t.Date.Format(DateLayout),
		Amount:                money.FromCents(t.AmountCents).StringFixed(2),
		Description:           t.Description,
		Category:              t.Category,
		SimplifiedDescription: t.SimplifiedDescription,
		Fingerprint:           t.Fingerprint,
	}
}

// Records flattens a slice of transactions.
func Records(rows []Transaction) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = row.ToRecord()
	}
	return out
}
