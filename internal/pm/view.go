package pm

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"pm-go/internal/model"
)

// SortField names the key the view is ordered by.
type SortField string

const (
	SortByTitle     SortField = "title"
	SortByUsername  SortField = "username"
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
)

// SortOrder is the direction of the view ordering.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSortField validates a sort field name.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case SortByTitle, SortByUsername, SortByCreatedAt, SortByUpdatedAt:
		return f, nil
	default:
		return "", fmt.Errorf("unknown sort field %q: must be one of title, username, created_at, updated_at", s)
	}
}

// ParseSortOrder validates a sort order name.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case Ascending, Descending:
		return o, nil
	default:
		return "", fmt.Errorf("unknown sort order %q: must be asc or desc", s)
	}
}

// SortState is the interactive sort selection.
type SortState struct {
	Field SortField
	Order SortOrder
}

// DefaultSortState lists newest records first.
func DefaultSortState() SortState {
	return SortState{Field: SortByCreatedAt, Order: Descending}
}

// Toggle applies a click on a sort field: a new field starts ascending,
// the current field flips its order.
func (s SortState) Toggle(field SortField) SortState {
	if s.Field != field {
		return SortState{Field: field, Order: Ascending}
	}
	if s.Order == Ascending {
		return SortState{Field: field, Order: Descending}
	}
	return SortState{Field: field, Order: Ascending}
}

// ViewQuery holds the inputs of a view derivation besides the records.
type ViewQuery struct {
	Search string
	Sort   SortState
}

// View derives the display list from records. It is a pure function of its
// inputs: records are filtered by query.Search, then stably sorted by
// query.Sort. visible may be nil.
func View(records []model.CredentialRecord, query ViewQuery, visible *Visibility) []model.DisplayRecord {
	fold := newFolder()
	sorted := sortWith(filterWith(records, query.Search, fold), query.Sort, fold)

	out := make([]model.DisplayRecord, len(sorted))
	for i, rec := range sorted {
		out[i] = model.DisplayRecord{
			CredentialRecord: rec,
			PasswordVisible:  visible.Visible(rec.ID),
		}
	}
	return out
}

// Filter keeps the records whose title, username, website or email contains
// search, ignoring case. An empty search keeps every record in input order.
func Filter(records []model.CredentialRecord, search string) []model.CredentialRecord {
	return filterWith(records, search, newFolder())
}

func filterWith(records []model.CredentialRecord, search string, fold *folder) []model.CredentialRecord {
	if search == "" {
		return cloneRecords(records)
	}
	needle := fold.key(search)

	var out []model.CredentialRecord
	for _, rec := range records {
		if matches(rec, needle, fold) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec model.CredentialRecord, needle string, fold *folder) bool {
	for _, field := range []string{rec.Title, rec.Username, rec.Website, rec.Email} {
		if field == "" {
			continue
		}
		if strings.Contains(fold.key(field), needle) {
			return true
		}
	}
	return false
}

type sortItem struct {
	rec  model.CredentialRecord
	text string
	at   time.Time
}

// Sort returns records stably ordered by state. Records with equal keys keep
// their relative input order in both directions.
func Sort(records []model.CredentialRecord, state SortState) []model.CredentialRecord {
	return sortWith(records, state, newFolder())
}

func sortWith(records []model.CredentialRecord, state SortState, fold *folder) []model.CredentialRecord {
	items := make([]sortItem, len(records))
	for i, rec := range records {
		items[i] = sortItem{rec: rec}
		switch state.Field {
		case SortByTitle:
			items[i].text = fold.key(rec.Title)
		case SortByUsername:
			items[i].text = fold.key(rec.Username)
		case SortByCreatedAt:
			items[i].at = timestampKey(rec.CreatedAt)
		case SortByUpdatedAt:
			items[i].at = timestampKey(rec.UpdatedAt)
		}
	}

	compare := func(a, b sortItem) int {
		switch state.Field {
		case SortByCreatedAt, SortByUpdatedAt:
			return a.at.Compare(b.at)
		default:
			return strings.Compare(a.text, b.text)
		}
	}
	if state.Order == Descending {
		asc := compare
		compare = func(a, b sortItem) int { return asc(b, a) }
	}
	slices.SortStableFunc(items, compare)

	out := make([]model.CredentialRecord, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

// timestampKey parses a stored timestamp. Unparsable values sort as the zero
// time.
func timestampKey(s string) time.Time {
	t, err := ParseTimestamp(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// folder produces case-insensitive comparison keys. A cases.Caser keeps
// state, so a folder must not be shared between goroutines.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) key(s string) string {
	return f.caser.String(norm.NFC.String(s))
}
