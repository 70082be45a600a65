package pm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pm-go/internal/model"
	"pm-go/internal/pm"
)

func rec(id, title, username, website, email, createdAt, updatedAt string) model.CredentialRecord {
	return model.CredentialRecord{
		ID:        id,
		Title:     title,
		Username:  username,
		Password:  "pw-" + id,
		Website:   website,
		Email:     email,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

func sampleRecords() []model.CredentialRecord {
	return []model.CredentialRecord{
		rec("1", "Mail", "bob", "", "bob@x.com", "2024-01-15T10:30:00.000000000Z", "2024-01-18T10:30:00.000000000Z"),
		rec("2", "bank", "alice", "https://bank.example", "", "2024-01-16T10:30:00.000000000Z", "2024-01-16T10:30:00.000000000Z"),
		rec("3", "Forum", "Carol", "https://forum.example", "carol@forum.example", "2024-01-14T10:30:00.000000000Z", "2024-01-17T10:30:00.000000000Z"),
	}
}

func ids(records []model.CredentialRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func displayIDs(records []model.DisplayRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{name: "empty search keeps everything in order", search: "", want: []string{"1", "2", "3"}},
		{name: "matches username", search: "bob", want: []string{"1"}},
		{name: "matches title ignoring case", search: "MAIL", want: []string{"1"}},
		{name: "matches website", search: "bank.example", want: []string{"2"}},
		{name: "matches email", search: "carol@", want: []string{"3"}},
		{name: "matches several fields", search: "example", want: []string{"2", "3"}},
		{name: "no match", search: "zzz", want: []string{}},
		{name: "password is not searched", search: "pw-1", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pm.Filter(records, tt.search)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_AbsentOptionalFieldsNeverMatch(t *testing.T) {
	records := []model.CredentialRecord{rec("1", "Mail", "bob", "", "", "", "")}

	assert.Empty(t, pm.Filter(records, "@"))
	assert.Empty(t, pm.Filter(records, "http"))
}

func TestFilter_UnicodeCaseFolding(t *testing.T) {
	records := []model.CredentialRecord{
		rec("1", "Straße", "jürgen", "", "", "", ""),
		rec("2", "ΣΊΣΥΦΟΣ", "sisyphus", "", "", "", ""),
	}

	assert.Equal(t, []string{"1"}, ids(pm.Filter(records, "STRASSE")))
	assert.Equal(t, []string{"1"}, ids(pm.Filter(records, "JÜRGEN")))
	assert.Equal(t, []string{"2"}, ids(pm.Filter(records, "σίσυφος")))
}

func TestFilter_DoesNotAliasInput(t *testing.T) {
	records := sampleRecords()
	got := pm.Filter(records, "")
	got[0].Title = "changed"

	assert.Equal(t, "Mail", records[0].Title)
}

func TestSort(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		name  string
		state pm.SortState
		want  []string
	}{
		{name: "title ascending ignores case", state: pm.SortState{Field: pm.SortByTitle, Order: pm.Ascending}, want: []string{"2", "3", "1"}},
		{name: "title descending", state: pm.SortState{Field: pm.SortByTitle, Order: pm.Descending}, want: []string{"1", "3", "2"}},
		{name: "username ascending ignores case", state: pm.SortState{Field: pm.SortByUsername, Order: pm.Ascending}, want: []string{"2", "1", "3"}},
		{name: "created_at ascending", state: pm.SortState{Field: pm.SortByCreatedAt, Order: pm.Ascending}, want: []string{"3", "1", "2"}},
		{name: "created_at descending", state: pm.DefaultSortState(), want: []string{"2", "1", "3"}},
		{name: "updated_at ascending", state: pm.SortState{Field: pm.SortByUpdatedAt, Order: pm.Ascending}, want: []string{"2", "3", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(pm.Sort(records, tt.state)))
		})
	}
}

func TestSort_ChronologicalAcrossFormats(t *testing.T) {
	records := []model.CredentialRecord{
		rec("late", "a", "", "", "", "2024-01-15T12:00:00Z", ""),
		rec("early", "b", "", "", "", "2024-01-15T11:59:59.5+00:00", ""),
		rec("offset", "c", "", "", "", "2024-01-15T13:30:00+02:00", ""),
	}

	got := pm.Sort(records, pm.SortState{Field: pm.SortByCreatedAt, Order: pm.Ascending})
	assert.Equal(t, []string{"offset", "early", "late"}, ids(got))
}

func TestSort_Stable(t *testing.T) {
	records := []model.CredentialRecord{
		rec("a", "Same", "x", "", "", "2024-01-15T10:30:00Z", "2024-01-15T10:30:00Z"),
		rec("b", "same", "x", "", "", "2024-01-15T10:30:00Z", "2024-01-15T10:30:00Z"),
		rec("c", "SAME", "x", "", "", "2024-01-15T10:30:00Z", "2024-01-15T10:30:00Z"),
	}

	for _, field := range []pm.SortField{pm.SortByTitle, pm.SortByUsername, pm.SortByCreatedAt, pm.SortByUpdatedAt} {
		for _, order := range []pm.SortOrder{pm.Ascending, pm.Descending} {
			got := pm.Sort(records, pm.SortState{Field: field, Order: order})
			assert.Equal(t, []string{"a", "b", "c"}, ids(got), "field %s order %s", field, order)
		}
	}
}

func TestSort_Idempotent(t *testing.T) {
	records := sampleRecords()
	state := pm.SortState{Field: pm.SortByTitle, Order: pm.Ascending}

	once := pm.Sort(records, state)
	twice := pm.Sort(once, state)
	assert.Equal(t, once, twice)
}

func TestSort_DescendingReversesAscending(t *testing.T) {
	records := sampleRecords()

	for _, field := range []pm.SortField{pm.SortByTitle, pm.SortByUsername, pm.SortByCreatedAt, pm.SortByUpdatedAt} {
		asc := ids(pm.Sort(records, pm.SortState{Field: field, Order: pm.Ascending}))
		desc := ids(pm.Sort(records, pm.SortState{Field: field, Order: pm.Descending}))

		reversed := make([]string, len(asc))
		for i, id := range asc {
			reversed[len(asc)-1-i] = id
		}
		assert.Equal(t, reversed, desc, "field %s", field)
	}
}

func TestSort_UnparsableTimestampsSortFirst(t *testing.T) {
	records := []model.CredentialRecord{
		rec("ok", "a", "", "", "", "2024-01-15T10:30:00Z", ""),
		rec("bad", "b", "", "", "", "yesterday", ""),
	}

	got := pm.Sort(records, pm.SortState{Field: pm.SortByCreatedAt, Order: pm.Ascending})
	assert.Equal(t, []string{"bad", "ok"}, ids(got))
}

func TestView(t *testing.T) {
	records := sampleRecords()
	visible := pm.NewVisibility()
	visible.Show("3")

	got := pm.View(records, pm.ViewQuery{
		Search: "example",
		Sort:   pm.SortState{Field: pm.SortByTitle, Order: pm.Descending},
	}, visible)

	require.Len(t, got, 2)
	assert.Equal(t, []string{"3", "2"}, displayIDs(got))
	assert.True(t, got[0].PasswordVisible)
	assert.False(t, got[1].PasswordVisible)
}

func TestView_NilVisibility(t *testing.T) {
	got := pm.View(sampleRecords(), pm.ViewQuery{Sort: pm.DefaultSortState()}, nil)

	require.Len(t, got, 3)
	for _, r := range got {
		assert.False(t, r.PasswordVisible)
	}
}

func TestSortState_Toggle(t *testing.T) {
	s := pm.DefaultSortState()
	assert.Equal(t, pm.SortState{Field: pm.SortByCreatedAt, Order: pm.Descending}, s)

	s = s.Toggle(pm.SortByTitle)
	assert.Equal(t, pm.SortState{Field: pm.SortByTitle, Order: pm.Ascending}, s)

	s = s.Toggle(pm.SortByTitle)
	assert.Equal(t, pm.SortState{Field: pm.SortByTitle, Order: pm.Descending}, s)

	s = s.Toggle(pm.SortByTitle)
	assert.Equal(t, pm.SortState{Field: pm.SortByTitle, Order: pm.Ascending}, s)

	s = s.Toggle(pm.SortByCreatedAt)
	assert.Equal(t, pm.SortState{Field: pm.SortByCreatedAt, Order: pm.Ascending}, s)
}

func TestParseSortFieldAndOrder(t *testing.T) {
	f, err := pm.ParseSortField("updated_at")
	require.NoError(t, err)
	assert.Equal(t, pm.SortByUpdatedAt, f)

	_, err = pm.ParseSortField("password")
	assert.Error(t, err)

	o, err := pm.ParseSortOrder("asc")
	require.NoError(t, err)
	assert.Equal(t, pm.Ascending, o)

	_, err = pm.ParseSortOrder("up")
	assert.Error(t, err)
}
