package core

import (
	"encoding/csv"
	"reflect"
	"strings"
	"testing"
	"time"
)

func intPtr(i int) *int { return &i }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestQuoteField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{" leading space", " leading space"},
		{"a,b", `"a,b"`},
		{`say "hi"`, `"say ""hi"""`},
		{"line\nbreak", "\"line\nbreak\""},
		{"carriage\rreturn", "\"carriage\rreturn\""},
		{`"`, `""""`},
	}

	for _, tt := range tests {
		if got := quoteField(tt.in); got != tt.want {
			t.Errorf("quoteField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTableToCSV(t *testing.T) {
	table := StatisticalTable{Rows: [][]string{
		{"Player", "Note"},
		{"Smith, J.", `the "wildcat"`},
		{"Lee", "two\nlines"},
	}}

	want := "Player,Note\n" +
		"\"Smith, J.\",\"the \"\"wildcat\"\"\"\n" +
		"Lee,\"two\nlines\"\n"
	if got := TableToCSV(table); got != want {
		t.Errorf("TableToCSV() = %q, want %q", got, want)
	}
}

func TestTableToCSV_RoundTrip(t *testing.T) {
	table := StatisticalTable{Rows: [][]string{
		{"a,b", `c"d`, "e\nf"},
		{"", " x ", "plain"},
	}}

	records, err := csv.NewReader(strings.NewReader(TableToCSV(table))).ReadAll()
	if err != nil {
		t.Fatalf("csv.ReadAll() error = %v", err)
	}
	if !reflect.DeepEqual(records, table.Rows) {
		t.Errorf("round trip = %q, want %q", records, table.Rows)
	}
}

func TestTableToCSV_Idempotent(t *testing.T) {
	table := StatisticalTable{Rows: [][]string{{"x", "y,z"}, {"1", "2"}}}
	if a, b := TableToCSV(table), TableToCSV(table); a != b {
		t.Errorf("encodings differ: %q vs %q", a, b)
	}
}

func TestTablesToCSV(t *testing.T) {
	tables := []StatisticalTable{
		{Rows: [][]string{{"A"}, {"1"}}},
		{Rows: [][]string{{"B"}, {"2"}}},
	}
	if got, want := TablesToCSV(tables), "A\n1\n\nB\n2\n"; got != want {
		t.Errorf("TablesToCSV() = %q, want %q", got, want)
	}
	if got := TablesToCSV(nil); got != "" {
		t.Errorf("TablesToCSV(nil) = %q, want empty", got)
	}
}

func TestMetadataToCSV(t *testing.T) {
	fm := Frontmatter{
		Season:     intPtr(2023),
		GameType:   GameRegularSeason,
		HomeAway:   Home,
		Opponent:   "Michigan",
		Date:       datePtr(2023, time.November, 25),
		Attendance: intPtr(110615),
		Weather:    "Sunny, 45°F",
		Location:   "Ohio Stadium",
	}

	want := "field,value\n" +
		"season,2023\n" +
		"game_type,regular_season\n" +
		"home_away,home\n" +
		"opponent,Michigan\n" +
		"date,2023-11-25\n" +
		"attendance,110615\n" +
		"weather,\"Sunny, 45°F\"\n" +
		"location,Ohio Stadium\n"
	if got := MetadataToCSV(fm); got != want {
		t.Errorf("MetadataToCSV() =\n%s\nwant\n%s", got, want)
	}
}

func TestMetadataToCSV_AbsentFields(t *testing.T) {
	want := "field,value\nseason,\ngame_type,\nhome_away,\nopponent,\ndate,\nattendance,\nweather,\nlocation,\n"
	if got := MetadataToCSV(Frontmatter{}); got != want {
		t.Errorf("MetadataToCSV(empty) = %q, want %q", got, want)
	}
}

func TestListToCSV(t *testing.T) {
	items := []GameListItem{
		{Slug: "2023-michigan", GameDate: time.Date(2023, 11, 25, 0, 0, 0, 0, time.UTC), Season: 2023, Opponent: "Michigan", GameType: GameRegularSeason},
		{Slug: "undated", Opponent: "Texas A&M, College Station"},
	}

	want := "slug,date,season,opponent,game_type\n" +
		"2023-michigan,2023-11-25,2023,Michigan,regular_season\n" +
		"undated,,,\"Texas A&M, College Station\",\n"
	if got := ListToCSV(items); got != want {
		t.Errorf("ListToCSV() = %q, want %q", got, want)
	}
}

func TestListToCSV_Empty(t *testing.T) {
	want := "slug,date,season,opponent,game_type\n"
	if got := ListToCSV(nil); got != want {
		t.Errorf("ListToCSV(nil) = %q, want %q", got, want)
	}
	if got := ListToCSV([]GameListItem{}); got != want {
		t.Errorf("ListToCSV([]) = %q, want %q", got, want)
	}
}
