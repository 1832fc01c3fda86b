package model

import (
	"testing"
)

func makeEntry(name, path string, year int) Entry {
	return NewEntry(&Document{Name: name, Year: year}, path, false)
}

func TestCatalog_Sort(t *testing.T) {
	c := Catalog{
		Entries: []Entry{
			makeEntry("b", "/r/2024/Zeta.pdf", 2024),
			makeEntry("a", "/r/2024/alpha.pdf", 2024),
			makeEntry("c", "/r/2023/Beta.pdf", 2023),
		},
	}

	c.Sort()

	got := []string{}
	for _, e := range c.Entries {
		got = append(got, e.DisplayFilename())
	}
	want := []string{"alpha.pdf", "Beta.pdf", "Zeta.pdf"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted order = %v, want %v", got, want)
		}
	}
}

func TestCatalog_DeriveYears(t *testing.T) {
	tests := []struct {
		name         string
		years        []int
		selected     int
		wantYears    []int
		wantSelected int
	}{
		{
			name:         "most recent first",
			years:        []int{2022, 2024, 2023},
			wantYears:    []int{2024, 2023, 2022},
			wantSelected: 2024,
		},
		{
			name:         "selection kept when still present",
			years:        []int{2022, 2024},
			selected:     2022,
			wantYears:    []int{2024, 2022},
			wantSelected: 2022,
		},
		{
			name:         "stale selection reset",
			years:        []int{2024},
			selected:     2020,
			wantYears:    []int{2024},
			wantSelected: 2024,
		},
		{
			name:         "empty catalog",
			years:        nil,
			selected:     2024,
			wantYears:    []int{},
			wantSelected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Catalog{SelectedYear: tt.selected}
			for _, year := range tt.years {
				c.Entries = append(c.Entries, makeEntry("doc", "/r/doc.pdf", year))
			}

			c.DeriveYears()

			if len(c.Years) != len(tt.wantYears) {
				t.Fatalf("Years = %v, want %v", c.Years, tt.wantYears)
			}
			for i := range tt.wantYears {
				if c.Years[i] != tt.wantYears[i] {
					t.Fatalf("Years = %v, want %v", c.Years, tt.wantYears)
				}
			}
			if c.SelectedYear != tt.wantSelected {
				t.Errorf("SelectedYear = %d, want %d", c.SelectedYear, tt.wantSelected)
			}
		})
	}
}

func TestCatalog_Filter(t *testing.T) {
	c := Catalog{
		Entries: []Entry{
			NewEntry(&Document{Name: "W-2 Acme", Year: 2024}, "/r/2024/w2.pdf", false),
			NewEntry(&Document{Name: "Receipt", Notes: "acme hardware", Year: 2024}, "/r/2024/receipt.pdf", false),
			NewEntry(&Document{Name: "Donation", Year: 2024}, "/r/2024/gift.pdf", false),
		},
	}

	tests := []struct {
		name   string
		substr string
		want   int
	}{
		{name: "empty filter matches all", substr: "", want: 3},
		{name: "name match case-insensitive", substr: "ACME", want: 2},
		{name: "filename match", substr: "gift", want: 1},
		{name: "no match", substr: "zzz", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Filter(tt.substr); len(got) != tt.want {
				t.Errorf("Filter(%q) returned %d entries, want %d", tt.substr, len(got), tt.want)
			}
		})
	}
}

func TestCatalog_FindByName(t *testing.T) {
	older := NewEntry(&Document{Name: "W-2", Year: 2023}, "/r/2023/w2.pdf", false)
	newer := NewEntry(&Document{Name: "W-2", Year: 2024}, "/r/2024/w2.pdf", false)
	c := Catalog{
		Entries:      []Entry{older, newer},
		SelectedYear: 2024,
	}

	got := c.FindByName("W-2")
	if got == nil || got.Document.Year != 2024 {
		t.Errorf("FindByName should prefer the selected year, got %+v", got)
	}

	c.SelectedYear = 2025
	got = c.FindByName("W-2")
	if got == nil || got.Document.Year != 2023 {
		t.Errorf("FindByName should fall back to first match, got %+v", got)
	}

	if c.FindByName("missing") != nil {
		t.Error("FindByName of unknown name should return nil")
	}
}

func TestCatalog_FindByID(t *testing.T) {
	entry := makeEntry("doc", "/r/2024/doc.pdf", 2024)
	c := Catalog{Entries: []Entry{entry}}

	if got := c.FindByID(entry.ID); got == nil || got.Path != entry.Path {
		t.Errorf("FindByID returned %+v", got)
	}
	other := makeEntry("other", "/r/2024/other.pdf", 2024)
	if c.FindByID(other.ID) != nil {
		t.Error("FindByID of unknown id should return nil")
	}
}

func TestAvailability_Local(t *testing.T) {
	if !AvailabilityCurrent.Local() || !AvailabilityDownloaded.Local() {
		t.Error("local states should report Local")
	}
	if AvailabilityNotDownloaded.Local() {
		t.Error("not-downloaded should not report Local")
	}
}
