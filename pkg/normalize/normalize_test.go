package normalize

import "testing"

func TestSplitAndClean(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantNumeral string
		wantText    string
	}{
		{
			name:        "leading numeral with dot",
			raw:         "3. In the beginning...",
			wantNumeral: "3",
			wantText:    "In the beginning...",
		},
		{
			name:        "numeral only",
			raw:         "12",
			wantNumeral: "12",
			wantText:    "",
		},
		{
			name:        "trailing numeral keeps sentence period",
			raw:         "Verse ends here 5.",
			wantNumeral: "5",
			wantText:    "Verse ends here.",
		},
		{
			name:        "leading numeral without trailing period",
			raw:         "1. Text one",
			wantNumeral: "1",
			wantText:    "Text one",
		},
		{
			name:        "no-break space before embedded number",
			raw:         "3. He was\u00a012 years old.",
			wantNumeral: "312",
			wantText:    "He was years old.",
		},
		{
			name:        "no-break space after leading numeral",
			raw:         "4.\u00a0და იყო",
			wantNumeral: "4",
			wantText:    "და იყო",
		},
		{
			name:        "numeral glued to text",
			raw:         "7და თქვა ღმერთმა.",
			wantNumeral: "7",
			wantText:    "და თქვა ღმერთმა.",
		},
		{
			name:        "chapter header",
			raw:         "იოანეს სახარება 3",
			wantNumeral: "3",
			wantText:    "იოანეს სახარება",
		},
		{
			name:        "no digits",
			raw:         "  Blessed are the meek.  ",
			wantNumeral: "",
			wantText:    "Blessed are the meek.",
		},
		{
			name:        "empty",
			raw:         "",
			wantNumeral: "",
			wantText:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			numeral, text := SplitAndClean(tt.raw)
			if numeral != tt.wantNumeral {
				t.Errorf("SplitAndClean(%q) numeral = %q, want %q", tt.raw, numeral, tt.wantNumeral)
			}
			if text != tt.wantText {
				t.Errorf("SplitAndClean(%q) text = %q, want %q", tt.raw, text, tt.wantText)
			}
		})
	}
}

// Every digit run lands in the numeral, so a verse whose text contains a number
// is keyed on the merged digits. Rows are matched on this value, so the test pins it.
func TestSplitAndClean_MergesEmbeddedNumbers(t *testing.T) {
	numeral, text := SplitAndClean("3. He was 12 years old.")
	if numeral != "312" {
		t.Errorf("numeral = %q, want merged %q", numeral, "312")
	}
	if text != "He was years old." {
		t.Errorf("text = %q, want %q", text, "He was years old.")
	}
}

func TestSplitAndClean_Idempotent(t *testing.T) {
	labels := []string{
		"3. In the beginning...",
		"Verse ends here 5.",
		"1. Text one",
		"12",
		"42 . odd spacing",
	}
	for _, raw := range labels {
		_, once := SplitAndClean(raw)
		numeral, twice := SplitAndClean(once)
		if numeral != "" {
			t.Errorf("second pass over %q numeral = %q, want empty", raw, numeral)
		}
		if twice != once {
			t.Errorf("second pass over %q text = %q, want %q", raw, twice, once)
		}
	}
}

func TestCollapseSpaces(t *testing.T) {
	got := CollapseSpaces("მთაზე\u00a0ქადაგება")
	if got != "მთაზე ქადაგება" {
		t.Errorf("CollapseSpaces() = %q", got)
	}
}
