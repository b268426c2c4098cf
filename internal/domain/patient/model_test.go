package patient

import (
	"encoding/json"
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1990-04-12", "1990-04-12", false},
		{"12-04-1990", "1990-04-12", false},
		{"1990-04-12T23:30:00+05:00", "1990-04-12", false},
		{"04/12/1990", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.String() != tt.want {
				t.Errorf("got %s, want %s", d, tt.want)
			}
		})
	}
}

func TestDate_JSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"31-12-2001"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, _ := json.Marshal(d)
	if string(out) != `"2001-12-31"` {
		t.Errorf("got %s", out)
	}
}

func TestParseGender(t *testing.T) {
	tests := map[string]Gender{
		"male":    GenderMale,
		"MALE":    GenderMale,
		" Male ":  GenderMale,
		"female":  GenderFemale,
		"1":       GenderMale,
		"2":       GenderFemale,
		"other":   DefaultGender,
		"":        DefaultGender,
		"unknown": DefaultGender,
	}
	for in, want := range tests {
		if got := ParseGender(in); got != want {
			t.Errorf("ParseGender(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLookupGender_RejectsUnknown(t *testing.T) {
	if _, ok := LookupGender("3"); ok {
		t.Error("expected 3 to be rejected")
	}
	if _, ok := LookupGender("x"); ok {
		t.Error("expected x to be rejected")
	}
}

func TestGender_JSON(t *testing.T) {
	var g Gender
	if err := json.Unmarshal([]byte(`1`), &g); err != nil || g != GenderMale {
		t.Errorf("numeric code: got %v, %v", g, err)
	}
	if err := json.Unmarshal([]byte(`"female"`), &g); err != nil || g != GenderFemale {
		t.Errorf("name: got %v, %v", g, err)
	}
	out, _ := json.Marshal(GenderMale)
	if string(out) != `"male"` {
		t.Errorf("got %s", out)
	}
}

func TestFilter_Values(t *testing.T) {
	g := GenderMale
	v := Filter{LastName: "Doe", Gender: &g}.Values()
	if v["lastname"] != "Doe" || v["gender"] != "male" {
		t.Errorf("unexpected values: %v", v)
	}
	if v["firstname"] != "" {
		t.Errorf("expected empty firstname, got %q", v["firstname"])
	}
}
