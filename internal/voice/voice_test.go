package voice

import (
	"testing"

	"github.com/iabetor/duotts/internal/script"
)

func TestResolver_DefaultTable(t *testing.T) {
	r, err := NewResolver(nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	tests := []struct {
		s    script.Script
		h    Hint
		want Params
	}{
		{script.ScriptLatin, HintAuto, Params{"en", "com"}},
		{script.ScriptLatin, HintMale, Params{"en", "co.uk"}},
		{script.ScriptLatin, HintHost, Params{"en", "com.au"}},
		{script.ScriptHan, HintAuto, Params{"zh-CN", "com"}},
		{script.ScriptHan, HintMale, Params{"zh-TW", "com"}},
		{script.ScriptHan, HintHost, Params{"zh-CN", "com.hk"}},
		{script.ScriptHan, Hint("robot"), Params{"zh-CN", "com"}},
	}
	for _, tt := range tests {
		got, err := r.Resolve(tt.s, tt.h)
		if err != nil {
			t.Errorf("Resolve(%s, %s): %v", tt.s, tt.h, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%s, %s) = %+v, want %+v", tt.s, tt.h, got, tt.want)
		}
	}
}

func TestResolver_UnsupportedScript(t *testing.T) {
	r, _ := NewResolver(nil)
	if _, err := r.Resolve(script.ScriptNone, HintAuto); err == nil {
		t.Fatal("expected error for ScriptNone")
	}
}

func TestResolver_Overrides(t *testing.T) {
	r, err := NewResolver(map[string]map[string]Params{
		"latin": {"male": {Language: "en", Region: "co.in"}},
		"han":   {"narrator": {Language: "zh-TW", Region: "com.tw"}},
	})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if got, _ := r.Resolve(script.ScriptLatin, HintMale); got.Region != "co.in" {
		t.Errorf("override not applied: %+v", got)
	}
	if got, _ := r.Resolve(script.ScriptHan, Hint("narrator")); got.Language != "zh-TW" {
		t.Errorf("new hint not applied: %+v", got)
	}

	if _, err := NewResolver(map[string]map[string]Params{"cyrillic": {"auto": {Language: "ru"}}}); err == nil {
		t.Error("expected error for unknown script")
	}
	if _, err := NewResolver(map[string]map[string]Params{"en": {"auto": {Region: "com"}}}); err == nil {
		t.Error("expected error for missing language")
	}
}

func TestParseHint(t *testing.T) {
	tests := map[string]Hint{
		"female":  HintFemale,
		" MALE ":  HintMale,
		"host":    HintHost,
		"":        HintAuto,
		"unknown": HintAuto,
	}
	for in, want := range tests {
		if got := ParseHint(in); got != want {
			t.Errorf("ParseHint(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestCurrent5_FactorsStrictlyIncreasing(t *testing.T) {
	want := []float64{0.5, 0.7, 1.0, 1.3, 1.6}
	if Current5.Levels() != len(want) {
		t.Fatalf("levels = %d, want %d", Current5.Levels(), len(want))
	}
	for i, f := range want {
		if got := Current5.Factor(Level(i)); got != f {
			t.Errorf("Factor(%d) = %v, want %v", i, got, f)
		}
		if i > 0 && Current5.Factor(Level(i)) <= Current5.Factor(Level(i-1)) {
			t.Errorf("factor %d not greater than factor %d", i, i-1)
		}
	}
}

func TestSpeedTable_NormalAndSlow(t *testing.T) {
	if !Current5.IsNormal(2) || Current5.Factor(2) != 1.0 {
		t.Error("level 2 should be the identity level in current5")
	}
	if !Legacy3.IsNormal(1) || Legacy3.Factor(1) != 1.0 {
		t.Error("level 1 should be the identity level in legacy3")
	}

	slow5 := []bool{true, true, false, false, false}
	for i, want := range slow5 {
		if got := Current5.Slow(Level(i)); got != want {
			t.Errorf("current5 Slow(%d) = %v, want %v", i, got, want)
		}
	}
	slow3 := []bool{true, false, false}
	for i, want := range slow3 {
		if got := Legacy3.Slow(Level(i)); got != want {
			t.Errorf("legacy3 Slow(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestSpeedTable_OutOfRangeIsNormal(t *testing.T) {
	for _, l := range []Level{-1, 5, 99} {
		got, ok := Current5.Normalize(l)
		if ok || got != 2 {
			t.Errorf("Normalize(%d) = %d, %v; want 2, false", l, got, ok)
		}
		if Current5.Factor(l) != 1.0 {
			t.Errorf("Factor(%d) = %v, want 1.0", l, Current5.Factor(l))
		}
	}
	if Current5.Label(0) != "最慢" || Legacy3.Label(2) != "快速" {
		t.Error("unexpected labels")
	}
}

func TestLookupTable(t *testing.T) {
	if tbl, err := LookupTable("legacy3"); err != nil || tbl.Levels() != 3 {
		t.Errorf("legacy3: %v %d", err, tbl.Levels())
	}
	if tbl, err := LookupTable(""); err != nil || tbl.Name != "current5" {
		t.Errorf("default: %v %s", err, tbl.Name)
	}
	if _, err := LookupTable("seven"); err == nil {
		t.Error("expected error for unknown table")
	}
}
