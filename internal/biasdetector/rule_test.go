package biasdetector

import (
	"testing"

	"talk-less/internal/config"
)

func TestCompile_DefaultsConfidenceAndWeightPerKind(t *testing.T) {
	cfg := &config.BiasRulesConfig{
		LoadedWords:     []config.RuleEntry{{Pattern: "slammed", Scope: "any"}},
		FramingPatterns: []config.RuleEntry{{Pattern: "shocking", Scope: "title"}},
	}
	rs, err := Compile(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rs.rules) != 2 {
		t.Fatalf("expected 2 compiled rules, got %d", len(rs.rules))
	}
	for _, r := range rs.rules {
		if r.weight != 1.0 {
			t.Errorf("expected default weight 1.0, got %v", r.weight)
		}
	}
}

func TestCompile_RejectsInvalidRegex(t *testing.T) {
	cfg := &config.BiasRulesConfig{
		AttributionPatterns: []config.RuleEntry{{Pattern: "sources say(", Scope: "body"}},
	}
	if _, err := Compile(cfg); err == nil {
		t.Fatal("expected compile error for invalid regex")
	}
}

func TestCompile_LoadedWordsMatchOnWordBoundary(t *testing.T) {
	cfg := &config.BiasRulesConfig{
		LoadedWords: []config.RuleEntry{{Pattern: "slam", Scope: "any"}},
	}
	rs, err := Compile(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.rules[0].pattern.MatchString("slammed") {
		t.Error("expected word-boundary match to reject a substring hit inside a longer word")
	}
	if !rs.rules[0].pattern.MatchString("he will slam the door") {
		t.Error("expected word-boundary match to accept the standalone word")
	}
}
