package llm

import (
	"testing"
)

func TestCleanResponse_PlainSQL(t *testing.T) {
	input := "SELECT 1"
	if got := CleanResponse(input); got != input {
		t.Errorf("expected %q, got %q", input, got)
	}
}

func TestCleanResponse_MarkdownFence(t *testing.T) {
	input := "```sql\nSELECT aqi FROM dat_city_day\n```"
	expected := "SELECT aqi FROM dat_city_day"
	if got := CleanResponse(input); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestCleanResponse_BareFence(t *testing.T) {
	input := "```\nSELECT 1\n```"
	if got := CleanResponse(input); got != "SELECT 1" {
		t.Errorf("expected %q, got %q", "SELECT 1", got)
	}
}

func TestCleanResponse_LeadingLanguageTag(t *testing.T) {
	input := "sql\nSELECT name FROM bsd_station"
	expected := "SELECT name FROM bsd_station"
	if got := CleanResponse(input); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestCleanResponse_KeepsSQLPrefixedIdentifiers(t *testing.T) {
	input := "sqlite_master is not a table here"
	if got := CleanResponse(input); got != input {
		t.Errorf("expected %q, got %q", input, got)
	}
}

func TestCleanResponse_Whitespace(t *testing.T) {
	input := "  \n SELECT 1 \n"
	if got := CleanResponse(input); got != "SELECT 1" {
		t.Errorf("expected %q, got %q", "SELECT 1", got)
	}
}

func TestExtractObject_WrapperText(t *testing.T) {
	input := `Here are the entities: {"locations": ["凤凰山"]} hope that helps`
	expected := `{"locations": ["凤凰山"]}`
	got, ok := ExtractObject(input)
	if !ok {
		t.Fatal("expected an object")
	}
	if got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestExtractObject_NoObject(t *testing.T) {
	if _, ok := ExtractObject("no braces at all"); ok {
		t.Error("expected no object")
	}
}

func TestExtractObject_FirstToLastBrace(t *testing.T) {
	input := `{"a": {"b": 1}}`
	got, ok := ExtractObject(input)
	if !ok || got != input {
		t.Errorf("expected %q, got %q (ok=%v)", input, got, ok)
	}
}
