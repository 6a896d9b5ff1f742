package envfile

import (
	"reflect"
	"strings"
	"testing"
)

func TestSubstituteReplacesWholeLine(t *testing.T) {
	lines := []string{"APP_URL=", "DB_HOST=old.example", "APP_DEBUG=false"}
	values := map[string]string{
		"APP_URL": "https://example.com/",
		"DB_HOST": "db.test.internal",
	}

	got := Substitute(lines, values)

	if got[0] != "APP_URL=https://example.com/" {
		t.Fatalf("APP_URL line = %q", got[0])
	}
	if got[1] != "DB_HOST=db.test.internal" {
		t.Fatalf("DB_HOST line = %q", got[1])
	}
	if got[2] != "APP_DEBUG=false" {
		t.Fatalf("untracked line changed: %q", got[2])
	}
}

func TestSubstituteIsIdempotent(t *testing.T) {
	lines := strings.Split(DefaultTemplate, "\n")
	values := Settings{
		AppEnv:     "production",
		Domain:     "example.com",
		DBHost:     "db.test.internal",
		DBDatabase: "app",
		DBUsername: "app",
		DBPassword: "secret",
	}.Values()

	once := Substitute(lines, values)
	twice := Substitute(once, values)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second pass changed output:\n%v\nvs\n%v", once, twice)
	}
}

func TestSubstituteLeavesUnmatchedLinesAlone(t *testing.T) {
	lines := []string{"# comment", "", "NOEQUALS", "OTHER_KEY=keepme"}
	got := Substitute(lines, map[string]string{"DB_HOST": "db"})
	if !reflect.DeepEqual(got, lines) {
		t.Fatalf("unmatched lines changed: %v", got)
	}
}

func TestSubstituteKeyMatchIsExact(t *testing.T) {
	// DB_USERNAME must not be rewritten by a DB_USER value.
	lines := []string{"DB_USERNAME=app"}
	got := Substitute(lines, map[string]string{"DB_USER": "root"})
	if got[0] != "DB_USERNAME=app" {
		t.Fatalf("prefix key leaked into longer key: %q", got[0])
	}
}

func TestSubstituteDelimiterInValueIsDeterministic(t *testing.T) {
	// A value carrying the delimiter corrupts the line on re-parse; the output
	// itself must still be stable and exact.
	lines := []string{"DB_PASSWORD="}
	got := Substitute(lines, map[string]string{"DB_PASSWORD": "a=b"})
	if got[0] != "DB_PASSWORD=a=b" {
		t.Fatalf("embedded delimiter output = %q", got[0])
	}

	again := Substitute(got, map[string]string{"DB_PASSWORD": "a=b"})
	if again[0] != "DB_PASSWORD=a=b" {
		t.Fatalf("embedded delimiter not stable: %q", again[0])
	}
}

func TestSubstituteNewlineInValueChangesLineCount(t *testing.T) {
	content := "DB_PASSWORD=\nAPP_DEBUG=false"
	rendered := Render(content, map[string]string{"DB_PASSWORD": "p\nq"})
	if rendered != "DB_PASSWORD=p\nq\nAPP_DEBUG=false" {
		t.Fatalf("newline value render = %q", rendered)
	}
}

func TestSubstituteRewritesEveryMatchingLine(t *testing.T) {
	lines := []string{"DB_HOST=a", "DB_HOST=b"}
	got := Substitute(lines, map[string]string{"DB_HOST": "c"})
	if got[0] != "DB_HOST=c" || got[1] != "DB_HOST=c" {
		t.Fatalf("duplicate key lines = %v", got)
	}
}

func TestRenderDomainScenario(t *testing.T) {
	values := Settings{Domain: "example.com"}.Values()
	rendered := Render("APP_URL=", values)
	if rendered != "APP_URL=https://example.com/" {
		t.Fatalf("rendered = %q", rendered)
	}
}

func TestRenderDatabaseEndpointScenario(t *testing.T) {
	values := Settings{DBHost: "db.test.internal"}.Values()
	rendered := Render("DB_HOST=", values)
	if rendered != "DB_HOST=db.test.internal" {
		t.Fatalf("rendered = %q", rendered)
	}
}

func TestSettingsValuesOmitEmptyFields(t *testing.T) {
	values := Settings{AppEnv: "staging"}.Values()
	if len(values) != 1 {
		t.Fatalf("expected only APP_ENV, got %v", values)
	}
	if values["APP_ENV"] != "staging" {
		t.Fatalf("APP_ENV = %q", values["APP_ENV"])
	}
}
