package middleware

import (
	"encoding/json"
	"testing"
)

func TestNormalizeArguments(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		wantChanged bool
		wantKey     string
		wantValue   string
	}{
		{
			name:        "string-encoded array repaired",
			in:          `{"message_ids":"[\"m1\",\"m2\"]"}`,
			wantChanged: true,
			wantKey:     "message_ids",
			wantValue:   `["m1","m2"]`,
		},
		{
			name:        "leading whitespace trimmed",
			in:          `{"ids":"  [\"a\"]"}`,
			wantChanged: true,
			wantKey:     "ids",
			wantValue:   `["a"]`,
		},
		{
			name:        "real array untouched",
			in:          `{"message_ids":["m1","m2"]}`,
			wantChanged: false,
		},
		{
			name:        "plain string untouched",
			in:          `{"query":"from:me [urgent]"}`,
			wantChanged: false,
		},
		{
			name:        "bracket string that is not JSON untouched",
			in:          `{"query":"[not json"}`,
			wantChanged: false,
		},
		{
			name:        "non-object input untouched",
			in:          `["m1","m2"]`,
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := normalizeArguments(json.RawMessage(tt.in))
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if !tt.wantChanged {
				if string(got) != tt.in {
					t.Errorf("unchanged input was rewritten: %s", got)
				}
				return
			}

			var args map[string]json.RawMessage
			if err := json.Unmarshal(got, &args); err != nil {
				t.Fatalf("result is not a JSON object: %v", err)
			}
			if string(args[tt.wantKey]) != tt.wantValue {
				t.Errorf("args[%q] = %s, want %s", tt.wantKey, args[tt.wantKey], tt.wantValue)
			}
		})
	}
}

func TestNormalizeArgumentsPreservesOtherKeys(t *testing.T) {
	in := json.RawMessage(`{"user_google_email":"u@test.com","message_ids":"[\"m1\"]","confirm":true}`)
	got, changed := normalizeArguments(in)
	if !changed {
		t.Fatal("expected a rewrite")
	}

	var args map[string]json.RawMessage
	if err := json.Unmarshal(got, &args); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(args["user_google_email"]) != `"u@test.com"` {
		t.Errorf("sibling string mangled: %s", args["user_google_email"])
	}
	if string(args["confirm"]) != "true" {
		t.Errorf("sibling bool mangled: %s", args["confirm"])
	}
	if string(args["message_ids"]) != `["m1"]` {
		t.Errorf("array not repaired: %s", args["message_ids"])
	}
}
