package user

import "testing"

func TestIsAdmin(t *testing.T) {
	cases := []struct {
		name   string
		claims map[string]any
		want   bool
	}{
		{"nil", nil, false},
		{"flag", map[string]any{"admin": true}, true},
		{"flag false", map[string]any{"admin": false}, false},
		{"role", map[string]any{"role": "admin"}, true},
		{"roles", map[string]any{"roles": []interface{}{"member", "admin"}}, true},
		{"other role", map[string]any{"role": "driver"}, false},
	}
	for _, c := range cases {
		if got := IsAdmin(c.claims); got != c.want {
			t.Errorf("%s: got %v", c.name, got)
		}
	}
}

func TestContactMergeAndTrim(t *testing.T) {
	c := Contact{Name: " Sara ", Phone: "070 123 45 67", Email: " Sara@Example.SE "}
	c.Trim()
	if c.Name != "Sara" || c.Phone != "0701234567" || c.Email != "sara@example.se" {
		t.Fatalf("trim: %+v", c)
	}

	merged := Contact{Phone: "0709"}.Merge(c)
	if merged.Phone != "0709" || merged.Email != "sara@example.se" || merged.Name != "Sara" {
		t.Errorf("merge: %+v", merged)
	}
	if !(Contact{Name: "only name"}).IsZero() {
		t.Error("contact without phone or email should be zero")
	}
}
