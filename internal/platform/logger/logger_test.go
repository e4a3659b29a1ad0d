package logger

import "testing"

func TestRedactorDropsTaxIdentifiers(t *testing.T) {
	r := newRedactor("true", "")

	out := r.kvs([]interface{}{"tax_id", "123-45-6789", "company", "Acme LLC", "EIN", "12-3456789"})
	if len(out) != 6 {
		t.Fatalf("len: want=6 got=%d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("tax_id: want redacted got=%v", out[1])
	}
	if out[3] != "Acme LLC" {
		t.Fatalf("company: want passthrough got=%v", out[3])
	}
	if out[5] != "[REDACTED]" {
		t.Fatalf("EIN: want redacted got=%v", out[5])
	}
}

func TestRedactorHashesRequesterIDs(t *testing.T) {
	r := newRedactor("", "salt")
	out := r.kvs([]interface{}{"requester_id", "u-1", "storage_key", "vaults/u-1/acme/formation/a.pdf"})
	got, ok := out[1].(string)
	if !ok || len(got) != len("hash:")+12 {
		t.Fatalf("requester_id: expected hashed value, got=%v", out[1])
	}
	if again := r.kvs([]interface{}{"requester_id", "u-1"})[1]; again != got {
		t.Fatalf("hash not stable: want=%v got=%v", got, again)
	}
	if out[3] != "vaults/u-1/acme/formation/a.pdf" {
		t.Fatalf("storage_key: want passthrough got=%v", out[3])
	}
}

func TestRedactorWalksNestedValues(t *testing.T) {
	r := newRedactor("yes", "")
	out := r.kvs([]interface{}{"party", map[string]interface{}{"name": "Jane", "SSN": "000-00-0000"}})
	m, ok := out[1].(map[string]interface{})
	if !ok {
		t.Fatalf("party: want map got=%T", out[1])
	}
	if m["SSN"] != "[REDACTED]" || m["name"] != "Jane" {
		t.Fatalf("party: got=%v", m)
	}
}

func TestRedactorDisabled(t *testing.T) {
	r := newRedactor("off", "")
	out := r.kvs([]interface{}{"tax_id", "123"})
	if out[1] != "123" {
		t.Fatalf("disabled: want passthrough got=%v", out[1])
	}
}

func TestRedactorOddLength(t *testing.T) {
	out := newRedactor("", "").kvs([]interface{}{"status", "ok", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %v", out)
	}
}
