package errorreporting

import "testing"

func TestSetupWithoutDSN(t *testing.T) {
	if Setup(Options{}) {
		t.Fatal("expected reporting to stay disabled without a DSN")
	}
	Flush()
}

func TestSetupRejectsMalformedDSN(t *testing.T) {
	if Setup(Options{DSN: "not a dsn", SampleRate: 1}) {
		t.Fatal("expected malformed DSN to fail")
	}
}
