package i18n

import (
	"testing"
	"testing/fstest"
)

func TestTranslator(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/ru.yaml": &fstest.MapFile{Data: []byte("hello: \"Привет, %s!\"\nplain: \"Текст\"\n")},
	}

	tr, err := NewTranslator(fsys, "ru")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}

	if got := tr.T("plain"); got != "Текст" {
		t.Errorf("plain key: got %q", got)
	}
	if got := tr.T("hello", "мир"); got != "Привет, мир!" {
		t.Errorf("formatted key: got %q", got)
	}
	if got := tr.T("missing_key"); got != "missing_key" {
		t.Errorf("missing key should fall back to itself, got %q", got)
	}
}

func TestEmbeddedLocaleParses(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, "ru")
	if err != nil {
		t.Fatalf("embedded ru locale: %v", err)
	}
	for _, key := range []string{"welcome_message", "published", "cancelled", "gate_missing_header"} {
		if tr.T(key) == key {
			t.Errorf("embedded locale missing key %q", key)
		}
	}
}
