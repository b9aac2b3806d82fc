//go:build !integration

package model

import (
	"strings"
	"testing"
)

func TestRenderPostSell(t *testing.T) {
	fields := map[string]string{
		"operator": "МТС",
		"region":   "Москва",
		"number":   "+7 900 123-45-67",
		"price":    "150000",
		"contact":  "@seller",
	}
	got := RenderPost(FlowSell, fields)
	want := "📞 *Продажа красивого номера*\n" +
		"Оператор: МТС\n" +
		"Регион: Москва\n" +
		"Номер: +7 900 123-45-67\n" +
		"Цена: 150 000 ₽\n" +
		"Контакт: @seller"
	if got != want {
		t.Fatalf("rendered post mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestRenderPostBuyHeader(t *testing.T) {
	got := RenderPost(FlowBuy, map[string]string{"pattern": "888 в конце"})
	if !strings.HasPrefix(got, "🔎 *Запрос на покупку номера*") {
		t.Fatalf("unexpected buy header: %q", got)
	}
	if !strings.Contains(got, "Номер: 888 в конце") {
		t.Fatalf("pattern line missing: %q", got)
	}
}

func TestRenderPostSkipsEmptyFields(t *testing.T) {
	got := RenderPost(FlowBuy, map[string]string{
		"pattern": "777",
		"comment": "   ",
	})
	if strings.Contains(got, "Комментарий") {
		t.Fatalf("blank field must be omitted: %q", got)
	}
}

func TestRenderPostDeterministic(t *testing.T) {
	fields := map[string]string{
		"operator": "Tele2",
		"region":   "СПб",
		"number":   "+7 911 000-00-00",
		"price":    "5000",
		"contact":  "@x",
	}
	first := RenderPost(FlowSell, fields)
	for i := 0; i < 10; i++ {
		if RenderPost(FlowSell, fields) != first {
			t.Fatal("identical fields must render identically")
		}
	}
}

func TestFormatRUB(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"999", "999 ₽"},
		{"1000", "1 000 ₽"},
		{"150000", "150 000 ₽"},
		{"1234567", "1 234 567 ₽"},
		{"12 000", "12 000 ₽"},
		{"договорная", "договорная"},
		{"1500р", "1500р"},
	}
	for _, c := range cases {
		if got := FormatRUB(c.in); got != c.want {
			t.Errorf("FormatRUB(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStepsCoverAllFields(t *testing.T) {
	for _, kind := range []FlowKind{FlowSell, FlowBuy} {
		steps := Steps(kind)
		if len(steps) == 0 {
			t.Fatalf("no steps for %s", kind)
		}
		seen := map[string]bool{}
		for _, st := range steps {
			if st.Field == "" || st.Label == "" || st.PromptKey == "" {
				t.Fatalf("incomplete step in %s: %+v", kind, st)
			}
			if seen[st.Field] {
				t.Fatalf("duplicate field %q in %s", st.Field, kind)
			}
			seen[st.Field] = true
			if st.Input == InputChoice && len(st.Choices) == 0 {
				t.Fatalf("choice step %q has no choices", st.Field)
			}
		}
	}
	if Steps(FlowKind("unknown")) != nil {
		t.Fatal("unknown flow must have no steps")
	}
}
