package model

import (
	"strconv"
	"strings"
)

// FlowKind selects one of the two supported listing dialogs.
type FlowKind string

const (
	FlowSell FlowKind = "sell"
	FlowBuy  FlowKind = "buy"
)

func (k FlowKind) Valid() bool { return k == FlowSell || k == FlowBuy }

// InputKind tells the dialog engine what kind of inbound event a step expects.
type InputKind int

const (
	InputText InputKind = iota
	InputChoice
)

// ChoiceManual is the reserved callback value for the "enter manually" escape
// on choice steps. Selecting it keeps the step but switches it to free text.
const ChoiceManual = "manual"

// Step is one data-collection step of a flow.
type Step struct {
	Field     string    // key the answer is stored under
	Label     string    // line label in the rendered post
	PromptKey string    // i18n key of the prompt text
	Input     InputKind
	Choices   []string  // for InputChoice steps
	Currency  bool      // display-only ₽ formatting in the rendered post
}

// Operators offered as buttons on the operator steps.
var Operators = []string{"МТС", "Билайн", "МегаФон", "Tele2"}

var sellSteps = []Step{
	{Field: "operator", Label: "Оператор", PromptKey: "prompt_sell_operator", Input: InputChoice, Choices: Operators},
	{Field: "region", Label: "Регион", PromptKey: "prompt_sell_region"},
	{Field: "number", Label: "Номер", PromptKey: "prompt_sell_number"},
	{Field: "price", Label: "Цена", PromptKey: "prompt_sell_price", Currency: true},
	{Field: "contact", Label: "Контакт", PromptKey: "prompt_sell_contact"},
}

var buySteps = []Step{
	{Field: "pattern", Label: "Номер", PromptKey: "prompt_buy_pattern"},
	{Field: "operator", Label: "Оператор", PromptKey: "prompt_buy_operator", Input: InputChoice, Choices: Operators},
	{Field: "budget", Label: "Бюджет", PromptKey: "prompt_buy_budget", Currency: true},
	{Field: "region", Label: "Регион", PromptKey: "prompt_buy_region"},
	{Field: "contact", Label: "Контакт", PromptKey: "prompt_buy_contact"},
	{Field: "comment", Label: "Комментарий", PromptKey: "prompt_buy_comment"},
}

// Steps returns the ordered step list of a flow. The order is fixed: it defines
// both the dialog sequence and the line order of the rendered post.
func Steps(kind FlowKind) []Step {
	switch kind {
	case FlowSell:
		return sellSteps
	case FlowBuy:
		return buySteps
	default:
		return nil
	}
}

const (
	sellPostHeader = "📞 *Продажа красивого номера*"
	buyPostHeader  = "🔎 *Запрос на покупку номера*"
)

// RenderPost builds the final Markdown post from collected fields. The same
// function produces the confirmation preview, so what the user approves is
// byte-for-byte what gets broadcast.
func RenderPost(kind FlowKind, fields map[string]string) string {
	var b strings.Builder
	if kind == FlowBuy {
		b.WriteString(buyPostHeader)
	} else {
		b.WriteString(sellPostHeader)
	}
	for _, st := range Steps(kind) {
		v := strings.TrimSpace(fields[st.Field])
		if v == "" {
			continue
		}
		if st.Currency {
			v = FormatRUB(v)
		}
		b.WriteString("\n")
		b.WriteString(st.Label)
		b.WriteString(": ")
		b.WriteString(v)
	}
	return b.String()
}

// FormatRUB pretty-prints a numeric amount with thousands separators and the
// ruble sign. Non-numeric input is returned as entered: the stored value is
// always the raw string, formatting is display-only.
func FormatRUB(raw string) string {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return raw
	}
	n := len(s)
	if n <= 3 {
		return s + " ₽"
	}
	var b strings.Builder
	pre := n % 3
	if pre == 0 {
		pre = 3
	}
	b.WriteString(s[:pre])
	for i := pre; i < n; i += 3 {
		b.WriteString(" ")
		b.WriteString(s[i : i+3])
	}
	return b.String() + " ₽"
}
