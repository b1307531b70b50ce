package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gastos/internal/core"
)

const (
	MsgNoExpenses = "Nenhum gasto registrado neste mês."
	MsgGreeting   = "Olá! Digite um valor para registrar um gasto, ou use (ajuda) para ver os comandos."
)

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// EscapeMarkdown escapes user text for Telegram's legacy Markdown mode.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// MaxMessageRunes is Telegram's limit on a text message.
const MaxMessageRunes = 4096

// SummaryPage is one message of a paged summary and the lines it lists.
type SummaryPage struct {
	Text  string
	Lines []core.SummaryLine
}

// SummaryPages splits the overview into messages of at most perPage lines
// and MaxMessageRunes runes. The header opens the first page and the total
// closes the last one.
func SummaryPages(ov core.MonthOverview, perPage int) []SummaryPage {
	const header = "📊 *RESUMO DO MÊS*\n\n"
	total := fmt.Sprintf("\n💰 *TOTAL DO MÊS:* %s", core.FormatMoney(ov.Total))
	if len(ov.Lines) == 0 {
		return []SummaryPage{{Text: header + MsgNoExpenses + "\n" + total}}
	}
	if perPage < 1 {
		perPage = 1
	}

	var pages []SummaryPage
	cur := SummaryPage{Text: header}
	for _, line := range ov.Lines {
		entry := fmt.Sprintf("%d. %s\n", line.Position, describe(line))
		full := len(cur.Lines) >= perPage ||
			utf8.RuneCountInString(cur.Text)+utf8.RuneCountInString(entry) > MaxMessageRunes
		if full && len(cur.Lines) > 0 {
			pages = append(pages, cur)
			cur = SummaryPage{}
		}
		cur.Text += entry
		cur.Lines = append(cur.Lines, line)
	}
	if utf8.RuneCountInString(cur.Text)+utf8.RuneCountInString(total) > MaxMessageRunes {
		pages = append(pages, cur)
		cur = SummaryPage{}
	}
	cur.Text += total
	return append(pages, cur)
}

// ClosePreview renders the listing the user confirms before closing the
// month. ok is false when there is nothing to close.
func ClosePreview(ov core.MonthOverview) (text string, ok bool) {
	if len(ov.Lines) == 0 {
		return MsgNoExpenses, false
	}
	var b strings.Builder
	b.WriteString("📌 *FECHAMENTO DO MÊS*\n\n")
	for _, line := range ov.Lines {
		b.WriteString(describe(line))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n💰 *TOTAL DO MÊS:* %s\n\nConfirmar fechamento?", core.FormatMoney(ov.Total))
	return b.String(), true
}

func describe(line core.SummaryLine) string {
	r := line.Record
	parts := []string{"👤 *" + EscapeMarkdown(r.Owner.DisplayName()) + "*"}
	if r.Label != "" {
		parts = append(parts, "*"+EscapeMarkdown(r.Label)+"*")
	}
	parts = append(parts, r.Category.Label())
	if r.IsInstallment() {
		parts = append(parts, fmt.Sprintf("%s (parcela do mês) (%d restantes)",
			core.FormatMoney(line.Amount), r.InstallmentsRemaining))
	} else {
		parts = append(parts, core.FormatMoney(line.Amount))
	}
	return strings.Join(parts, " - ")
}

// Help lists the commands the bot understands.
func Help() string {
	return "📘 *COMANDOS DISPONÍVEIS*\n" +
		"- Digite um valor → o bot pergunta quem gastou\n" +
		"- Depois pergunta a categoria\n" +
		"- info → ver gastos detalhados\n" +
		"- gerar resumo → baixar planilha Excel\n" +
		"- fechamento → finalizar mês e atualizar parcelas\n"
}

// Registered confirms a new record the way the dialog finished it.
func Registered(r core.Record) string {
	owner := EscapeMarkdown(r.Owner.DisplayName())
	switch {
	case r.IsInstallment():
		return fmt.Sprintf("💳 Compra Registrada!\n👤 Quem: %s\nProduto: *%s*\nTotal: %s\n%dx de %s",
			owner, EscapeMarkdown(r.Label), core.FormatMoney(r.Amount),
			r.InstallmentCount, core.FormatMoney(r.InstallmentAmount))
	case r.Category.IsFixed():
		return fmt.Sprintf("💼 Gasto Fixo Registrado!\n👤 Quem: %s\n🔠 Nome: *%s*\nValor: %s",
			owner, EscapeMarkdown(r.Label), core.FormatMoney(r.Amount))
	default:
		return fmt.Sprintf("Gasto registrado!\n👤 Quem: %s\n💸 Categoria: %s\nValor: %s",
			owner, r.Category.Label(), core.FormatMoney(r.Amount))
	}
}
