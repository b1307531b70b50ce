// Package bot maps chat events to dialog steps and ledger reports, and
// carries them over Telegram.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gastos/internal/core"
	"gastos/internal/dialog"
	"gastos/internal/log"
	"gastos/internal/report"
	"gastos/internal/services"
)

// Selection data prefixes and values.
const (
	prefixOwner    = "owner:"
	prefixCategory = "category:"
	prefixEdit     = "edit:"
	prefixDelete   = "delete:"
	CloseConfirm   = "close:confirm"
	CloseCancel    = "close:cancel"
)

// summaryLinesPerPage keeps each summary keyboard at two buttons per line
// under Telegram's cap of 100.
const summaryLinesPerPage = 40

const (
	msgInvalidAmount      = "Digite um valor válido ou use (ajuda)."
	msgInvalidInstallment = "Digite um número de parcelas válido."
	msgEmptyLabel         = "Digite um nome válido."
	msgMissingState       = "Erro: valor ou quem gastou não definido."
	msgNotFound           = "Gasto não encontrado. Use (info) para ver a lista atualizada."
	msgInvalidOption      = "Opção inválida."
	msgFailure            = "Algo deu errado, tente novamente."
	msgUpdated            = "Gasto atualizado com sucesso!"
	msgDeleted            = "Gasto excluído com sucesso!"
	msgClosed             = "✅ Mês fechado!"
	msgCloseCancelled     = "Fechamento cancelado."
	msgInstallmentCount   = "Agora digite o número de parcelas:"
	msgFixedLabel         = "Digite o nome do gasto fixo:"
)

// Ledger is the read and delete surface the dispatcher uses directly.
// Entries are created and edited through the dialog tracker.
type Ledger interface {
	Snapshot(ctx context.Context) (*core.Ledger, error)
	Summary(ctx context.Context) (core.MonthOverview, error)
	Delete(ctx context.Context, id string) (core.Record, error)
	Rollover(ctx context.Context) (services.RolloverResult, error)
	CloseMonth(ctx context.Context) (services.RolloverResult, error)
}

type Dispatcher struct {
	ledger  Ledger
	tracker *dialog.Tracker
	logger  *log.Logger
}

func NewDispatcher(ledger Ledger, tracker *dialog.Tracker, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default(log.ComponentBot)
	}
	return &Dispatcher{ledger: ledger, tracker: tracker, logger: logger}
}

// HandleStart drops any dialog in progress, greets the user and applies any
// pending rollover.
func (d *Dispatcher) HandleStart(ctx context.Context, userID int64) Reply {
	d.tracker.Reset(userID)
	d.rollover(ctx)
	return text(report.MsgGreeting)
}

// HandleText routes commands to reports and everything else to the dialog.
func (d *Dispatcher) HandleText(ctx context.Context, userID int64, msg string) Reply {
	switch strings.ToLower(strings.TrimSpace(msg)) {
	case "info":
		return d.summary(ctx)
	case "ajuda", "help":
		return markdown(report.Help())
	case "gerar resumo", "generate summary":
		return d.export(ctx)
	case "fechamento", "closing":
		return d.closePreview(ctx)
	}

	step, err := d.tracker.Text(ctx, userID, msg)
	if err != nil {
		return d.failure(ctx, userID, err)
	}
	return d.render(step)
}

// HandleSelection handles inline button data.
func (d *Dispatcher) HandleSelection(ctx context.Context, userID int64, data string) Reply {
	switch {
	case strings.HasPrefix(data, prefixOwner):
		owner, err := core.ParseOwner(strings.TrimPrefix(data, prefixOwner))
		if err != nil {
			return text(msgInvalidOption)
		}
		step, err := d.tracker.SelectOwner(ctx, userID, owner)
		if err != nil {
			return d.failure(ctx, userID, err)
		}
		return d.render(step)

	case strings.HasPrefix(data, prefixCategory):
		category, err := core.ParseCategory(strings.TrimPrefix(data, prefixCategory))
		if err != nil {
			return text(msgInvalidOption)
		}
		step, err := d.tracker.SelectCategory(ctx, userID, category)
		if err != nil {
			return d.failure(ctx, userID, err)
		}
		return d.render(step)

	case strings.HasPrefix(data, prefixEdit):
		rec, err := d.tracker.BeginEdit(ctx, userID, strings.TrimPrefix(data, prefixEdit))
		if err != nil {
			return d.failure(ctx, userID, err)
		}
		name := rec.Label
		if name == "" {
			name = "gasto"
		}
		return text(fmt.Sprintf("Digite o novo valor para %s (atual %s):", name, core.FormatMoney(rec.Amount)))

	case strings.HasPrefix(data, prefixDelete):
		if _, err := d.ledger.Delete(ctx, strings.TrimPrefix(data, prefixDelete)); err != nil {
			return d.failure(ctx, userID, err)
		}
		return text(msgDeleted)

	case data == CloseConfirm:
		if _, err := d.ledger.CloseMonth(ctx); err != nil {
			return d.failure(ctx, userID, err)
		}
		return text(msgClosed)

	case data == CloseCancel:
		return text(msgCloseCancelled)
	}

	d.logger.WarnContext(ctx, "Unknown selection", log.FieldUserID, userID, "data", data)
	return text(msgInvalidOption)
}

func (d *Dispatcher) render(step dialog.Step) Reply {
	if step.Record != nil {
		if step.Edited {
			return text(msgUpdated)
		}
		return markdown(report.Registered(*step.Record))
	}

	st := step.State
	switch st.Stage {
	case dialog.StageAwaitingOwner:
		return Reply{
			Text:    fmt.Sprintf("Valor recebido: %s\nQuem fez esse gasto?", core.FormatMoney(st.Amount)),
			Options: [][]Option{ownerOptions()},
		}
	case dialog.StageAwaitingCategory:
		return Reply{
			Text:     fmt.Sprintf("Quem gastou: *%s*\nAgora escolha a categoria do gasto:", report.EscapeMarkdown(st.Owner.DisplayName())),
			Markdown: true,
			Options:  categoryOptions(),
		}
	case dialog.StageAwaitingFixedLabel:
		return text(msgFixedLabel)
	case dialog.StageAwaitingInstallmentLabel:
		return text(fmt.Sprintf("Digite o nome do produto para %s:", st.Category.Label()))
	case dialog.StageAwaitingInstallmentCount:
		return text(msgInstallmentCount)
	}
	return text(report.MsgGreeting)
}

func ownerOptions() []Option {
	row := make([]Option, 0, len(core.Owners))
	for _, o := range core.Owners {
		row = append(row, Option{Label: o.DisplayName(), Data: prefixOwner + string(o)})
	}
	return row
}

func categoryOptions() [][]Option {
	rows := make([][]Option, 0, len(core.Categories))
	for _, c := range core.Categories {
		rows = append(rows, []Option{{Label: c.Label(), Data: prefixCategory + string(c)}})
	}
	return rows
}

func (d *Dispatcher) rollover(ctx context.Context) {
	if _, err := d.ledger.Rollover(ctx); err != nil {
		d.logger.ErrorContext(ctx, "Passive rollover failed", log.FieldError, err)
	}
}

func (d *Dispatcher) summary(ctx context.Context) Reply {
	d.rollover(ctx)
	ov, err := d.ledger.Summary(ctx)
	if err != nil {
		return d.failure(ctx, 0, err)
	}
	var replies []Reply
	for _, page := range report.SummaryPages(ov, summaryLinesPerPage) {
		reply := markdown(page.Text)
		for _, line := range page.Lines {
			reply.Options = append(reply.Options, []Option{
				{Label: fmt.Sprintf("✏️ Editar %d", line.Position), Data: prefixEdit + line.Record.ID},
				{Label: fmt.Sprintf("🗑️ Excluir %d", line.Position), Data: prefixDelete + line.Record.ID},
			})
		}
		replies = append(replies, reply)
	}
	first := replies[0]
	first.More = replies[1:]
	return first
}

func (d *Dispatcher) closePreview(ctx context.Context) Reply {
	d.rollover(ctx)
	ov, err := d.ledger.Summary(ctx)
	if err != nil {
		return d.failure(ctx, 0, err)
	}
	body, ok := report.ClosePreview(ov)
	if !ok {
		return text(body)
	}
	reply := markdown(body)
	reply.Options = [][]Option{{
		{Label: "Sim", Data: CloseConfirm},
		{Label: "Não", Data: CloseCancel},
	}}
	return reply
}

func (d *Dispatcher) export(ctx context.Context) Reply {
	l, err := d.ledger.Snapshot(ctx)
	if err != nil {
		return d.failure(ctx, 0, err)
	}
	b, err := report.XLSX(l)
	if err != nil {
		return d.failure(ctx, 0, fmt.Errorf("render export: %w", err))
	}
	return Reply{Document: &Document{
		Name:      report.ExportFileName,
		MediaType: report.XLSXMediaType,
		Data:      b,
	}}
}

// failure turns an error into the message the user sees. Input problems are
// expected; anything else is logged.
func (d *Dispatcher) failure(ctx context.Context, userID int64, err error) Reply {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return text(msgInvalidAmount)
	case errors.Is(err, core.ErrNotAnInteger), errors.Is(err, core.ErrInvalidInstallmentCount):
		return text(msgInvalidInstallment)
	case errors.Is(err, core.ErrEmptyLabel):
		return text(msgEmptyLabel)
	case errors.Is(err, core.ErrMissingPrecondition):
		return text(msgMissingState)
	case errors.Is(err, core.ErrRecordNotFound):
		return text(msgNotFound)
	case errors.Is(err, core.ErrUnknownOwner), errors.Is(err, core.ErrUnknownCategory):
		return text(msgInvalidOption)
	}
	d.logger.ErrorContext(ctx, "Request failed", log.FieldUserID, userID, log.FieldError, err)
	return text(msgFailure)
}
