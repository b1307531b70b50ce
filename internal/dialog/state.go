package dialog

import (
	"gastos/internal/core"

	"github.com/shopspring/decimal"
)

// Stage is where a user is in the entry dialog.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitingOwner
	StageAwaitingCategory
	StageAwaitingFixedLabel
	StageAwaitingInstallmentLabel
	StageAwaitingInstallmentCount
	StageEditing
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAwaitingOwner:
		return "awaiting_owner"
	case StageAwaitingCategory:
		return "awaiting_category"
	case StageAwaitingFixedLabel:
		return "awaiting_fixed_label"
	case StageAwaitingInstallmentLabel:
		return "awaiting_installment_label"
	case StageAwaitingInstallmentCount:
		return "awaiting_installment_count"
	case StageEditing:
		return "editing"
	default:
		return "unknown"
	}
}

// State is one user's in-progress dialog.
type State struct {
	Stage    Stage
	Amount   decimal.Decimal
	Owner    core.Owner
	Category core.Category
	Label    string
	EditID   string
}

func (st State) draft() core.Draft {
	return core.Draft{
		Owner:    st.Owner,
		Category: st.Category,
		Amount:   st.Amount,
		Label:    st.Label,
	}
}
