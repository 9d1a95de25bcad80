package core

// Kind tags a ledger entry. The set is closed: ParseKind maps stored strings
// onto it and anything unrecognised becomes KindUnknown.
type Kind string

const (
	KindDeposit          Kind = "deposit"
	KindWithdrawal       Kind = "withdrawal"
	KindTransfer         Kind = "transfer" // legacy expense tag
	KindTransferIn       Kind = "transfer_in"
	KindTransferOut      Kind = "transfer_out"
	KindCardDeposit      Kind = "card_deposit"
	KindCardCreation     Kind = "card_creation"
	KindCardDeletion     Kind = "card_deletion"
	KindEnvelopeDeposit  Kind = "envelope_deposit"
	KindSavingsDeposit   Kind = "savings_deposit"
	KindSavingsTransfer  Kind = "savings_transfer" // legacy name of savings_deposit
	KindSavingsReturn    Kind = "savings_return"
	KindSavingsCompleted Kind = "savings_completed"
	KindPlanCreated      Kind = "plan_created"
	KindPlanUpdated      Kind = "plan_updated"
	KindPlanDeleted      Kind = "plan_deleted"
	KindLogin            Kind = "login"
	KindLogout           Kind = "logout"
	KindInitial          Kind = "initial"
	KindIncome           Kind = "income"
	KindExpense          Kind = "expense"
	KindUnknown          Kind = "unknown"
)

// Flow says which way an entry moves the user's net worth for reporting.
type Flow int

const (
	FlowNeutral Flow = iota
	FlowIncome
	FlowExpense
)

func (f Flow) String() string {
	switch f {
	case FlowIncome:
		return "income"
	case FlowExpense:
		return "expense"
	default:
		return "neutral"
	}
}

var knownKinds = map[Kind]Flow{
	KindDeposit:          FlowIncome,
	KindCardDeposit:      FlowIncome,
	KindTransferIn:       FlowIncome,
	KindIncome:           FlowIncome,
	KindSavingsReturn:    FlowIncome,
	KindSavingsCompleted: FlowIncome,

	KindWithdrawal:      FlowExpense,
	KindTransfer:        FlowExpense,
	KindTransferOut:     FlowExpense,
	KindExpense:         FlowExpense,
	KindSavingsDeposit:  FlowExpense,
	KindSavingsTransfer: FlowExpense,
	KindEnvelopeDeposit: FlowExpense,

	KindCardCreation: FlowNeutral,
	KindCardDeletion: FlowNeutral,
	KindPlanCreated:  FlowNeutral,
	KindPlanUpdated:  FlowNeutral,
	KindPlanDeleted:  FlowNeutral,
	KindLogin:        FlowNeutral,
	KindLogout:       FlowNeutral,
	KindInitial:      FlowNeutral,
}

// ParseKind maps a stored type tag to a Kind.
func ParseKind(s string) Kind {
	k := Kind(s)
	if _, ok := knownKinds[k]; ok {
		return k
	}
	return KindUnknown
}

// Classify is the single source of truth for income/expense reporting.
// Transfers between a user's own cards still count on both sides.
func Classify(k Kind) Flow {
	return knownKinds[k]
}

// IsFinancial is false for session markers that must never reach the ledger.
func (k Kind) IsFinancial() bool {
	switch k {
	case KindLogin, KindLogout, KindInitial:
		return false
	}
	return true
}

func (k Kind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

func (k Kind) String() string { return string(k) }
