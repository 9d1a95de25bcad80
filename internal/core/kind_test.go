package core

import "testing"

func TestClassify(t *testing.T) {
	income := []Kind{KindDeposit, KindCardDeposit, KindTransferIn, KindIncome, KindSavingsReturn, KindSavingsCompleted}
	expense := []Kind{KindWithdrawal, KindTransfer, KindTransferOut, KindExpense, KindSavingsDeposit, KindEnvelopeDeposit, KindSavingsTransfer}
	neutral := []Kind{KindCardCreation, KindCardDeletion, KindPlanCreated, KindPlanUpdated, KindPlanDeleted, KindLogin, KindLogout, KindInitial, KindUnknown}

	for _, k := range income {
		if Classify(k) != FlowIncome {
			t.Fatalf("%s expected income, got %s", k, Classify(k))
		}
	}
	for _, k := range expense {
		if Classify(k) != FlowExpense {
			t.Fatalf("%s expected expense, got %s", k, Classify(k))
		}
	}
	for _, k := range neutral {
		if Classify(k) != FlowNeutral {
			t.Fatalf("%s expected neutral, got %s", k, Classify(k))
		}
	}
}

func TestParseKind(t *testing.T) {
	if ParseKind("transfer_out") != KindTransferOut {
		t.Fatalf("expected transfer_out")
	}
	if ParseKind("bogus") != KindUnknown {
		t.Fatalf("expected unknown for unrecognised tag")
	}
}

func TestIsFinancial(t *testing.T) {
	for _, k := range []Kind{KindLogin, KindLogout, KindInitial} {
		if k.IsFinancial() {
			t.Fatalf("%s must not be financial", k)
		}
	}
	if !KindCardCreation.IsFinancial() {
		t.Fatalf("card_creation is recorded in the ledger")
	}
}
