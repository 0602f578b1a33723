package ledger

// Balances holds the eight figures reported for one account over a window.
// Native figures are in the account's own currency and are nil for branch
// accounts and for leaves without a currency.
type Balances struct {
	AccountCode     string  `json:"account_code"`
	BeginningNative *Amount `json:"beginning_native"`
	BeginningLocal  Amount  `json:"beginning_local"`
	DebitNative     *Amount `json:"debit_native"`
	DebitLocal      Amount  `json:"debit_local"`
	CreditNative    *Amount `json:"credit_native"`
	CreditLocal     Amount  `json:"credit_local"`
	EndingNative    *Amount `json:"ending_native"`
	EndingLocal     Amount  `json:"ending_local"`
}

// AccountNet is a leaf's local debit-minus-credit movement.
type AccountNet struct {
	AccountCode string
	Net         Amount
}

func localEntry(account, localCurrency string, amount Amount, brief string) Entry {
	return Entry{
		AccountCode:  account,
		Currency:     localCurrency,
		Amount:       amount,
		ExchangeRate: OneRate,
		Brief:        brief,
	}
}

// MonthEndEntries zeroes every non-zero net with an opposite-side entry and
// posts the residual to the profit account. The two sides always balance.
func MonthEndEntries(nets []AccountNet, profitAccount, localCurrency, brief string) (debits, credits []Entry) {
	profit := Zero
	for _, n := range nets {
		switch n.Net.Sign() {
		case 1:
			credits = append(credits, localEntry(n.AccountCode, localCurrency, n.Net, brief))
		case -1:
			debits = append(debits, localEntry(n.AccountCode, localCurrency, n.Net.Neg(), brief))
		default:
			continue
		}
		profit = profit.Add(n.Net)
	}
	switch profit.Sign() {
	case 1:
		debits = append(debits, localEntry(profitAccount, localCurrency, profit, brief))
	case -1:
		credits = append(credits, localEntry(profitAccount, localCurrency, profit.Neg(), brief))
	}
	return debits, credits
}

// YearEndEntries transfers the profit account's net for the year (debit
// minus credit) to retained earnings so the profit account nets to zero.
func YearEndEntries(net Amount, profitAccount, retainedEarnings, localCurrency, brief string) (debits, credits []Entry) {
	switch net.Sign() {
	case 1:
		debits = append(debits, localEntry(retainedEarnings, localCurrency, net, brief))
		credits = append(credits, localEntry(profitAccount, localCurrency, net, brief))
	case -1:
		debits = append(debits, localEntry(profitAccount, localCurrency, net.Neg(), brief))
		credits = append(credits, localEntry(retainedEarnings, localCurrency, net.Neg(), brief))
	}
	return debits, credits
}

// RevaluationEntries books a local-currency delta on account against the
// clearing account. A gain debits the account; a loss credits it. ok is
// false for a zero delta.
func RevaluationEntries(account, clearing string, delta Amount, localCurrency, brief string) (debit, credit Entry, ok bool) {
	switch delta.Sign() {
	case 1:
		return localEntry(account, localCurrency, delta, brief), localEntry(clearing, localCurrency, delta, brief), true
	case -1:
		return localEntry(clearing, localCurrency, delta.Neg(), brief), localEntry(account, localCurrency, delta.Neg(), brief), true
	}
	return Entry{}, Entry{}, false
}
