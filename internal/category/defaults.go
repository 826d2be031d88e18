package category

const defaultVersion = "v1-default"

// defaultRules returns the built-in taxonomy, already normalized.
// Order matters: earlier categories win when keywords overlap.
func defaultRules() []Rule {
	raw := []Rule{
		{Category: "grocery", Keywords: []string{"whole foods", "trader joe", "kroger", "שופרסל", "רמי לוי", "ויקטורי"}},
		{Category: "subscriptions", Keywords: []string{"netflix", "spotify", "apple", "adobe", "youtube premium"}},
		{Category: "transport", Keywords: []string{"shell", "uber", "lyft", "דלק", "fuel"}},
		{Category: "card_payment", Keywords: []string{"מסטרקרד", "mastercard", "visa", "amex", "credit card"}},
		{Category: "cash_withdrawal", Keywords: []string{"משיכה מבנקט", "atm withdrawal", "cash withdrawal"}},
		{Category: "transfers", Keywords: []string{"העב' לאחר-נייד", "העברה-נייד", "bit העברת כסף", "bank transfer", "bit"}},
		{Category: "loan_interest", Keywords: []string{`הו"ק הלו' רבית`, "loan interest"}},
		{Category: "loan_principal", Keywords: []string{`הו"ק הלואה קרן`, "loan principal"}},
		{Category: "savings_deposit", Keywords: []string{"פקדון", "deposit"}},
		{Category: "benefits_income", Keywords: []string{"זיכוי מלאומי", "בטוח לאומי", "מענק", `מופ"ת מילואים`}},
	}

	for i, r := range raw {
		keywords := make([]string, len(r.Keywords))
		for j, kw := range r.Keywords {
			keywords[j] = normalizeText(kw)
		}
		raw[i].Keywords = keywords
	}
	return raw
}
