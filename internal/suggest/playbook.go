package suggest

// savingsPlaybook maps top expense categories to concrete reduction
// steps. Categories without an entry use the "other" playbook.
var savingsPlaybook = map[string][]string{
	"subscriptions": {
		"Review active subscriptions and cancel duplicates.",
		"Downgrade plans that are unused for 30+ days.",
	},
	"transfers": {
		"Group non-urgent transfers into one weekly transfer.",
		"Set a weekly transfer cap and alert threshold.",
	},
	"transport": {
		"Set a weekly transport budget and track against it.",
		"Batch errands to reduce fuel and ATM usage.",
	},
	"card_payment": {
		"Set a card spend cap with a mid-month checkpoint.",
		"Move repeat discretionary purchases to a fixed envelope.",
	},
	"other": {
		"Flag this category for manual review and recategorization.",
		"Set a temporary 10% reduction target for this category.",
	},
}

type fallbackIdea struct {
	Title       string
	ActionSteps []string
}

// fallbackIdeas pads the suggestion list when ranked categories and
// anomalies don't reach the requested count. Order is significant.
var fallbackIdeas = []fallbackIdea{
	{
		Title: "Set a weekly cash-flow checkpoint",
		ActionSteps: []string{
			"Review income vs expenses every week.",
			"Freeze discretionary spend if week-over-week burn rises above target.",
		},
	},
	{
		Title: "Introduce a fixed discretionary envelope",
		ActionSteps: []string{
			"Set one monthly cap for non-essential spending.",
			"Move all discretionary purchases under that cap.",
		},
	},
	{
		Title: "Create transfer guardrails",
		ActionSteps: []string{
			"Set transfer alerts for large outflows.",
			"Batch personal transfers to one weekly window.",
		},
	},
}

func playbookSteps(category string) []string {
	if steps, ok := savingsPlaybook[category]; ok {
		return steps
	}
	return savingsPlaybook["other"]
}
