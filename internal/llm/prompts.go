package llm

import "strings"

// buildClassifyPrompt asks the model to label a chat message with one of
// the three intents, plus a sub-type for transactions.
func buildClassifyPrompt(body string) string {
	var b strings.Builder
	b.WriteString("You are the intent classifier of a personal-budgeting chat assistant.\n\n")
	b.WriteString("Classify the user's message into exactly one intent:\n")
	b.WriteString("- \"transaction\": the message records money moving (spending, earning, or moving between own accounts).\n")
	b.WriteString("- \"query_balance\": the message asks about an account balance, a category budget, or a budget summary.\n")
	b.WriteString("- \"question\": anything else - general questions or small talk.\n\n")
	b.WriteString("When the intent is \"transaction\", also set \"transaction_detail\":\n")
	b.WriteString("- \"expense\" for money going out.\n")
	b.WriteString("- \"income\" for money coming in.\n")
	b.WriteString("- \"transfer\" for money moving between the user's own accounts.\n\n")
	b.WriteString("Messages may be in Indonesian or English.\n\n")
	b.WriteString("User message:\n")
	b.WriteString(body)
	return b.String()
}

// buildTransactionPrompt asks the model to extract transaction fields.
// The account and category lists are included in the prompt in addition
// to the response-schema enums; models follow enums more reliably when
// the candidates are also visible in the text.
func buildTransactionPrompt(body string, accounts, categories []string) string {
	var b strings.Builder
	b.WriteString("You are the extraction step of a personal-budgeting chat assistant.\n")
	b.WriteString("Extract the transaction described by the user's message.\n\n")

	b.WriteString("Use ONLY the following account names:\n")
	for _, a := range accounts {
		b.WriteString("  - " + a + "\n")
	}
	b.WriteString("\nUse ONLY the following category names:\n")
	for _, c := range categories {
		b.WriteString("  - " + c + "\n")
	}

	b.WriteString("\nEXTRACTION RULES:\n")
	b.WriteString("1. \"amount\" must be a plain decimal string with shorthand expanded: \"20k\" -> \"20000\", \"1.5jt\" -> \"1500000\".\n")
	b.WriteString("2. \"source_account_name\" is the account the money moves from (or into, for income).\n")
	b.WriteString("3. For transfers, \"payee\" is the DESTINATION account name, chosen from the account list.\n")
	b.WriteString("4. For expenses and income, \"payee\" is the counterparty (shop, employer); null when not mentioned.\n")
	b.WriteString("5. \"message_to_user\" is a short, friendly confirmation in the user's language.\n")
	b.WriteString("6. Never invent account or category names that are not in the lists above.\n\n")

	b.WriteString("User message:\n")
	b.WriteString(body)
	return b.String()
}

// buildBalancePrompt asks the model to extract a balance query.
func buildBalancePrompt(body string, accounts, categories []string) string {
	var b strings.Builder
	b.WriteString("You are the extraction step of a personal-budgeting chat assistant.\n")
	b.WriteString("The user is asking about balances or budgets. Determine what exactly.\n\n")

	b.WriteString("Known accounts:\n")
	for _, a := range accounts {
		b.WriteString("  - " + a + "\n")
	}
	b.WriteString("\nKnown budget categories:\n")
	for _, c := range categories {
		b.WriteString("  - " + c + "\n")
	}

	b.WriteString("\nRULES:\n")
	b.WriteString("1. \"query_type\" is \"account\" for account balances, \"budget\" for a category's budget, \"summary\" for an overall budget overview.\n")
	b.WriteString("2. \"name\" is the account or category asked about, copied from the lists above; \"all\" when the user asks about everything; null when no name applies.\n\n")

	b.WriteString("User message:\n")
	b.WriteString(body)
	return b.String()
}

// buildAnswerPrompt wraps a free-form question.
func buildAnswerPrompt(body string) string {
	var b strings.Builder
	b.WriteString("You are a friendly personal-budgeting assistant chatting over WhatsApp.\n")
	b.WriteString("Answer the user's message helpfully and briefly, in the user's language.\n")
	b.WriteString("Plain text only - no Markdown.\n\n")
	b.WriteString("User message:\n")
	b.WriteString(body)
	return b.String()
}
