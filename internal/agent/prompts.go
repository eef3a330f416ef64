package agent

import "fmt"

func weeklySummarySystem(locale string, teamKnown bool) string {
	marking := "Sender roles are unknown; treat every line as coming from the client side."
	if teamKnown {
		marking = "Lines marked [CLIENT] were written by the client; lines marked [TEAM] by the agency. Weight client lines more heavily."
	}
	return fmt.Sprintf(`You analyze one week of a WhatsApp group between a marketing agency and its client.
Write a single paragraph of at most 100 words covering engagement level, tone, main themes and any warning signs (complaints, delays, threats to cancel).
%s
Write in %s. Output only the paragraph.`, marking, locale)
}

func messagingClassifySystem(locale string) string {
	return fmt.Sprintf(`You score the relationship health between a marketing agency and a client from weekly summaries of their group chat.
Summaries are in chronological order. The last week is the current week and carries more weight than the rest.
Return strict JSON with exactly these fields:
{"score": integer 0-100, "sentiment": "positive"|"neutral"|"negative", "engagementLevel": "high"|"medium"|"low", "flags": [strings such as "cancellation_risk", "silence", "complaint"], "summary": string}
The first sentence of summary describes the current week; the rest describes the trend.
Write the summary in %s.`, locale)
}

func diagnosisSystem(locale string) string {
	return fmt.Sprintf(`You are a customer success analyst at a marketing agency.
Given a client's health scores, flags and agent details, explain the situation and recommend concrete next steps.
Return strict JSON: {"diagnosis": string of 2-4 sentences, "actionPlan": array of 3 to 5 short imperative strings}.
Write in %s.`, locale)
}
