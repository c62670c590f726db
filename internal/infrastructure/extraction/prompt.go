package extraction

const maxPromptDocumentBytes = 12000

const fieldInstructions = `You read Czech applications for temporary use of public space (zábor veřejného prostranství).
Return a strict JSON object with exactly these keys:
applicant_name (string), company_id (string), contact (string), address (string),
purpose (string), location (string), area_m2 (number, square meters),
start_date (string, YYYY-MM-DD), end_date (string, YYYY-MM-DD),
confidence (number from 0 to 1).
Use null for anything the document does not state. Never guess numbers or dates.
No markdown, no commentary, no extra keys.`

func buildTextPrompt(documentText string) string {
	snippet := documentText
	if len(snippet) > maxPromptDocumentBytes {
		snippet = snippet[:maxPromptDocumentBytes]
	}

	return fieldInstructions + `

Application text:
` + snippet
}

func buildVisionPrompt() string {
	return fieldInstructions + `

The application is attached as an image. Read it carefully, including handwriting.`
}
