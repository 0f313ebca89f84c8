package scanning

import (
	"strings"
)

// noTextMarker is what the models are told to answer for a blank page or silent recording
const noTextMarker = "NO_TEXT"

// ocrPrompt is the shared prompt used by all LLM providers for reading invoices
const ocrPrompt = `You are reading a photographed or scanned invoice or bill. Transcribe every piece of text in the image exactly as printed.

Rules:
- Keep the original reading order: top to bottom, left to right
- Put each printed line on its own output line
- Keep table rows on one line, with cells separated by two spaces
- Copy numbers, currency symbols (such as ₹, Rs., $), percent signs, dates and invoice numbers exactly as printed
- Do not translate, summarize, correct, or add anything
- Do not wrap the answer in markdown or code blocks
- If the image contains no readable text, answer with ` + noTextMarker

// transcribePrompt asks for a verbatim transcript of a voice command
const transcribePrompt = `Transcribe this voice recording of someone dictating invoice details.

Rules:
- Write exactly the words spoken, in lowercase, as one line
- Write numbers as words the way they were spoken (for example "eighteen percent", "item two")
- Spell out letters that were spelled ("S E L dash zero zero one")
- Do not add punctuation, explanations, or markdown
- If nothing was said, answer with ` + noTextMarker

// cleanModelText strips the decoration LLMs tend to add around a transcription
func cleanModelText(text string) string {
	text = strings.TrimSpace(text)

	// Remove markdown code fences if present
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))

	if strings.EqualFold(text, noTextMarker) {
		return ""
	}
	return text
}
