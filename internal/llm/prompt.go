package llm

import (
	"strings"

	"github.com/joseph-ayodele/certidao-ocr/constants"
)

// ExtractionInstruction is sent to the vision model together with the scan.
const ExtractionInstruction = "Extract all text from this Brazilian property registry document (certidão de imóvel). " +
	"Read all visible text carefully, including registry numbers, names, addresses, CPF, dates, and property details."

// BuildStructuringPrompt asks the text model to turn free OCR text into one JSON object.
// The field list comes from constants.Fields; the text is embedded verbatim.
func BuildStructuringPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Extract the following property registry details from the Brazilian certidão de imóvel text ")
	b.WriteString("and return them as a structured JSON object.\n\n")
	b.WriteString("Fields to extract:\n")
	for _, f := range constants.Fields {
		b.WriteString("- ")
		b.WriteString(f.Key)
		b.WriteString(" (")
		b.WriteString(f.Description)
		b.WriteString(")\n")
	}
	b.WriteString("\nInput text:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn ONLY a valid JSON object, no extra text or explanations. Use null for missing fields.\n")
	return b.String()
}
