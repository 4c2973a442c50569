package client

import (
	"strings"

	"github.com/Aashish23092/solar-id-intake/utils/idtype"
)

const extractionInstructions = `You are reading a photo of a Philippine government-issued identity document.
Extract the holder's details and answer with a single JSON object and nothing else:

{
  "name": "full name exactly as printed, in LAST, FIRST MIDDLE order when the card uses that layout",
  "address": "full address as printed, empty string if none",
  "idNumber": "the document number exactly as printed including dashes",
  "idType": "the type of document, e.g. Philippine National ID, Driver's License, Passport",
  "birthDate": "date of birth as YYYY-MM-DD when readable",
  "confidence": 0-100,
  "explanation": "one sentence on what was hard to read"
}

Where to look:
- PhilID: "Apelyido/Last Name", "Mga Pangalan/Given Names", "Gitnang Apelyido/Middle Name"; the PCN is on the front top.
- LTO Driver's License: the name line is "LAST NAME, FIRST NAME, MIDDLE NAME"; "License No." is below the photo.
- Passport: "Surname", "Given Names", "Middle Name"; the passport number is at the top right.
- UMID, SSS, PhilHealth, TIN, PRC, Postal, Voter's, Senior Citizen and PWD IDs print the number next to their label.

Known number formats:
`

const followUpInstructions = `Look only for the identification number on this %s.
Reply with the number exactly as printed, including dashes, and nothing else.
If no identification number is visible, reply with NONE.`

func buildExtractionPrompt() string {
	var b strings.Builder
	b.WriteString(extractionInstructions)
	b.WriteString(idtype.Describe())
	b.WriteString("\nIf a field is not visible, use an empty string. Do not guess numbers.")
	return b.String()
}

func buildFollowUpPrompt(idType string) string {
	label := strings.TrimSpace(idType)
	if label == "" {
		label = "identity document"
	}
	return strings.Replace(followUpInstructions, "%s", label, 1)
}
