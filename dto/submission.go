package dto

import "time"

// SubmissionRecord is the row persisted when the wizard is submitted.
type SubmissionRecord struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"sessionId"`
	FirstName      string    `json:"firstName"`
	MiddleName     string    `json:"middleName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Address        string    `json:"address"`
	PropertyType   string    `json:"propertyType"`
	MonthlyBill    string    `json:"monthlyBill"`
	IDType         string    `json:"idType"`
	IDNumber       string    `json:"idNumber"`
	IDName         string    `json:"idName"`
	IDBirthDate    string    `json:"idBirthDate"`
	OCRConfidence  int       `json:"ocrConfidence"`
	EditedFields   []string  `json:"editedFields"`
	NameMatchScore int       `json:"nameMatchScore"`
	IDTypeMatches  bool      `json:"idTypeMatches"`
	CreatedAt      time.Time `json:"createdAt"`
}
