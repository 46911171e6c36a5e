package domain

// BackupVersion is written into every snapshot; restore refuses documents without a version.
const BackupVersion = "1.0"

// Backup is a structural snapshot of the whole store. On restore a nil collection (absent or
// null in the document) means "not included" and leaves the stored collection alone; an empty
// list clears it.
type Backup struct {
	Settings     *Settings           `json:"settings"`
	Suppliers    []Supplier          `json:"suppliers"`
	Clients      []Client            `json:"clients"`
	Invoices     []Invoice           `json:"invoices"`
	Transactions []ClientTransaction `json:"transactions"`
	Version      string              `json:"version"`
	Date         string              `json:"date"`
}
