package domain

type ExpiryStatus string

const (
	StatusExpired    ExpiryStatus = "expired"
	StatusNotExpired ExpiryStatus = "not expired"
	StatusUnknown    ExpiryStatus = "NA"
)

// NotAvailable fills response fields that do not apply to the chosen path.
const NotAvailable = "NA"

// ProductDetails is the structured label data inferred from OCR text.
type ProductDetails struct {
	Name     string       `json:"name"`
	Brand    string       `json:"brand"`
	PackSize string       `json:"pack_size"`
	MfgDate  string       `json:"mfg_date"`
	ExpDate  string       `json:"exp_date"`
	MRP      string       `json:"mrp"`
	Status   ExpiryStatus `json:"status"`
}

// TextLine is one recognized line of label text in reading order.
type TextLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}
