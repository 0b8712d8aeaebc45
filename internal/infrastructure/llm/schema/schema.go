package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

// Name identifies the schema to backends that require one.
const Name = "product_details"

// Instruction is sent as the system prompt to every structuring backend.
const Instruction = `Extract the product information from OCR text read off a retail package.
Return the product name, brand, pack size, manufacturing date, expiry date and MRP.
Give both dates in the format YYYY-MM-DD. Make sure the manufacturing date is before the expiry date by analyzing the dates.
Use real world knowledge to correct errors such as typos or misread digits.
Use "NA" for any field that cannot be determined.
Respond with a single JSON object with keys name, brand, pack_size, mfg_date, exp_date, mrp and nothing else.`

var fields = []string{"name", "brand", "pack_size", "mfg_date", "exp_date", "mrp"}

var productSchema = buildProductSchema()

func buildProductSchema() *openapi3.Schema {
	noExtra := false
	s := openapi3.NewObjectSchema()
	for _, field := range fields {
		s.WithProperty(field, openapi3.NewStringSchema())
	}
	s.Required = append([]string(nil), fields...)
	s.AdditionalProperties = openapi3.AdditionalProperties{Has: &noExtra}
	return s
}

// ProductSchema returns the JSON schema every backend response must satisfy.
func ProductSchema() *openapi3.Schema {
	return productSchema
}

// JSONSchema renders ProductSchema for backends that accept a raw schema.
func JSONSchema() json.RawMessage {
	raw, err := json.Marshal(productSchema)
	if err != nil {
		panic(fmt.Sprintf("marshal product schema: %v", err))
	}
	return raw
}

// UserPrompt wraps OCR text for backends without a separate system role.
func UserPrompt(text string) string {
	return Instruction + "\n\nOCR text:\n" + text
}

// Decode validates a backend response against ProductSchema. Blank fields
// become NA.
func Decode(raw string) (domain.ProductDetails, error) {
	body := ExtractJSONObject(raw)

	var generic any
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		return domain.ProductDetails{}, fmt.Errorf("parse product json: %w", err)
	}
	if err := productSchema.VisitJSON(generic, openapi3.MultiErrors()); err != nil {
		return domain.ProductDetails{}, fmt.Errorf("product json does not match schema: %w", err)
	}

	var details domain.ProductDetails
	if err := json.Unmarshal([]byte(body), &details); err != nil {
		return domain.ProductDetails{}, fmt.Errorf("decode product json: %w", err)
	}
	for _, field := range []*string{
		&details.Name, &details.Brand, &details.PackSize,
		&details.MfgDate, &details.ExpDate, &details.MRP,
	} {
		*field = strings.TrimSpace(*field)
		if *field == "" {
			*field = domain.NotAvailable
		}
	}
	details.Status = ""
	return details, nil
}

// ExtractJSONObject strips prose or code fences around the outermost object.
func ExtractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
