package ml

import (
	"math"
	"strconv"
	"strings"
)

// SchemaVersion pins the feature order and encodings the shipped models were trained with.
// Artifacts declaring any other version are refused at load time.
const SchemaVersion = "telco-churn/v1"

// FeatureCount is the width of every vector handed to a classifier.
const FeatureCount = 19

// Vector is one encoded record in schema order.
type Vector [FeatureCount]float64

// FieldKind describes how a field is encoded.
type FieldKind string

const (
	KindCategorical FieldKind = "categorical"
	KindInteger     FieldKind = "integer"
	KindReal        FieldKind = "real"
)

// Choice is one value of a categorical field. Its position in Field.Choices is its code.
type Choice struct {
	Label   string   `json:"label"`
	Aliases []string `json:"aliases,omitempty"`
}

// Field describes one position of the vector.
type Field struct {
	Name    string    `json:"name"`
	Label   string    `json:"label"`
	Kind    FieldKind `json:"kind"`
	Aliases []string  `json:"aliases,omitempty"`
	Choices []Choice  `json:"choices,omitempty"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max,omitempty"`
	Default string    `json:"default"`
}

// Schema is the ordered feature contract between user input and the model.
type Schema struct {
	Version string  `json:"version"`
	Fields  []Field `json:"fields"`
}

var (
	yesNo = []Choice{{Label: "No"}, {Label: "Yes"}}

	noInternet = []Choice{{Label: "No"}, {Label: "Yes"}, {Label: "No internet service"}}
)

// churnSchema is the single declarative encoding table shared by the form, API and batch paths.
var churnSchema = &Schema{
	Version: SchemaVersion,
	Fields: []Field{
		{Name: "gender", Label: "Gender", Kind: KindCategorical,
			Choices: []Choice{{Label: "Female"}, {Label: "Male"}}},
		{Name: "senior_citizen", Label: "Senior Citizen", Kind: KindCategorical, Aliases: []string{"SeniorCitizen"}, Choices: yesNo},
		{Name: "partner", Label: "Partner", Kind: KindCategorical, Aliases: []string{"Partner"}, Choices: yesNo},
		{Name: "dependents", Label: "Dependents", Kind: KindCategorical, Aliases: []string{"Dependents"}, Choices: yesNo},
		{Name: "tenure", Label: "Tenure (months)", Kind: KindInteger, Min: 1, Max: 72},
		{Name: "phone_service", Label: "Phone Service", Kind: KindCategorical, Aliases: []string{"PhoneService"}, Choices: yesNo},
		{Name: "multiple_lines", Label: "Multiple Lines", Kind: KindCategorical, Aliases: []string{"MultipleLines"},
			Choices: []Choice{{Label: "No"}, {Label: "Yes"}, {Label: "No phone service"}}},
		{Name: "internet_service", Label: "Internet Service", Kind: KindCategorical, Aliases: []string{"InternetService"},
			Choices: []Choice{{Label: "No"}, {Label: "DSL"}, {Label: "Fiber Optic"}}},
		{Name: "online_security", Label: "Online Security", Kind: KindCategorical, Aliases: []string{"OnlineSecurity"}, Choices: noInternet},
		{Name: "online_backup", Label: "Online Backup", Kind: KindCategorical, Aliases: []string{"OnlineBackup"}, Choices: noInternet},
		{Name: "device_protection", Label: "Device Protection", Kind: KindCategorical, Aliases: []string{"DeviceProtection"}, Choices: noInternet},
		{Name: "tech_support", Label: "Tech Support", Kind: KindCategorical, Aliases: []string{"TechSupport"}, Choices: noInternet},
		{Name: "streaming_tv", Label: "Streaming TV", Kind: KindCategorical, Aliases: []string{"StreamingTV"}, Choices: noInternet},
		{Name: "streaming_movies", Label: "Streaming Movies", Kind: KindCategorical, Aliases: []string{"StreamingMovies"}, Choices: noInternet},
		{Name: "contract", Label: "Contract", Kind: KindCategorical, Aliases: []string{"Contract"},
			Choices: []Choice{{Label: "Month-to-Month"}, {Label: "One Year"}, {Label: "Two Year"}}},
		{Name: "paperless_billing", Label: "Paperless Billing", Kind: KindCategorical, Aliases: []string{"PaperlessBilling"}, Choices: yesNo},
		{Name: "payment_method", Label: "Payment Method", Kind: KindCategorical, Aliases: []string{"PaymentMethod"},
			Choices: []Choice{
				{Label: "Electronic Check"},
				{Label: "Mailed Check"},
				{Label: "Bank Transfer", Aliases: []string{"Bank transfer (automatic)"}},
				{Label: "Credit Card", Aliases: []string{"Credit card (automatic)"}},
			}},
		{Name: "monthly_charges", Label: "Monthly Charges", Kind: KindReal, Aliases: []string{"MonthlyCharges"}},
		{Name: "total_charges", Label: "Total Charges", Kind: KindReal, Aliases: []string{"TotalCharges"}},
	},
}

func init() {
	for i := range churnSchema.Fields {
		f := &churnSchema.Fields[i]
		switch f.Kind {
		case KindCategorical:
			f.Default = f.Choices[0].Label
		case KindInteger:
			f.Default = strconv.FormatFloat(f.Min, 'f', -1, 64)
		default:
			f.Default = "0"
		}
	}
}

// ChurnSchema returns the pinned schema. Callers must treat it as read-only.
func ChurnSchema() *Schema {
	return churnSchema
}

// FeatureNames returns the canonical column names in vector order.
func FeatureNames() []string {
	names := make([]string, len(churnSchema.Fields))
	for i, f := range churnSchema.Fields {
		names[i] = f.Name
	}
	return names
}

// Index returns the vector position of a column name or alias, or -1.
func (s *Schema) Index(column string) int {
	key := normalizeName(column)
	for i, f := range s.Fields {
		if normalizeName(f.Name) == key {
			return i
		}
		for _, alias := range f.Aliases {
			if normalizeName(alias) == key {
				return i
			}
		}
	}
	return -1
}

// EncodeValue encodes one raw cell for field i. Categorical cells may hold a label, an
// alias or an integral code; numeric cells must parse and lie inside the field's domain.
func (s *Schema) EncodeValue(i int, raw string) (float64, error) {
	f := s.Fields[i]
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, &InvalidFieldValueError{Field: f.Name, Value: raw, Reason: "value is required"}
	}

	switch f.Kind {
	case KindCategorical:
		return f.encodeChoice(raw, value)
	case KindInteger:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || n != math.Trunc(n) {
			return 0, &InvalidFieldValueError{Field: f.Name, Value: raw, Reason: "expected an integer"}
		}
		if n < f.Min || n > f.Max {
			return 0, &InvalidFieldValueError{Field: f.Name, Value: raw,
				Reason: "must be between " + formatNumber(f.Min) + " and " + formatNumber(f.Max)}
		}
		return n, nil
	default:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, &InvalidFieldValueError{Field: f.Name, Value: raw, Reason: "expected a number"}
		}
		if n < f.Min {
			return 0, &InvalidFieldValueError{Field: f.Name, Value: raw, Reason: "must not be negative"}
		}
		return n, nil
	}
}

func (f Field) encodeChoice(raw, value string) (float64, error) {
	for code, c := range f.Choices {
		if strings.EqualFold(value, c.Label) {
			return float64(code), nil
		}
		for _, alias := range c.Aliases {
			if strings.EqualFold(value, alias) {
				return float64(code), nil
			}
		}
	}

	// pre-encoded cells, as produced by the training pipeline
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		if n == math.Trunc(n) && n >= 0 && n < float64(len(f.Choices)) {
			return n, nil
		}
	}

	return 0, &InvalidFieldValueError{Field: f.Name, Value: raw, Reason: "not one of " + f.choiceList()}
}

// DecodeValue maps an encoded value of field i back to its display form.
func (s *Schema) DecodeValue(i int, v float64) (string, error) {
	f := s.Fields[i]
	if f.Kind != KindCategorical {
		return formatNumber(v), nil
	}
	if v != math.Trunc(v) || v < 0 || v >= float64(len(f.Choices)) {
		return "", &InvalidFieldValueError{Field: f.Name, Value: formatNumber(v), Reason: "unknown code"}
	}
	return f.Choices[int(v)].Label, nil
}

// EncodeValues encodes one raw row in schema order.
func (s *Schema) EncodeValues(values []string) (Vector, error) {
	var v Vector
	if len(values) != len(s.Fields) {
		return v, &SchemaMismatchError{
			Reason:   "wrong number of values",
			Expected: len(s.Fields),
			Got:      len(values),
		}
	}
	for i, raw := range values {
		encoded, err := s.EncodeValue(i, raw)
		if err != nil {
			return v, err
		}
		v[i] = encoded
	}
	return v, nil
}

func (f Field) choiceList() string {
	labels := make([]string, len(f.Choices))
	for i, c := range f.Choices {
		labels[i] = strconv.Quote(c.Label)
	}
	return strings.Join(labels, ", ")
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(name)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
