package ml

import (
	"strconv"
)

// FeatureRecord is one customer's attributes in their user-facing form.
type FeatureRecord struct {
	Gender           string  `json:"gender" yaml:"gender"`
	SeniorCitizen    string  `json:"senior_citizen" yaml:"senior_citizen"`
	Partner          string  `json:"partner" yaml:"partner"`
	Dependents       string  `json:"dependents" yaml:"dependents"`
	Tenure           int     `json:"tenure" yaml:"tenure"`
	PhoneService     string  `json:"phone_service" yaml:"phone_service"`
	MultipleLines    string  `json:"multiple_lines" yaml:"multiple_lines"`
	InternetService  string  `json:"internet_service" yaml:"internet_service"`
	OnlineSecurity   string  `json:"online_security" yaml:"online_security"`
	OnlineBackup     string  `json:"online_backup" yaml:"online_backup"`
	DeviceProtection string  `json:"device_protection" yaml:"device_protection"`
	TechSupport      string  `json:"tech_support" yaml:"tech_support"`
	StreamingTV      string  `json:"streaming_tv" yaml:"streaming_tv"`
	StreamingMovies  string  `json:"streaming_movies" yaml:"streaming_movies"`
	Contract         string  `json:"contract" yaml:"contract"`
	PaperlessBilling string  `json:"paperless_billing" yaml:"paperless_billing"`
	PaymentMethod    string  `json:"payment_method" yaml:"payment_method"`
	MonthlyCharges   float64 `json:"monthly_charges" yaml:"monthly_charges"`
	TotalCharges     float64 `json:"total_charges" yaml:"total_charges"`
}

// DefaultRecord returns the record every form starts from: first choice of each
// categorical field, a one month tenure and zero charges.
func DefaultRecord() FeatureRecord {
	s := ChurnSchema()
	def := func(i int) string { return s.Fields[i].Default }
	return FeatureRecord{
		Gender:           def(0),
		SeniorCitizen:    def(1),
		Partner:          def(2),
		Dependents:       def(3),
		Tenure:           1,
		PhoneService:     def(5),
		MultipleLines:    def(6),
		InternetService:  def(7),
		OnlineSecurity:   def(8),
		OnlineBackup:     def(9),
		DeviceProtection: def(10),
		TechSupport:      def(11),
		StreamingTV:      def(12),
		StreamingMovies:  def(13),
		Contract:         def(14),
		PaperlessBilling: def(15),
		PaymentMethod:    def(16),
	}
}

// Values returns the record as raw cells in schema order.
func (r FeatureRecord) Values() []string {
	return []string{
		r.Gender,
		r.SeniorCitizen,
		r.Partner,
		r.Dependents,
		strconv.Itoa(r.Tenure),
		r.PhoneService,
		r.MultipleLines,
		r.InternetService,
		r.OnlineSecurity,
		r.OnlineBackup,
		r.DeviceProtection,
		r.TechSupport,
		r.StreamingTV,
		r.StreamingMovies,
		r.Contract,
		r.PaperlessBilling,
		r.PaymentMethod,
		strconv.FormatFloat(r.MonthlyCharges, 'g', -1, 64),
		strconv.FormatFloat(r.TotalCharges, 'g', -1, 64),
	}
}

// Encode converts a record into the model's vector.
func (s *Schema) Encode(r FeatureRecord) (Vector, error) {
	return s.EncodeValues(r.Values())
}

// Decode converts a vector back into a record with canonical labels.
func (s *Schema) Decode(v Vector) (FeatureRecord, error) {
	labels := make([]string, FeatureCount)
	for i := range s.Fields {
		label, err := s.DecodeValue(i, v[i])
		if err != nil {
			return FeatureRecord{}, err
		}
		labels[i] = label
	}
	return FeatureRecord{
		Gender:           labels[0],
		SeniorCitizen:    labels[1],
		Partner:          labels[2],
		Dependents:       labels[3],
		Tenure:           int(v[4]),
		PhoneService:     labels[5],
		MultipleLines:    labels[6],
		InternetService:  labels[7],
		OnlineSecurity:   labels[8],
		OnlineBackup:     labels[9],
		DeviceProtection: labels[10],
		TechSupport:      labels[11],
		StreamingTV:      labels[12],
		StreamingMovies:  labels[13],
		Contract:         labels[14],
		PaperlessBilling: labels[15],
		PaymentMethod:    labels[16],
		MonthlyCharges:   v[17],
		TotalCharges:     v[18],
	}, nil
}
