// Package fhir declares a subset of the FHIR resource model for data
// requests written against FHIR.
package fhir

import (
	"fmt"
	"reflect"
	"time"

	"github.com/leapstack-labs/leaphed/pkg/models"
	"github.com/leapstack-labs/leaphed/pkg/operator"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// Namespace is the FHIR model URI.
const Namespace = "http://hl7.org/fhir"

// Coding is a code defined by a terminology system.
type Coding struct {
	System  string `hed:"codeSystem"`
	Version string `hed:"codeSystemVersion"`
	Code    string
	Display string `hed:"displayName"`
}

// CodeableConcept is a concept that may be defined by several codings.
type CodeableConcept struct {
	Coding []Coding
	Text   string
}

// Identifier identifies a resource.
type Identifier struct {
	System string
	Value  string
}

// Period is a time range.
type Period struct {
	Start time.Time
	End   time.Time
}

// Quantity is a measured amount.
type Quantity struct {
	Value float64
	Unit  string
}

// HumanName is the name of a person.
type HumanName struct {
	Use    string
	Family string
	Given  []string
}

// Reference points at another resource.
type Reference struct {
	Reference string
	Display   string
}

// Resource is the base of all resources.
type Resource struct {
	ID string `hed:"id"`
}

// Patient is the subject of care.
type Patient struct {
	Resource
	Identifier []Identifier
	Name       []HumanName
	Gender     CodeableConcept
	BirthDate  time.Time
	Deceased   bool
}

// ConditionOnset holds the alternative onset forms of a condition.
type ConditionOnset struct {
	DateTime time.Time `hed:"onsetDateTime"`
	Period   Period    `hed:"onsetPeriod"`
	Age      Quantity  `hed:"onsetAge"`
}

// Condition is a clinical condition, problem or diagnosis.
type Condition struct {
	Resource
	Subject        Reference
	Code           CodeableConcept
	Category       []CodeableConcept
	ClinicalStatus CodeableConcept
	Onset          ConditionOnset `hed:",choice"`
	AbatementDate  time.Time
	DateAsserted   time.Time
}

// ObservationEffective holds the alternative effective times of an
// observation.
type ObservationEffective struct {
	DateTime time.Time `hed:"effectiveDateTime"`
	Period   Period    `hed:"effectivePeriod"`
}

// ObservationValue holds the alternative values of an observation.
type ObservationValue struct {
	Quantity        Quantity        `hed:"valueQuantity"`
	CodeableConcept CodeableConcept `hed:"valueCodeableConcept"`
	String          string          `hed:"valueString"`
	Boolean         bool            `hed:"valueBoolean"`
}

// Observation is a measurement or assertion about a patient.
type Observation struct {
	Resource
	Subject        Reference
	Status         string
	Code           CodeableConcept
	Effective      ObservationEffective `hed:",choice"`
	Value          ObservationValue     `hed:",choice"`
	Interpretation CodeableConcept
}

// Encounter is an interaction between a patient and a provider.
type Encounter struct {
	Resource
	Subject Reference
	Status  string
	Type    []CodeableConcept
	Period  Period
}

// MedicationStatement records a medication being taken.
type MedicationStatement struct {
	Resource
	Subject                   Reference
	MedicationCodeableConcept CodeableConcept
	EffectivePeriod           Period
	Status                    string
}

// Procedure is an action performed on a patient.
type Procedure struct {
	Resource
	Subject           Reference
	Code              CodeableConcept
	PerformedDateTime time.Time
}

// Registrar adds the CodeableConcept membership operators.
type Registrar struct {
	codeableConcept types.DataType
}

// NewRegistrar resolves CodeableConcept through r.
func NewRegistrar(r *types.Resolver) (*Registrar, error) {
	cc, err := r.ResolveType(models.TypeOf[CodeableConcept]())
	if err != nil {
		return nil, fmt.Errorf("resolving CodeableConcept: %w", err)
	}
	return &Registrar{codeableConcept: cc}, nil
}

// Name implements operator.Registrar.
func (*Registrar) Name() string { return "fhir" }

// Operators implements operator.Registrar.
func (f *Registrar) Operators() []*operator.Operator {
	return []*operator.Operator{
		operator.New("In", types.Boolean, f.codeableConcept, types.CodeList),
		operator.New("Contains", types.Boolean, types.CodeList, f.codeableConcept),
		operator.New("InValueSet", types.Boolean, f.codeableConcept, types.CodeList),
	}
}

// Model returns the FHIR model description.
func Model() *models.Model {
	return &models.Model{
		Name: "fhir",
		URI:  Namespace,
		Classes: map[string]reflect.Type{
			"Patient":             models.TypeOf[Patient](),
			"Condition":           models.TypeOf[Condition](),
			"Observation":         models.TypeOf[Observation](),
			"Encounter":           models.TypeOf[Encounter](),
			"MedicationStatement": models.TypeOf[MedicationStatement](),
			"Procedure":           models.TypeOf[Procedure](),
			"CodeableConcept":     models.TypeOf[CodeableConcept](),
		},
		Natives: map[reflect.Type]types.DataType{
			models.TypeOf[Coding]():     types.Code,
			models.TypeOf[Identifier](): types.Identifier,
			models.TypeOf[Period]():     types.DateTimeInterval,
			models.TypeOf[Quantity]():   types.PhysicalQuantity,
			models.TypeOf[HumanName]():  types.EntityName,
		},
		Operators: func(r *types.Resolver) (operator.Registrar, error) {
			return NewRegistrar(r)
		},
	}
}
