// Package vmr declares the virtual medical record model classes used by
// HeD data requests.
package vmr

import (
	"reflect"
	"time"

	"github.com/leapstack-labs/leaphed/pkg/models"
	"github.com/leapstack-labs/leaphed/pkg/operator"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// Namespace is the vMR model URI.
const Namespace = "urn:hl7-org:vmr:r2"

// Data types. These map onto the built-in descriptors.
type (
	// CD is a coded value.
	CD struct {
		Code              string
		CodeSystem        string
		CodeSystemName    string
		CodeSystemVersion string
		DisplayName       string
	}

	// II is an instance identifier.
	II struct {
		Root      string
		Extension string
	}

	// PQ is a physical quantity.
	PQ struct {
		Value float64
		Unit  string
	}

	// IVLTS is an interval of timestamps.
	IVLTS struct {
		Low  time.Time
		High time.Time
	}

	// IVLPQ is an interval of physical quantities.
	IVLPQ struct {
		Low  PQ
		High PQ
	}

	// EN is an entity name.
	EN struct {
		Use    string
		Family string
		Given  []string
	}
)

// ClinicalStatement is the base of every statement about a patient.
type ClinicalStatement struct {
	ID             II   `hed:"id"`
	TemplateID     []II `hed:"templateId"`
	DataSourceType CD
	Comment        []string
}

// Problem is a problem, diagnosis or concern.
type Problem struct {
	ClinicalStatement
	ProblemCode          CD
	DiagnosticEventTime  IVLTS
	ProblemEffectiveTime IVLTS
	ProblemStatus        CD
	Importance           CD
	Severity             CD
	AgeAtOnset           PQ
	AffectedBodySite     []CD
}

// EncounterEvent is an encounter that occurred.
type EncounterEvent struct {
	ClinicalStatement
	EncounterType      CD
	EncounterEventTime IVLTS
	RelatedProblem     []Problem
}

// ObservationValue holds the alternative value types of an observation.
type ObservationValue struct {
	PhysicalQuantity PQ     `hed:"physicalQuantity"`
	Concept          CD     `hed:"concept"`
	Text             string `hed:"text"`
	Boolean          bool   `hed:"boolean"`
	Range            IVLPQ  `hed:"physicalQuantityRange"`
}

// ObservationResult is the result of an observation.
type ObservationResult struct {
	ClinicalStatement
	ObservationFocus     CD
	ObservationMethod    CD
	ObservationEventTime IVLTS
	ObservationValue     ObservationValue `hed:",choice"`
	Interpretation       []CD
}

// AdministrableSubstance is a substance that can be administered.
type AdministrableSubstance struct {
	ID            II `hed:"id"`
	SubstanceCode CD
	Form          CD
	Strength      PQ
}

// SubstanceAdministrationEvent is an administration that occurred.
type SubstanceAdministrationEvent struct {
	ClinicalStatement
	SubstanceAdministrationGeneralPurpose CD
	Substance                             AdministrableSubstance
	DeliveryRoute                         CD
	AdministrationTimeInterval            IVLTS
	DoseQuantity                          IVLPQ
}

// ProcedureEvent is a procedure that occurred.
type ProcedureEvent struct {
	ClinicalStatement
	ProcedureCode   CD
	ProcedureMethod CD
	ProcedureTime   IVLTS
	TargetBodySite  []CD
}

// Demographics describes a person.
type Demographics struct {
	BirthTime  time.Time
	Gender     CD
	Race       []CD
	Ethnicity  []CD
	IsDeceased bool
	Name       []EN
}

// EvaluatedPerson is the patient being evaluated.
type EvaluatedPerson struct {
	ID           II `hed:"id"`
	Demographics Demographics
}

// Registrar is the vMR operator module. The model adds no operators of its
// own.
type Registrar struct{}

// Name implements operator.Registrar.
func (Registrar) Name() string { return "vmr" }

// Operators implements operator.Registrar.
func (Registrar) Operators() []*operator.Operator { return nil }

// Model returns the vMR model description.
func Model() *models.Model {
	return &models.Model{
		Name: "vmr",
		URI:  Namespace,
		Classes: map[string]reflect.Type{
			"ClinicalStatement":            models.TypeOf[ClinicalStatement](),
			"Problem":                      models.TypeOf[Problem](),
			"EncounterEvent":               models.TypeOf[EncounterEvent](),
			"ObservationResult":            models.TypeOf[ObservationResult](),
			"AdministrableSubstance":       models.TypeOf[AdministrableSubstance](),
			"SubstanceAdministrationEvent": models.TypeOf[SubstanceAdministrationEvent](),
			"ProcedureEvent":               models.TypeOf[ProcedureEvent](),
			"EvaluatedPerson":              models.TypeOf[EvaluatedPerson](),
		},
		Natives: map[reflect.Type]types.DataType{
			models.TypeOf[CD]():    types.Code,
			models.TypeOf[II]():    types.Identifier,
			models.TypeOf[PQ]():    types.PhysicalQuantity,
			models.TypeOf[IVLTS](): types.DateTimeInterval,
			models.TypeOf[IVLPQ](): types.PhysicalQuantityInterval,
			models.TypeOf[EN]():    types.EntityName,
		},
		Operators: func(*types.Resolver) (operator.Registrar, error) {
			return Registrar{}, nil
		},
	}
}
