package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/leaphed/pkg/models"
	"github.com/leapstack-labs/leaphed/pkg/models/fhir"
	"github.com/leapstack-labs/leaphed/pkg/models/vmr"
)

var knownModels = map[string]func() *models.Model{
	"vmr":  vmr.Model,
	"fhir": fhir.Model,
}

// UnknownModelError is returned when a configured model is not known.
type UnknownModelError struct {
	Name string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q (available: %s)", e.Name, strings.Join(ModelNames(), ", "))
}

// ModelNames returns the names of the known data models, sorted.
func ModelNames() []string {
	names := make([]string, 0, len(knownModels))
	for name := range knownModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsKnownModel reports whether name is a known data model.
func IsKnownModel(name string) bool {
	_, ok := knownModels[strings.ToLower(name)]
	return ok
}

func lookupModel(name string) (func() *models.Model, error) {
	ctor, ok := knownModels[strings.ToLower(name)]
	if !ok {
		return nil, &UnknownModelError{Name: name}
	}
	return ctor, nil
}
