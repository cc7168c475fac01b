package verify

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/cases"

	"github.com/leapstack-labs/leaphed/pkg/artifact"
	"github.com/leapstack-labs/leaphed/pkg/ast"
	"github.com/leapstack-labs/leaphed/pkg/types"
)

// VerifyArtifact verifies an artifact: parameters, expressions in
// declaration order, conditions, triggers, response bindings and the
// expressions embedded in the action group. The returned error is non-nil
// only for configuration errors and cancellation.
func (v *Verifier) VerifyArtifact(ctx context.Context, a *artifact.Artifact) (Diagnostics, error) {
	v.logger.Debug("verifying artifact", "artifact", a.Name(), "source", a.Source)
	c := v.newContext(ctx, "")

	v.verifyDefinitions(c, &a.Definitions)

	for _, cond := range a.Conditions {
		t := c.Verify(cond)
		if v.fatal != nil {
			break
		}
		if !types.Equal(t, types.Boolean) {
			c.Report(Errorf("Condition must evaluate to a value of type boolean."), cond)
		}
	}

	for _, trigger := range a.Triggers {
		c.verifyExpressionNodes(trigger)
	}

	if a.ActionGroup != nil {
		containers := newResponseContainers()
		c.verifyResponseBindings(a.ActionGroup, containers)
		for _, p := range containers.params {
			if err := c.AddParameterDef(p); err != nil {
				c.Report(err, nil)
			}
		}
		c.verifyExpressionNodes(a.ActionGroup)
	}

	return c.diags, v.fatal
}

// VerifyLibrary verifies a library in a fresh context. It implements
// LibraryVerifier.
func (v *Verifier) VerifyLibrary(ctx context.Context, lib *artifact.Library) (Diagnostics, error) {
	v.logger.Debug("verifying library", "library", lib.Name, "version", lib.Version)
	c := v.newContext(ctx, lib.Name)
	v.verifyDefinitions(c, &lib.Definitions)
	return c.diags, v.fatal
}

// verifyDefinitions brings the models and libraries into scope, verifies
// the parameters without access to other parameters or expressions, then
// brings the remaining definitions into scope and verifies the expressions.
func (v *Verifier) verifyDefinitions(c *Context, defs *artifact.Definitions) {
	for _, m := range defs.Models {
		if err := c.AddModel(m); err != nil {
			c.Report(err, nil)
		}
	}
	for _, ref := range defs.Libraries {
		if err := c.AddLibraryRef(ref); err != nil {
			c.Report(err, nil)
			continue
		}
		if _, err := c.ResolveLibrary(ref.Name); err != nil {
			c.Report(err, nil)
		}
	}

	for _, p := range defs.Parameters {
		if err := c.verifyParameter(p); err != nil {
			c.Report(Wrap(err, fmt.Sprintf("Exceptions occurred verifying parameter %s. %s", p.Name, messageOf(err))), nil)
		}
	}

	for _, p := range defs.Parameters {
		if err := c.AddParameterDef(p); err != nil {
			c.Report(err, nil)
		}
	}
	for _, cs := range defs.CodeSystems {
		if err := c.AddCodeSystemDef(cs); err != nil {
			c.Report(err, nil)
		}
	}
	for _, vs := range defs.ValueSets {
		if err := c.AddValueSetDef(vs); err != nil {
			c.Report(err, nil)
		}
	}
	for _, e := range defs.Expressions {
		if err := c.AddExpressionDef(e); err != nil {
			c.Report(err, e.Expression)
		}
	}

	for _, e := range defs.Expressions {
		if v.fatal != nil {
			return
		}
		if c.ResultType(e.Expression) != nil {
			continue
		}
		if err := c.verifyExpressionDef(e); err != nil {
			c.Report(err, e.Expression)
		}
	}
}

func messageOf(err error) string {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d.Message
	}
	return err.Error()
}

func (c *Context) verifyParameter(p *artifact.ParameterDef) error {
	t, err := c.ResolveType(p.TypeName)
	if err != nil {
		return err
	}
	p.ParameterType = t
	if p.Default == nil {
		return nil
	}
	return c.VerifyType(c.Verify(p.Default), t)
}

// verifyExpressionNodes verifies every expression in the tree rooted at e.
// Expressions verify their own children.
func (c *Context) verifyExpressionNodes(e ast.Element) {
	if e == nil || c.v.fatal != nil {
		return
	}
	if n, ok := e.(*ast.ASTNode); ok {
		c.Verify(n)
		return
	}
	for _, child := range e.Base().Children {
		c.verifyExpressionNodes(child)
	}
}

// =============================================================================
// Response bindings
// =============================================================================

// DefaultResponseContainer is the container a response binding uses when
// it names none.
const DefaultResponseContainer = "Responses"

type responseContainers struct {
	params []*artifact.ParameterDef
	byName *table[*artifact.ParameterDef]
}

func newResponseContainers() *responseContainers {
	return &responseContainers{byName: newTable[*artifact.ParameterDef](cases.Fold())}
}

// verifyResponseBindings declares a container parameter for every
// DeclareResponseAction and adds a property to it for every
// CollectInformationAction bound to it.
func (c *Context) verifyResponseBindings(e ast.Element, containers *responseContainers) {
	n := e.Base()
	if err := c.bindResponse(n, containers); err != nil {
		c.Report(err, e)
	}
	for _, child := range n.Children {
		c.verifyResponseBindings(child, containers)
	}
}

func (c *Context) bindResponse(n *ast.Node, containers *responseContainers) error {
	switch n.Kind() {
	case "DeclareResponseAction":
		name, _ := n.Attr("name")
		p := &artifact.ParameterDef{
			Name:          name,
			ParameterType: types.NewObjectType(name+"Type", nil),
		}
		if !containers.byName.add(name, p) {
			return Errorf("A response container named %s is already declared.", name)
		}
		containers.params = append(containers.params, p)

	case "CollectInformationAction":
		el, ok := n.Child("responseBinding")
		if !ok {
			return nil
		}
		binding := el.Base()
		name := binding.AttrOr("container", DefaultResponseContainer)
		container, ok := containers.byName.get(name)
		if !ok {
			return Errorf("Could not resolve response container name %s.", name)
		}
		containerType := container.ParameterType.(*types.ObjectType)

		responseType, err := c.responseType(n)
		if err != nil {
			return err
		}
		property, _ := binding.Attr("property")
		if _, exists := containerType.Property(property); exists {
			return Errorf("Response container %s already has a response named %s.", container.Name, property)
		}
		containerType.AddProperty(property, responseType)
	}
	return nil
}

func (c *Context) responseType(n *ast.Node) (types.DataType, error) {
	el, ok := n.Child("documentationConcept")
	if !ok {
		return types.String, nil
	}
	concept := el.Base()

	var t types.DataType = types.String
	if dt, ok := concept.Child("responseDataType"); ok {
		resolved, err := c.ResolveType(dt.Base().AttrOr("value", ""))
		if err != nil {
			return nil, err
		}
		t = resolved
	}
	if card, ok := concept.Child("responseCardinality"); ok && card.Base().AttrOr("value", "") == "Multiple" {
		t = types.NewListType(t)
	}
	return t, nil
}
