// Package schema is the registry's validation engine. The constraints live
// in an embedded CUE file (metadata.cue) and are enforced by unifying
// candidate values against the compiled definitions, so the bounds are
// declared once and shared by the mint gate, the update gate, and the
// `partreg validate` command.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed metadata.cue
var schemaSrc string

// Validator holds the compiled metadata constraint definitions.
// Construct once with New and reuse; compiled CUE values are immutable.
type Validator struct {
	ctx    *cue.Context
	part   cue.Value
	status cue.Value
	spec   cue.Value
	notes  cue.Value
}

// New compiles the embedded schema. Fails only if the embedded CUE source
// is broken, which the schema tests catch.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaSrc, cue.Filename("metadata.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile metadata schema: %w", err)
	}

	v := &Validator{ctx: ctx}
	for _, def := range []struct {
		path string
		dst  *cue.Value
	}{
		{"#Part", &v.part},
		{"#Status", &v.status},
		{"#SpecBytes", &v.spec},
		{"#NotesBytes", &v.notes},
	} {
		val := root.LookupPath(cue.ParsePath(def.path))
		if err := val.Err(); err != nil {
			return nil, fmt.Errorf("lookup %s: %w", def.path, err)
		}
		if !val.Exists() {
			return nil, fmt.Errorf("metadata schema is missing %s", def.path)
		}
		*def.dst = val
	}
	return v, nil
}

// ValidateNew checks the full mandatory field set for a mint. Blobs are
// validated by length; specLen is the specification blob size in bytes.
func (v *Validator) ValidateNew(serial, manufacturer string, specLen int, status string) error {
	doc := v.ctx.Encode(map[string]any{
		"serial":       serial,
		"manufacturer": manufacturer,
		"spec_bytes":   specLen,
		"status":       status,
	})
	if err := v.part.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("metadata: %s", flatten(err))
	}
	return nil
}

// ValidateStatus checks a single status value against the closed set.
func (v *Validator) ValidateStatus(status string) error {
	if err := v.status.Unify(v.ctx.Encode(status)).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("status %q is not a member of the lifecycle set", status)
	}
	return nil
}

// ValidateSpec checks a specification blob length.
func (v *Validator) ValidateSpec(specLen int) error {
	if err := v.spec.Unify(v.ctx.Encode(specLen)).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("specification blob of %d bytes exceeds bounds", specLen)
	}
	return nil
}

// ValidateNotes checks a notes blob length.
func (v *Validator) ValidateNotes(notesLen int) error {
	if err := v.notes.Unify(v.ctx.Encode(notesLen)).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("notes blob of %d bytes exceeds bounds", notesLen)
	}
	return nil
}

// flatten renders a CUE validation error as a single line, one clause per
// failed constraint, without source positions (the schema is embedded, so
// positions would not help a caller).
func flatten(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		format, args := e.Msg()
		parts = append(parts, fmt.Sprintf(format, args...))
	}
	return strings.Join(parts, "; ")
}
