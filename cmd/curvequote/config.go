package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
)

// FlagRule is a validation rule that runs against a registered flag.
type FlagRule func(spec *FlagSpec, ctx *validationContext) error

// FlagSpec bundles a flag name, its backing string pointer, and the rules
// to enforce on it.
type FlagSpec struct {
	Name  string
	Value *string
	Rules []FlagRule
}

// ValidateConfigOrExit validates the provided specs and prints the help
// output on failure.
func ValidateConfigOrExit(fs *flag.FlagSet, specs []FlagSpec) {
	if err := runFlagValidations(specs); err != nil {
		if fs == nil {
			fs = flag.CommandLine
		}
		fmt.Fprintf(os.Stderr, "configuration error: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fs.PrintDefaults()
		os.Exit(2)
	}
}

// NotEmpty asserts that the flag is not blank.
func NotEmpty() FlagRule {
	return func(spec *FlagSpec, ctx *validationContext) error {
		if strings.TrimSpace(*spec.Value) == "" {
			return fmt.Errorf("flag -%s must not be empty", spec.Name)
		}
		return nil
	}
}

// OneOf asserts that the flag is one of the provided options
// (case-insensitive).
func OneOf(options ...string) FlagRule {
	allowed := make(map[string]struct{}, len(options))
	for _, opt := range options {
		allowed[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	return func(spec *FlagSpec, ctx *validationContext) error {
		normalized := strings.ToLower(strings.TrimSpace(*spec.Value))
		if _, exists := allowed[normalized]; !exists {
			choices := make([]string, 0, len(allowed))
			for opt := range allowed {
				choices = append(choices, opt)
			}
			sort.Strings(choices)
			return fmt.Errorf("flag -%s must be one of [%s]", spec.Name, strings.Join(choices, ", "))
		}
		return nil
	}
}

// ExactlyOneWith asserts that exactly one of the current flag and the named
// other flag is set.
func ExactlyOneWith(other string) FlagRule {
	return func(spec *FlagSpec, ctx *validationContext) error {
		target, ok := ctx.registry[other]
		if !ok {
			return fmt.Errorf("flag -%s is paired with -%s, but the pair is not registered", spec.Name, other)
		}
		here := strings.TrimSpace(*spec.Value) != ""
		there := strings.TrimSpace(*target.Value) != ""
		if here == there {
			return fmt.Errorf("exactly one of -%s and -%s must be set", spec.Name, other)
		}
		return nil
	}
}

type validationContext struct {
	registry map[string]*FlagSpec
}

func runFlagValidations(specs []FlagSpec) error {
	if len(specs) == 0 {
		return nil
	}
	ctx := &validationContext{registry: make(map[string]*FlagSpec, len(specs))}
	for i := range specs {
		spec := &specs[i]
		if spec.Name == "" {
			return errors.New("flag spec missing name")
		}
		if spec.Value == nil {
			return fmt.Errorf("flag -%s is missing its backing pointer", spec.Name)
		}
		if _, exists := ctx.registry[spec.Name]; exists {
			return fmt.Errorf("flag -%s defined more than once", spec.Name)
		}
		ctx.registry[spec.Name] = spec
	}
	for i := range specs {
		spec := &specs[i]
		for _, rule := range spec.Rules {
			if rule == nil {
				continue
			}
			if err := rule(spec, ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
