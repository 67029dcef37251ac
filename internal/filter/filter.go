// Package filter selects records with small boolean expressions such as
// `city == "Bern" && birthMonth == 3`.
package filter

import (
	"fmt"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/kingrea/addressapp/internal/person"
)

// Env is the variable set an expression sees for one record.
type Env struct {
	FirstName   string `expr:"firstName"`
	LastName    string `expr:"lastName"`
	Street      string `expr:"street"`
	PostalCode  int    `expr:"postalCode"`
	City        string `expr:"city"`
	Birthday    string `expr:"birthday"`
	HasBirthday bool   `expr:"hasBirthday"`
	BirthYear   int    `expr:"birthYear"`
	BirthMonth  int    `expr:"birthMonth"`
	BirthDay    int    `expr:"birthDay"`
}

// EnvFor builds the expression environment of p. Birthday is ISO text, empty
// when absent; the numeric birth fields are 0 in that case.
func EnvFor(p *person.Person) Env {
	if p == nil {
		return Env{}
	}
	env := Env{
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Street:     p.Street,
		PostalCode: p.PostalCode,
		City:       p.City,
	}
	if !p.Birthday.IsZero() {
		env.Birthday = p.Birthday.String()
		env.HasBirthday = true
		env.BirthYear = p.Birthday.Year
		env.BirthMonth = int(p.Birthday.Month)
		env.BirthDay = p.Birthday.Day
	}
	return env
}

// Filter is a compiled predicate.
type Filter struct {
	source  string
	program *exprvm.Program
}

// Compile type-checks expression against Env. An empty expression matches
// everything.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Filter{}, nil
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(Env{}),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("filter: compile %q: %w", expression, err)
	}
	return &Filter{source: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match evaluates the predicate for p.
func (f *Filter) Match(p *person.Person) (bool, error) {
	if f == nil || f.program == nil {
		return true, nil
	}
	out, err := exprlang.Run(f.program, EnvFor(p))
	if err != nil {
		return false, fmt.Errorf("filter: evaluate %q: %w", f.source, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Indexes returns the positions in records that match, in order.
func (f *Filter) Indexes(records []*person.Person) ([]int, error) {
	out := make([]int, 0, len(records))
	for i, p := range records {
		ok, err := f.Match(p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, i)
		}
	}
	return out, nil
}

// Apply returns the matching records in order.
func (f *Filter) Apply(records []*person.Person) ([]*person.Person, error) {
	idx, err := f.Indexes(records)
	if err != nil {
		return nil, err
	}
	out := make([]*person.Person, 0, len(idx))
	for _, i := range idx {
		out = append(out, records[i])
	}
	return out, nil
}
