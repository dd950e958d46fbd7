// Package validation checks request payloads before any backend call and
// reports field-level messages as an explicit Result.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Result is the outcome of validating one payload. Fields maps the JSON
// name of each invalid field to a user-facing message.
type Result struct {
	Valid  bool              `json:"valid"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ToError converts an invalid result into a domain validation error.
func (r Result) ToError() error {
	if r.Valid {
		return nil
	}
	return &domain.ErrValidation{Fields: r.Fields}
}

// Validator wraps go-playground/validator with the Brazilian document,
// postal code and phone rules used across the registration flow.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	mustRegister(v, "cpfcnpj", func(fl validator.FieldLevel) bool { return IsCpfCnpj(fl.Field().String()) })
	mustRegister(v, "cep", func(fl validator.FieldLevel) bool { return IsCEP(fl.Field().String()) })
	mustRegister(v, "phonebr", func(fl validator.FieldLevel) bool { return IsPhoneBR(fl.Field().String()) })

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Struct validates s and never panics on a valid struct input.
func (val *Validator) Struct(s any) Result {
	err := val.v.Struct(s)
	if err == nil {
		return Result{Valid: true}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Result{Fields: map[string]string{"_": "Requisição inválida"}}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe)
		if _, seen := fields[key]; !seen {
			fields[key] = message(fe)
		}
	}
	return Result{Fields: fields}
}

// Check is Struct(s).ToError().
func (val *Validator) Check(s any) error {
	return val.Struct(s).ToError()
}

// fieldKey drops the root struct name: "CompanyStepInput.address.zipCode" → "address.zipCode".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "acceptTerms":
		return "É necessário aceitar os termos de uso"
	case "passwordConfirmation":
		if fe.Tag() == "eqfield" {
			return "As senhas não conferem"
		}
	case "state":
		if fe.Tag() == "len" || fe.Tag() == "alpha" {
			return "UF deve ter 2 letras"
		}
	}

	switch fe.Tag() {
	case "required", "required_without":
		return "Campo obrigatório"
	case "email":
		return "E-mail inválido"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Deve ter no mínimo %s caracteres", fe.Param())
		}
		return fmt.Sprintf("Deve ser no mínimo %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Deve ter no máximo %s caracteres", fe.Param())
		}
		return fmt.Sprintf("Deve ser no máximo %s", fe.Param())
	case "cpfcnpj":
		return "CPF/CNPJ inválido"
	case "cep":
		return "CEP deve ter 8 dígitos"
	case "phonebr":
		return "Telefone inválido"
	case "oneof":
		return fmt.Sprintf("Deve ser um de: %s", fe.Param())
	case "eqfield":
		return "Os valores não conferem"
	}
	return "Valor inválido"
}
