package core

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var defaultValidator *Validator

func init() {
	var err error

	if defaultValidator, err = NewValidator(); err != nil {
		panic(err)
	}
}

// Validator checks address books and timelock records.
type Validator struct {
	v *validator.Validate
	t ut.Translator
}

type Option func(o *options)

type options struct {
	strictAddresses bool
}

// WithStrictAddresses makes the address tag require 0x-prefixed hex addresses.
// Without it addresses are opaque non-empty strings.
func WithStrictAddresses() Option {
	return func(o *options) { o.strictAddresses = true }
}

func NewValidator(opts ...Option) (*Validator, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	enLoc := en.New()
	uni := ut.New(enLoc, enLoc)
	translate, _ := uni.GetTranslator("en")
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := entranslations.RegisterDefaultTranslations(validate, translate); err != nil {
		return nil, err
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if len(name) == 0 {
			name = fld.Name
		}

		return "'" + name + "'"
	})

	addressFn := func(fl validator.FieldLevel) bool { return true }
	if o.strictAddresses {
		addressFn = func(fl validator.FieldLevel) bool { return isAddressLiteral(fl.Field().String()) }
	}

	tags := []struct {
		tag      string
		fn       validator.Func
		template string
	}{
		{"address", addressFn, "{0} must be a 0x-prefixed hex address"},
		{"amount", func(fl validator.FieldLevel) bool {
			_, err := parseAmount(fl.Field().String())
			return err == nil
		}, "{0} must be a non-negative integer amount"},
		{"timestamp", func(fl validator.FieldLevel) bool {
			_, err := ParseTimestamp(fl.Field().String())
			return err == nil
		}, "{0} must be unix seconds or an RFC 3339 time"},
	}

	for _, tv := range tags {
		if err := validate.RegisterValidation(tv.tag, tv.fn); err != nil {
			return nil, err
		}

		if err := registerTranslation(validate, translate, tv.tag, tv.template); err != nil {
			return nil, err
		}
	}

	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		tx := sl.Current().Interface().(TimelockTransaction)
		if tx.checkParamCount() != nil {
			sl.ReportError(tx.Params, "'params'", "Params", "paramcount", "")
		}
	}, TimelockTransaction{})

	if err := registerTranslation(validate, translate, "paramcount",
		"{0} must have as many entries as 'paramTypes'"); err != nil {
		return nil, err
	}

	return &Validator{v: validate, t: translate}, nil
}

func registerTranslation(validate *validator.Validate, translate ut.Translator, tag, template string) error {
	return validate.RegisterTranslation(tag, translate,
		func(ut ut.Translator) error {
			return ut.Add(tag, template, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, err := ut.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}

			return msg
		},
	)
}

func (v *Validator) ValidateConfig(c Config) error { return v.validate(c) }

func (v *Validator) ValidateTransaction(tx TimelockTransaction) error {
	if err := v.validate(tx); err != nil {
		return err
	}
	if _, err := tx.TargetAddress(); err != nil {
		return err
	}
	// ABI 编码失败的交易无法 queue
	if _, err := tx.EncodedParams(); err != nil {
		return err
	}

	return nil
}

func (v *Validator) validate(s any) error { return wrapError(v.v.Struct(s), v.t) }

func ValidateConfig(c Config) error { return defaultValidator.ValidateConfig(c) }

func ValidateTransaction(tx TimelockTransaction) error { return defaultValidator.ValidateTransaction(tx) }

func wrapError(err error, trans ut.Translator) error {
	if err == nil {
		return nil
	}

	return &ValidationError{err: err, t: trans}
}

// ValidationError joins translated field errors into one message.
type ValidationError struct {
	err error
	t   ut.Translator
}

func (e *ValidationError) Error() string {
	var errs validator.ValidationErrors
	if !errors.As(e.err, &errs) {
		return e.err.Error()
	}

	msgs := make([]string, 0, len(errs))
	for _, m := range errs.Translate(e.t) {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)

	return strings.Join(msgs, ", ")
}

// Fields returns the namespaces of failed fields, e.g. "Config.'moneyMarket'.'facets'.'viewFacet'".
func (e *ValidationError) Fields() []string {
	var errs validator.ValidationErrors
	if !errors.As(e.err, &errs) {
		return nil
	}

	res := make([]string, 0, len(errs))
	for _, fe := range errs {
		res = append(res, fe.Namespace())
	}

	return res
}

// Is lets errors.Is match the param count rule with ErrParamCountMismatch.
func (e *ValidationError) Is(target error) bool {
	if target != ErrParamCountMismatch {
		return false
	}

	var errs validator.ValidationErrors
	if !errors.As(e.err, &errs) {
		return false
	}

	for _, fe := range errs {
		if fe.Tag() == "paramcount" {
			return true
		}
	}

	return false
}

func (e *ValidationError) Unwrap() error { return e.err }
