// Package validation builds the request validator and the field checks that
// struct tags cannot express.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var ErrInvalidPhone = errors.New("phone number is not valid")

const passwordSpecials = "!@#$%^&*"

// New returns a validator that reports fields by their json name.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Phone parses number for region and returns it in E.164 form.
func Phone(number, region string) (string, error) {
	p, err := libphonenumber.Parse(number, region)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", ErrInvalidPhone
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

// Password requires six or more letters, digits or !@#$%^&*, with at least
// one digit and one of the special characters.
func Password(p string) bool {
	if len(p) < 6 {
		return false
	}
	var digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		case r < unicode.MaxASCII && unicode.IsLetter(r):
		default:
			return false
		}
	}
	return digit && special
}
