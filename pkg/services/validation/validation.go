// Package validation checks request bodies and account credentials and reports the problems
// per field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	tagAccountID = "aws_account_id"
	tagRoleARN   = "aws_role_arn"
)

var (
	accountIDPattern = regexp.MustCompile(`^\d{12}$`)
	roleARNPattern   = regexp.MustCompile(`^arn:aws:iam::\d{12}:role/[\w+=,.@-]+$`)
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation(tagAccountID, matches(accountIDPattern))
	_ = v.RegisterValidation(tagRoleARN, matches(roleARNPattern))
	return &Validator{validate: v}
}

// Struct validates s against its validate tags. Failures come back as *domain.ValidationError.
func (v *Validator) Struct(s any) error {
	return v.convert(v.validate.Struct(s))
}

func (v *Validator) Credentials(creds domain.Credentials) error {
	var fields []domain.FieldError
	if fe := v.field("accountId", creds.AccountID, "required,"+tagAccountID); fe != nil {
		fields = append(fields, *fe)
	}
	if fe := v.field("roleArn", creds.RoleARN, "required,"+tagRoleARN); fe != nil {
		fields = append(fields, *fe)
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// UserID accepts identity provider subject ids, which are UUIDs.
func (v *Validator) UserID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.NewValidationError("userId", "userId must be a UUID")
	}
	return nil
}

func (v *Validator) field(name, value, tag string) *domain.FieldError {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &domain.FieldError{Field: name, Message: message(name, verrs[0])}
	}
	return &domain.FieldError{Field: name, Message: err.Error()}
}

func (v *Validator) convert(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{Field: fe.Field(), Message: message(fe.Field(), fe)})
	}
	return &domain.ValidationError{Fields: fields}
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case tagAccountID:
		return fmt.Sprintf("%s must be a 12-digit AWS account id", field)
	case tagRoleARN:
		return fmt.Sprintf("%s must be an IAM role ARN like arn:aws:iam::123456789012:role/Name", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
