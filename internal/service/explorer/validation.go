package explorer

import (
	"errors"
	"strings"

	"folio/internal/config"
	"folio/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Name validation messages, shown to the user verbatim.
const (
	msgNameEmpty        = "File name cannot be empty"
	msgNameTooLong      = "File name must be less than 255 characters"
	msgNameInvalidChars = "File name contains invalid characters"
	msgNameBadFormat    = "Invalid file name format"
	msgDescTooLong      = "Description must be less than 2000 characters"
	msgIconUnknown      = "Unknown folder icon"
	msgNoFields         = "at least one field must be provided"
)

// nameRules is applied in order; the first failing rule wins.
var nameRules = []validation.Rule{
	validation.Required.Error(msgNameEmpty),
	validation.RuneLength(0, config.MaxNameLength).Error(msgNameTooLong),
	validation.By(func(value any) error {
		if invalidNameChar.MatchString(value.(string)) {
			return errors.New(msgNameInvalidChars)
		}
		return nil
	}),
	validation.By(func(value any) error {
		s := value.(string)
		if strings.Contains(s, "..") || strings.Contains(s, "./") || strings.Contains(s, ".\\") {
			return errors.New(msgNameBadFormat)
		}
		return nil
	}),
}

// ValidateName checks an already sanitized folder or file name.
func ValidateName(name string) error {
	return asValidationError(validation.Validate(name, nameRules...))
}

// ValidateDescription checks an already sanitized description. Nil is valid.
func ValidateDescription(desc *string) error {
	if desc == nil {
		return nil
	}
	return asValidationError(validation.Validate(*desc,
		validation.RuneLength(0, config.MaxDescriptionLength).Error(msgDescTooLong),
	))
}

// validateIcon checks a folder icon against the policy allow-list.
func validateIcon(policy *config.UploadPolicy, icon *string) error {
	if icon == nil {
		return nil
	}
	allowed := make([]any, 0, len(policy.FolderIcons))
	for _, i := range policy.FolderIcons {
		allowed = append(allowed, i)
	}
	return asValidationError(validation.Validate(*icon,
		validation.In(allowed...).Error(msgIconUnknown),
	))
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	return &domain.ValidationError{Message: err.Error()}
}
