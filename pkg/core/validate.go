package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateNote checks tag length, tag uniqueness and the color palette.
func ValidateNote(n Note) error {
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidNote, err)
	}
	return nil
}

// ValidateDocumentDraft checks the fields a caller must provide for a new document.
func ValidateDocumentDraft(d DocumentDraft) error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// ValidateDocument checks a stored document after a patch.
func ValidateDocument(d Document) error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}
