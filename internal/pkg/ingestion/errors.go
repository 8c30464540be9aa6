package ingestion

import (
	"errors"

	"github.com/ufsoft/screener/internal/pkg/imageprocessor"
	"github.com/ufsoft/screener/internal/pkg/upload"
)

var (
	ErrNoFileUploaded      = errors.New("no file uploaded")
	ErrInvalidCategoryName = errors.New("category names cannot contain spaces or path separators")
	ErrInvalidFilename     = errors.New("invalid file name")
	ErrDuplicateImage      = errors.New("image already exists for this category")
	ErrFileTooBig          = upload.ErrFileTooBig
	ErrInvalidImage        = imageprocessor.ErrInvalidImage
	ErrSaveFailed          = errors.New("failed to save image")
	ErrCommitFailed        = errors.New("failed to store image")
)

// Form field names of the upload form.
const (
	FieldFile                = "uploaded_file"
	FieldCategoryName        = "category_name"
	FieldCategoryDescription = "category_description"
	FieldCategoryPrivate     = "category_private"
	FieldDescription         = "description"
	FieldPrivate             = "private"
	FieldAdultContent        = "adult_content"
	FieldWatermarkText       = "watermark_text"
	FieldMultiple            = "multiple"
)

// FormError is a recoverable ingestion failure tied to the form field that
// caused it. Form echoes the submitted values so the client can refill it.
type FormError struct {
	Err   error
	Field string
	Form  map[string]string
}

func (e *FormError) Error() string { return e.Err.Error() }

func (e *FormError) Unwrap() error { return e.Err }

// Recoverable reports whether err is answered with a 4xx and a refilled
// form rather than a server error.
func Recoverable(err error) bool {
	var fe *FormError
	return errors.As(err, &fe) && !errors.Is(err, ErrCommitFailed)
}

func formError(err error, field string, form map[string]string) error {
	return &FormError{Err: err, Field: field, Form: form}
}
