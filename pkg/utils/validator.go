package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

var (
	supportedImageTypes = map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
		"image/heic": true,
		"image/heif": true,
	}
	supportedVideoTypes = map[string]bool{
		"video/mp4":       true,
		"video/quicktime": true,
		"video/x-msvideo": true,
		"video/avi":       true,
		"video/x-ms-wmv":  true,
	}
)

func NewValidator() *Validator {
	v := validator.New()

	// Hata anahtarları json isimleriyle üretilsin
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Custom validations
	v.RegisterValidation("supported_image", validateImageType)
	v.RegisterValidation("supported_media", validateMediaType)

	return &Validator{
		validate: v,
	}
}

func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

func IsSupportedImage(mimeType string) bool {
	return supportedImageTypes[strings.ToLower(mimeType)]
}

func IsSupportedVideo(mimeType string) bool {
	return supportedVideoTypes[strings.ToLower(mimeType)]
}

// Desteklenen resim formatlarını kontrol et
func validateImageType(fl validator.FieldLevel) bool {
	return IsSupportedImage(fl.Field().String())
}

// Misafir yüklemeleri: resim + video
func validateMediaType(fl validator.FieldLevel) bool {
	mimeType := fl.Field().String()
	return IsSupportedImage(mimeType) || IsSupportedVideo(mimeType)
}

var indexSegment = regexp.MustCompile(`\[(\d+)\]`)

// FieldErrors converts validator errors into a field -> message map. Errors
// inside a slice element collapse onto the element key, e.g. "files.2".
func FieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		key := fieldKey(fe.Namespace())
		if _, exists := fields[key]; exists {
			continue
		}
		fields[key] = fieldMessage(fe)
	}
	return fields
}

func fieldKey(namespace string) string {
	// İlk segment struct adı
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = indexSegment.ReplaceAllString(namespace, ".$1")

	parts := strings.Split(namespace, ".")
	for i := 1; i < len(parts); i++ {
		if isDigits(parts[i]) {
			return strings.Join(parts[:i+1], ".")
		}
	}
	return namespace
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func fieldMessage(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array || fe.Kind() == reflect.Map

	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Must be a valid email address."
	case "max":
		if fe.Field() == "size" {
			return "File exceeds the maximum upload size."
		}
		if isList {
			return fmt.Sprintf("At most %s items are allowed.", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters.", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s.", fe.Param())
	case "min":
		if isList {
			return fmt.Sprintf("At least %s item(s) required.", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s.", fe.Param())
	case "supported_image", "supported_media":
		return "Unsupported file type."
	case "datetime":
		return fmt.Sprintf("Invalid format, expected %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	}
	return "Invalid value."
}
