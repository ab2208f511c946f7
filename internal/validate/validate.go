// Package validate holds the client-side checks run before anything is sent
// to the backend. Every failure is an *errs.ValidationError naming the field.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"

	"github.com/strrl/folio/internal/errs"
	"github.com/strrl/folio/pkg/models"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 4 * 1024 * 1024

// Field names used in ValidationError.Field.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldImage    = "image"
	FieldTitle    = "title"
	FieldCategory = "category"
)

// Messages shown next to the offending input.
const (
	MsgEmail         = "L'email doit être valide."
	MsgPassword      = "Le mot de passe doit contenir au moins 3 caractères, une majuscule et un chiffre."
	MsgImageType     = "Format non supporté. Veuillez choisir une image JPG ou PNG."
	MsgImageSize     = "Fichier trop volumineux. Taille maximum : 4Mo."
	MsgImageMissing  = "Veuillez choisir une image."
	MsgTitleMissing  = "Le titre est obligatoire."
	MsgCategoryValue = "Veuillez sélectionner une catégorie."
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Email checks the address shape.
func Email(email string) error {
	if !emailRe.MatchString(email) {
		return &errs.ValidationError{Field: FieldEmail, Message: MsgEmail}
	}
	return nil
}

// Password requires at least 3 characters, one upper-case letter and one digit.
func Password(password string) error {
	var upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if len([]rune(password)) < 3 || !upper || !digit {
		return &errs.ValidationError{Field: FieldPassword, Message: MsgPassword}
	}
	return nil
}

// Credentials validates both login fields and joins the failures.
func Credentials(c models.Credentials) error {
	return errors.Join(Email(c.Email), Password(c.Password))
}

// ImageSize rejects files above MaxImageSize. It is split out so callers can
// check a file's size before reading it.
func ImageSize(size int64) error {
	if size > MaxImageSize {
		return &errs.ValidationError{Field: FieldImage, Message: MsgImageSize}
	}
	return nil
}

// Image checks size and sniffed content type. It returns the detected MIME type.
func Image(img models.ImageFile) (string, error) {
	if len(img.Data) == 0 {
		return "", &errs.ValidationError{Field: FieldImage, Message: MsgImageMissing}
	}
	if err := ImageSize(int64(len(img.Data))); err != nil {
		return "", err
	}

	mtype := mimetype.Detect(img.Data).String()
	if i := strings.IndexByte(mtype, ';'); i >= 0 {
		mtype = mtype[:i]
	}
	if !allowedImageTypes[mtype] {
		return "", &errs.ValidationError{Field: FieldImage, Message: MsgImageType}
	}
	return mtype, nil
}

// NewWork validates the whole add-work form. categories lists the known
// categories; when empty the category is only checked for being positive.
func NewWork(w models.NewWork, categories []models.Category) error {
	if _, err := Image(w.Image); err != nil {
		return err
	}
	if strings.TrimSpace(w.Title) == "" {
		return &errs.ValidationError{Field: FieldTitle, Message: MsgTitleMissing}
	}
	if w.CategoryID <= 0 {
		return &errs.ValidationError{Field: FieldCategory, Message: MsgCategoryValue}
	}
	if len(categories) == 0 {
		return nil
	}
	for _, c := range categories {
		if c.ID == w.CategoryID {
			return nil
		}
	}
	return &errs.ValidationError{
		Field:   FieldCategory,
		Message: fmt.Sprintf("%s (%d inconnue)", MsgCategoryValue, w.CategoryID),
	}
}

// Fields returns every ValidationError contained in err, keyed by field.
func Fields(err error) map[string]string {
	out := make(map[string]string)
	collect(err, out)
	return out
}

func collect(err error, out map[string]string) {
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			collect(e, out)
		}
		return
	}
	var ve *errs.ValidationError
	if errors.As(err, &ve) {
		out[ve.Field] = ve.Message
	}
}
