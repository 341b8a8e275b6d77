package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{6,15}$`)
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidationError représente une erreur de validation
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implémente l'interface error
func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors regroupe toutes les erreurs d'un même objet
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Add ajoute err à la liste si c'est une erreur de validation non nulle
func (v *ValidationErrors) Add(err error) {
	if err == nil {
		return
	}
	switch e := err.(type) {
	case ValidationError:
		*v = append(*v, e)
	case ValidationErrors:
		*v = append(*v, e...)
	default:
		*v = append(*v, ValidationError{Field: "general", Message: err.Error()})
	}
}

// OrNil retourne nil quand la liste est vide (évite une interface error non nulle)
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// ValidateEmail valide un email
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "l'email est requis"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "format d'email invalide"}
	}
	return nil
}

// ValidatePassword valide un mot de passe
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "le mot de passe est requis"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "le mot de passe doit contenir au moins 8 caractères"}
	}
	if len(password) > 72 {
		return ValidationError{Field: "password", Message: "le mot de passe ne doit pas dépasser 72 caractères"}
	}
	return nil
}

// ValidateRequired valide qu'un champ n'est pas vide
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: fmt.Sprintf("le champ %s est requis", field)}
	}
	return nil
}

// ValidateLength vérifie la longueur (en caractères) d'un champ
func ValidateLength(field, value string, min, max int) error {
	n := len([]rune(strings.TrimSpace(value)))
	if n < min {
		if min == 1 {
			return ValidationError{Field: field, Message: fmt.Sprintf("le champ %s est requis", field)}
		}
		return ValidationError{Field: field, Message: fmt.Sprintf("doit contenir au moins %d caractères", min)}
	}
	if max > 0 && n > max {
		return ValidationError{Field: field, Message: fmt.Sprintf("ne doit pas dépasser %d caractères", max)}
	}
	return nil
}

// ValidateEnum vérifie l'appartenance d'une valeur à une liste fermée
func ValidateEnum(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return ValidationError{Field: field, Message: fmt.Sprintf("valeur invalide, attendu: %s", strings.Join(allowed, ", "))}
}

// ValidateURL valide une URL http(s). Une valeur vide est acceptée.
func ValidateURL(field, value string) error {
	if value == "" {
		return nil
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{Field: field, Message: "URL http(s) invalide"}
	}
	return nil
}

// ValidatePhone valide un numéro de téléphone international. Une valeur vide est acceptée.
func ValidatePhone(phone string) error {
	phone = NormalizePhone(phone)
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return ValidationError{Field: "phone", Message: "format de téléphone invalide"}
	}
	return nil
}

// NormalizePhone retire les séparateurs usuels d'un numéro
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	return strings.NewReplacer(" ", "", ".", "", "-", "", "(", "", ")", "").Replace(phone)
}

// ValidateSlug valide un identifiant d'URL (minuscules, chiffres, tirets)
func ValidateSlug(field, value string) error {
	if !slugRegex.MatchString(value) || len(value) > 80 {
		return ValidationError{Field: field, Message: "slug invalide (minuscules, chiffres et tirets)"}
	}
	return nil
}

// Slugify transforme un libellé en slug ("Daft Punk – Live!" -> "daft-punk-live")
func Slugify(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(s))
	var b strings.Builder
	dash := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 80 {
		slug = strings.TrimSuffix(slug[:80], "-")
	}
	return slug
}
