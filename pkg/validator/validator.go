package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

func ValidateRegister(username, email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateUsername(username, errs)
	validateEmail(email, errs)
	validatePassword("password", password, errs)

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)
	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateProfile(username, avatar string) ValidationErrors {
	errs := make(ValidationErrors)

	validateUsername(username, errs)
	if len(avatar) > 2048 {
		errs.Add("avatar", "Avatar URL is too long")
	}

	return errs
}

func ValidatePasswordChange(current, next string) ValidationErrors {
	errs := make(ValidationErrors)

	if current == "" {
		errs.Add("current_password", "Current password is required")
	}
	validatePassword("new_password", next, errs)

	return errs
}

// CityFields holds the city fields present in a request. Nil means the
// field was not sent.
type CityFields struct {
	CityName *string
	Country  *string
	Notes    *string
	Lat      *float64
	Lng      *float64
	Date     *time.Time
}

// ValidateCity checks a city payload. With partial set, missing fields are
// accepted; otherwise cityName and position are required.
func ValidateCity(f CityFields, partial bool) ValidationErrors {
	errs := make(ValidationErrors)

	if f.CityName == nil {
		if !partial {
			errs.Add("cityName", "City name is required")
		}
	} else if name := strings.TrimSpace(*f.CityName); name == "" {
		errs.Add("cityName", "City name is required")
	} else if len(name) > 200 {
		errs.Add("cityName", "City name is too long")
	}

	if f.Country != nil && len(*f.Country) > 200 {
		errs.Add("country", "Country is too long")
	}
	if f.Notes != nil && len(*f.Notes) > 10000 {
		errs.Add("notes", "Notes are too long")
	}

	if f.Date != nil && f.Date.IsZero() {
		errs.Add("date", "Date is invalid")
	}

	if f.Lat == nil || f.Lng == nil {
		if !partial || f.Lat != nil || f.Lng != nil {
			errs.Add("position", "Position needs both lat and lng")
		}
	} else {
		if *f.Lat < -90 || *f.Lat > 90 {
			errs.Add("position", "Latitude must be between -90 and 90")
		}
		if *f.Lng < -180 || *f.Lng > 180 {
			errs.Add("position", "Longitude must be between -180 and 180")
		}
	}

	return errs
}

func ValidateGroupName(name string) ValidationErrors {
	errs := make(ValidationErrors)

	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "Group name is required")
	} else if len(name) > 100 {
		errs.Add("name", "Group name is too long")
	}

	return errs
}

func validateEmail(email string, errs ValidationErrors) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}
}

func validateUsername(username string, errs ValidationErrors) {
	username = strings.TrimSpace(username)
	if username == "" {
		errs.Add("username", "Username is required")
	} else if len(username) < 3 {
		errs.Add("username", "Username must be at least 3 characters")
	} else if len(username) > 50 {
		errs.Add("username", "Username is too long")
	} else if !usernameRegex.MatchString(username) {
		errs.Add("username", "Username can only contain letters, numbers, ., _ and -")
	}
}

func validatePassword(field, password string, errs ValidationErrors) {
	if len(password) < 6 {
		errs.Add(field, "Password must be at least 6 characters")
		return
	}

	var hasLetter, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsLetter(ch):
			hasLetter = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	missing := []string{}
	if !hasLetter {
		missing = append(missing, "one letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}

	if len(missing) > 0 {
		errs.Add(field, fmt.Sprintf("Password must contain at least %s", strings.Join(missing, ", ")))
	}
}
