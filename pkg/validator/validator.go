package validator

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func ValidateSendMessage(receiverID, text string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(receiverID) == "" {
		errs.Add("receiverId", "Receiver is required")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		errs.Add("text", "Message text is required")
	} else if utf8.RuneCountInString(text) > 4000 {
		errs.Add("text", "Message is too long")
	}

	return errs
}

func ValidateBooking(resource string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(resource) == "" {
		errs.Add("resource", "Resource is required")
	}

	return errs
}

func ValidateServiceRequest(title, division string) ValidationErrors {
	errs := make(ValidationErrors)

	title = strings.TrimSpace(title)
	if title == "" {
		errs.Add("title", "Title is required")
	} else if utf8.RuneCountInString(title) > 200 {
		errs.Add("title", "Title is too long")
	}

	if strings.TrimSpace(division) == "" {
		errs.Add("division", "Division is required")
	}

	return errs
}
