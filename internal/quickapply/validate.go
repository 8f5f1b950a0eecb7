package quickapply

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxJobIDLen   = 128
	maxNameLen    = 200
	maxEmailLen   = 254
	maxPhoneLen   = 40
	maxMessageLen = 5000

	// MaxFileSize caps resume uploads.
	MaxFileSize int64 = 10 << 20
)

type validated struct {
	jobID, name, email, phone, message string
}

func validate(s Submission) (validated, error) {
	v := validated{
		jobID:   strings.TrimSpace(s.JobID),
		name:    strings.TrimSpace(s.Name),
		email:   strings.TrimSpace(s.Email),
		phone:   strings.TrimSpace(s.Phone),
		message: strings.TrimSpace(s.Message),
	}
	fields := map[string]string{}

	switch {
	case v.jobID == "":
		fields["jobId"] = "is required"
	case len(v.jobID) > maxJobIDLen:
		fields["jobId"] = "is too long"
	}
	switch {
	case v.name == "":
		fields["name"] = "is required"
	case utf8.RuneCountInString(v.name) > maxNameLen:
		fields["name"] = "is too long"
	}
	switch {
	case v.email == "":
		fields["email"] = "is required"
	case len(v.email) > maxEmailLen:
		fields["email"] = "is too long"
	case !plainAddress(v.email):
		fields["email"] = "is not a valid email address"
	}
	if utf8.RuneCountInString(v.phone) > maxPhoneLen {
		fields["phone"] = "is too long"
	}
	if utf8.RuneCountInString(v.message) > maxMessageLen {
		fields["message"] = "is too long"
	}
	switch {
	case s.File == nil || s.FileSize <= 0:
		fields["resume"] = "is required"
	case s.FileSize > MaxFileSize:
		fields["resume"] = "exceeds the 10MB limit"
	}

	if len(fields) > 0 {
		return validated{}, &ValidationError{Fields: fields}
	}
	return v, nil
}

// plainAddress accepts a bare addr-spec with a dotted domain, not "Name <addr>".
func plainAddress(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}
