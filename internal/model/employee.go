package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxNameLength is the longest accepted employee name, in characters.
	MaxNameLength = 100
	// MaxEmailLength matches the width of the stored email column.
	MaxEmailLength = 255
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Record is a validated, normalized employee entry awaiting persistence.
// The only way to obtain a non-zero Record is NewRecord.
type Record struct {
	name   string
	email  string
	phone  string
	joined Date
}

// NewRecord validates the raw field values and returns a Record holding the
// trimmed name and email and the normalized phone. Checks run in order
// name, email, phone; the first failure is returned.
func NewRecord(name, email, tel string, joined Date) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, InvalidField("name", "Name cannot be blank")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return Record{}, InvalidField("name", "Name too long (max 100 characters)")
	}

	email = strings.TrimSpace(email)
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return Record{}, InvalidField("email", "Email too long (max 255 characters)")
	}
	if !emailPattern.MatchString(email) {
		return Record{}, InvalidField("email", "Invalid email format: "+email)
	}

	phone, err := NormalizePhone(tel)
	if err != nil {
		return Record{}, err
	}

	return Record{name: name, email: email, phone: phone, joined: joined}, nil
}

// ParseRecord parses the joined date and builds a Record from four raw
// field strings in name, email, tel, joined order.
func ParseRecord(name, email, tel, joined string) (Record, error) {
	d, err := ParseDate(joined)
	if err != nil {
		return Record{}, err
	}
	return NewRecord(name, email, tel, d)
}

func (r Record) Name() string  { return r.name }
func (r Record) Email() string { return r.email }
func (r Record) Phone() string { return r.phone }
func (r Record) Joined() Date  { return r.joined }

// Employee is a persisted employee. ID is assigned by the store.
type Employee struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Phone     string    `json:"tel" yaml:"tel"`
	Joined    Date      `json:"joined" yaml:"joined"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// NewEmployee prepares r for persistence, stamping createdAt.
func NewEmployee(r Record, createdAt time.Time) Employee {
	return Employee{
		Name:      r.name,
		Email:     r.email,
		Phone:     r.phone,
		Joined:    r.joined,
		CreatedAt: createdAt,
	}
}
