// Package prompt reads line-oriented answers for the interactive shell.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atinyakov/grocerease/internal/models"
)

// ErrEmptyAnswer is returned when a required answer is blank.
var ErrEmptyAnswer = errors.New("answer must not be empty")

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// New returns a Prompter over in and out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Ask prints question and returns the trimmed answer. io.EOF is returned
// when input is exhausted.
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Require is Ask that rejects blank answers.
func (p *Prompter) Require(question string) (string, error) {
	answer, err := p.Ask(question)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", fmt.Errorf("%s %w", strings.TrimSuffix(strings.TrimSpace(question), ":"), ErrEmptyAnswer)
	}
	return answer, nil
}

// Credentials asks for email and password.
func (p *Prompter) Credentials() (email, password string, err error) {
	if email, err = p.Require("Email: "); err != nil {
		return "", "", err
	}
	if password, err = p.Require("Password: "); err != nil {
		return "", "", err
	}
	return email, password, nil
}

// Registration asks for name, email and password.
func (p *Prompter) Registration() (name, email, password string, err error) {
	if name, err = p.Require("Name: "); err != nil {
		return "", "", "", err
	}
	email, password, err = p.Credentials()
	return name, email, password, err
}

// Shipping asks for delivery details. Name and email default to the
// values of the active user when left blank; the address is required.
func (p *Prompter) Shipping(user *models.User) (models.ShippingDetails, error) {
	var d models.ShippingDetails
	if user != nil {
		d.FullName, d.Email = user.Name, user.Email
	}

	name, err := p.Ask(fmt.Sprintf("Full name [%s]: ", d.FullName))
	if err != nil {
		return d, err
	}
	if name != "" {
		d.FullName = name
	}
	if d.FullName == "" {
		return d, fmt.Errorf("full name %w", ErrEmptyAnswer)
	}

	if d.Address, err = p.Require("Address: "); err != nil {
		return d, err
	}
	return d, nil
}
