package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// promptPassword reads a password without echo from a terminal, or the
// first line of in when input is piped.
func promptPassword(in *os.File, w io.Writer) ([]byte, error) {
	fd := int(in.Fd())
	if !isTerminal(fd) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, fmt.Errorf("read password: %w", err)
		}
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}

	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

func doCreateUser(ctx context.Context, e *env, email, username, name, password string, w io.Writer) error {
	user, err := e.auth.Signup(ctx, domain.SignupInput{
		Email:       email,
		Username:    username,
		Password:    password,
		DisplayName: name,
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				fmt.Fprintf(w, "  %s: %s %s\n", f.Field, f.Rule, f.Param)
			}
		}
		return err
	}
	fmt.Fprintf(w, "Created user %s (%s) id=%s\n", user.Username, user.Email, user.ID)
	return nil
}
