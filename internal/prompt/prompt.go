// Package prompt asks the user for a master password and record fields.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/atinyakov/parol/internal/models"
)

// ErrNoInput is returned when input ends before anything was typed.
var ErrNoInput = errors.New("no input")

// Clear is the answer that empties a field instead of keeping its default.
const Clear = "-"

type fder interface {
	Fd() uintptr
}

// Password prints label to out and reads a password from in. When in is a
// terminal the input is not echoed.
func Password(in io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	if f, ok := in.(fder); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	return readLine(in)
}

// Record asks for every record field. An empty answer keeps the value from
// defaults and Clear empties the field, which makes it usable for both
// adding and editing.
func Record(in io.Reader, out io.Writer, defaults models.Record) (models.Record, error) {
	r := defaults
	fields := []struct {
		label string
		dst   *string
	}{
		{"Application", &r.Application},
		{"Username", &r.Username},
		{"Password", &r.Password},
		{"Notes", &r.Notes},
	}
	for _, f := range fields {
		if *f.dst != "" {
			fmt.Fprintf(out, "%s [%s]: ", f.label, shown(f.label, *f.dst))
		} else {
			fmt.Fprintf(out, "%s: ", f.label)
		}
		v, err := readLine(in)
		if err != nil && !(errors.Is(err, ErrNoInput) && *f.dst != "") {
			return models.Record{}, fmt.Errorf("read %s: %w", strings.ToLower(f.label), err)
		}
		switch v {
		case "":
		case Clear:
			*f.dst = ""
		default:
			*f.dst = v
		}
	}
	return r, nil
}

func shown(label, v string) string {
	if label == "Password" {
		return "********"
	}
	return v
}

// readLine reads up to and excluding the next newline one byte at a time, so
// no input is buffered away from the next prompt.
func readLine(in io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n == 1 {
			if buf[0] == '\n' {
				return strings.TrimSuffix(sb.String(), "\r"), nil
			}
			sb.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			if sb.Len() == 0 {
				return "", ErrNoInput
			}
			return strings.TrimSuffix(sb.String(), "\r"), nil
		}
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
	}
}
