package auth

import (
	"context"
	"crypto/subtle"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const AdminFullName = "Quản trị viên"

// ParseSheet reads the account sheet export. The first row is a header; the
// columns used are account, password and (4th) full name. An account written
// as "teacher-student" yields the student, linked to the teacher, plus the
// teacher itself if not seen yet (with defaultPassword). A plain account is a
// teacher.
func ParseSheet(r io.Reader, defaultPassword string) ([]Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var out []Account
	has := func(username string) bool {
		for _, a := range out {
			if a.Username == username {
				return true
			}
		}
		return false
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if len(rec) < 2 || rec[0] == "" {
			continue
		}
		raw, password := rec[0], rec[1]
		fullName := raw
		if len(rec) > 3 && rec[3] != "" {
			fullName = rec[3]
		}

		if strings.Contains(raw, "-") {
			parts := strings.Split(raw, "-")
			teacher, student := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
			out = append(out, Account{
				User:     User{Username: student, Role: RoleStudent, FullName: student, TeacherID: teacher},
				Password: password,
			})
			if !has(teacher) {
				out = append(out, Account{
					User:     User{Username: teacher, Role: RoleTeacher, FullName: teacher},
					Password: defaultPassword,
				})
			}
			continue
		}
		if password == "" {
			password = defaultPassword
		}
		out = append(out, Account{
			User:     User{Username: raw, Role: RoleTeacher, FullName: fullName},
			Password: password,
		})
	}
	return out, nil
}

// Directory authenticates against the sheet on every login, with the
// built-in admin account appended last.
type Directory struct {
	Source          Source
	AdminUser       string
	AdminPassHash   string // bcrypt
	DefaultPassword string
}

// Accounts fetches and parses the sheet. A fetch or parse failure is logged
// and yields no sheet accounts.
func (d *Directory) Accounts(ctx context.Context) []Account {
	if d.Source == nil {
		return nil
	}
	rc, err := d.Source.Open(ctx)
	if err != nil {
		log.Printf("auth: fetch account sheet: %v", err)
		return nil
	}
	defer rc.Close()
	accts, err := ParseSheet(rc, d.DefaultPassword)
	if err != nil {
		log.Printf("auth: parse account sheet: %v", err)
		return nil
	}
	return accts
}

// Authenticate returns the first account matching username and password
// exactly.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (User, error) {
	if username == "" {
		return User{}, ErrInvalidCredentials
	}
	for _, a := range d.Accounts(ctx) {
		if a.Username == username && subtle.ConstantTimeCompare([]byte(a.Password), []byte(password)) == 1 {
			u := a.User
			u.Admin = u.Username == d.AdminUser
			return u, nil
		}
	}
	if d.AdminUser != "" && username == d.AdminUser && d.AdminPassHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(d.AdminPassHash), []byte(password)) == nil {
			return User{Username: d.AdminUser, Role: RoleTeacher, FullName: AdminFullName, Admin: true}, nil
		}
	}
	return User{}, ErrInvalidCredentials
}
