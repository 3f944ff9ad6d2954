package email

import (
	"bytes"
	htemplate "html/template"
)

// Templates fijos de los cuatro emails transaccionales. No hay motor de
// templates genérico: cada envío conoce su template y sus variables.

type verifyVars struct {
	UserName        string
	UserEmail       string
	VerificationURL string
	ExpirationHours int
}

type changeVerifyVars struct {
	UserName        string
	CurrentEmail    string
	NewEmail        string
	VerificationURL string
	ExpirationHours int
}

type welcomeVars struct {
	UserName string
	LoginURL string
}

type changedVars struct {
	UserName string
	NewEmail string
	LoginURL string
}

const (
	subjectSignupVerification = "Please verify your email address"
	subjectChangeVerification = "Confirm your new email address"
	subjectWelcome            = "Welcome to board-hole!"
	subjectEmailChanged       = "Your email address was changed"
)

var (
	tmplSignupVerification = htemplate.Must(htemplate.New("signup-verification").Parse(`
<h2>Hi {{.UserName}},</h2>
<p>Please confirm that <strong>{{.UserEmail}}</strong> is your email address by clicking the link below within {{.ExpirationHours}} hours:</p>
<p><a href="{{.VerificationURL}}">Verify my email</a></p>
<p>If you did not create this account, you can safely ignore this message.</p>`))

	tmplChangeVerification = htemplate.Must(htemplate.New("email-change-verification").Parse(`
<h2>Hi {{.UserName}},</h2>
<p>We received a request to change your account email from <strong>{{.CurrentEmail}}</strong> to <strong>{{.NewEmail}}</strong>.</p>
<p>Confirm the change by clicking the link below within {{.ExpirationHours}} hours:</p>
<p><a href="{{.VerificationURL}}">Confirm new email</a></p>
<p>If you did not request this change, you can safely ignore this message.</p>`))

	tmplWelcome = htemplate.Must(htemplate.New("welcome").Parse(`
<h2>Welcome, {{.UserName}}!</h2>
<p>Your email has been verified and your account is ready.</p>
<p><a href="{{.LoginURL}}">Log in to board-hole</a></p>`))

	tmplEmailChanged = htemplate.Must(htemplate.New("email-changed").Parse(`
<h2>Hi {{.UserName}},</h2>
<p>Your account email was successfully changed to <strong>{{.NewEmail}}</strong>.</p>
<p><a href="{{.LoginURL}}">Log in to board-hole</a></p>`))
)

func render(t *htemplate.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
