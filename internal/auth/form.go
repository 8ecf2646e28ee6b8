package auth

import (
	"context"
	"errors"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/mrlokans/prepwise/internal/identity"
)

// FormType selects the auth form variant.
type FormType string

const (
	FormSignUp FormType = "sign-up"
	FormSignIn FormType = "sign-in"
)

// Messages shown by the auth form.
const (
	MsgFormEmailInUse         = "This email is already in use. Please sign in."
	MsgFormInvalidCredentials = "Invalid email or password."
	MsgFormUnknownError       = "An unknown error occurred."
	MsgFormAccountCreated     = "Account successfully created! Please Sign In"
	MsgFormNoIDToken          = "Sign In failed: No ID Token received!"
	MsgFormServerSignInFailed = "Server Sign-In Failed"
	MsgFormSignedIn           = "Sign In Successfully"
	MsgFormTooManyAttempts    = "Too many sign-in attempts. Please try again later."
)

// FormValues are the fields posted by the auth form.
type FormValues struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate checks the values for the given form variant. The name is only
// required when signing up.
func (v FormValues) Validate(formType FormType, passwordMinLength int) error {
	if passwordMinLength <= 0 {
		passwordMinLength = 1
	}

	var nameRules []validation.Rule
	if formType == FormSignUp {
		nameRules = append(nameRules, validation.Required, validation.Length(3, 0))
	}

	return validation.ValidateStruct(&v,
		validation.Field(&v.Name, nameRules...),
		validation.Field(&v.Email, validation.Required, is.Email),
		validation.Field(&v.Password, validation.Required, validation.Length(passwordMinLength, 0)),
	)
}

// FieldErrors flattens a validation error into per-field messages.
func FieldErrors(err error) map[string]string {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for field, ferr := range verrs {
		fields[field] = ferr.Error()
	}
	return fields
}

// Outcome is the result of a form submission.
type Outcome struct {
	Success     bool
	Kind        Kind
	Message     string
	Redirect    string
	FieldErrors map[string]string
}

// Form runs the submit protocol: credential client first, then the
// server-side action.
type Form struct {
	client            CredentialClient
	actions           *Actions
	passwordMinLength int
	logger            *slog.Logger
}

func NewForm(client CredentialClient, actions *Actions, passwordMinLength int, logger *slog.Logger) *Form {
	return &Form{
		client:            client,
		actions:           actions,
		passwordMinLength: passwordMinLength,
		logger:            logger,
	}
}

// Submit validates the values and runs the variant's protocol.
func (f *Form) Submit(ctx context.Context, jar CookieJar, formType FormType, values FormValues) Outcome {
	if err := values.Validate(formType, f.passwordMinLength); err != nil {
		return Outcome{Kind: KindValidation, FieldErrors: FieldErrors(err)}
	}

	if formType == FormSignUp {
		return f.signUp(ctx, values)
	}
	return f.signIn(ctx, jar, values)
}

func (f *Form) signUp(ctx context.Context, values FormValues) Outcome {
	uid, err := f.client.CreateAccount(ctx, values.Email, values.Password)
	if err != nil {
		f.logger.Warn("account creation failed", "email", values.Email, "error", err)
		return providerFailure(err)
	}

	result := f.actions.SignUp(ctx, SignUpParams{
		UID:   uid,
		Name:  values.Name,
		Email: values.Email,
	})
	if !result.Success {
		return Outcome{Kind: result.Kind, Message: result.Message}
	}

	return Outcome{Success: true, Message: MsgFormAccountCreated, Redirect: SignInPath}
}

func (f *Form) signIn(ctx context.Context, jar CookieJar, values FormValues) Outcome {
	credential, err := f.client.SignInWithPassword(ctx, values.Email, values.Password)
	if err != nil {
		f.logger.Info("password sign-in failed", "email", values.Email, "error", err)
		return providerFailure(err)
	}

	if credential == nil || credential.IDToken == "" {
		return Outcome{Kind: KindTokenMissing, Message: MsgFormNoIDToken}
	}

	result := f.actions.SignIn(ctx, jar, SignInParams{
		Email:   values.Email,
		IDToken: credential.IDToken,
	})
	if !result.Success {
		message := result.Message
		if message == "" {
			message = MsgFormServerSignInFailed
		}
		return Outcome{Kind: result.Kind, Message: message}
	}

	return Outcome{Success: true, Message: MsgFormSignedIn, Redirect: HomePath}
}

func providerFailure(err error) Outcome {
	return Outcome{Kind: KindForError(err), Message: MessageForError(err)}
}

// MessageForError maps a credential client error to the message shown on the form.
func MessageForError(err error) string {
	var providerErr *identity.Error
	if !errors.As(err, &providerErr) {
		return MsgFormUnknownError
	}

	switch providerErr.Code {
	case identity.CodeEmailAlreadyInUse, identity.CodeEmailAlreadyExists:
		return MsgFormEmailInUse
	case identity.CodeInvalidCredential, identity.CodeUserNotFound, identity.CodeWrongPassword:
		return MsgFormInvalidCredentials
	default:
		return providerErr.Message
	}
}

// KindForError classifies a credential client error.
func KindForError(err error) Kind {
	var providerErr *identity.Error
	if !errors.As(err, &providerErr) {
		return KindUnknown
	}

	switch providerErr.Code {
	case identity.CodeEmailAlreadyInUse, identity.CodeEmailAlreadyExists:
		return KindEmailInUse
	case identity.CodeInvalidCredential, identity.CodeUserNotFound, identity.CodeWrongPassword:
		return KindInvalidCredentials
	case identity.CodeTooManyRequests:
		return KindRateLimited
	default:
		return KindProviderError
	}
}
