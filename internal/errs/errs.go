// Package errs holds the error kinds shared by every layer of the client.
//
// Four kinds exist:
//
//   - NetworkError: the request never produced an HTTP response.
//   - APIError: the backend answered with a non-2xx status.
//   - ValidationError: client-side form or file validation failed.
//   - StateError: an operation was attempted in an invalid local state.
//
// Callers match kinds with errors.As and sentinels with errors.Is.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotLoggedIn is returned when an operation needs a valid session.
	ErrNotLoggedIn = errors.New("utilisateur non authentifié")

	// ErrNoToken is returned when a login response carries no token.
	ErrNoToken = errors.New("pas de token reçu")
)

// MsgMalformedJSON is the message of an APIError produced by an unparsable JSON body.
const MsgMalformedJSON = "malformed JSON"

var statusMessages = map[int]string{
	http.StatusBadRequest:          "Requête invalide",
	http.StatusUnauthorized:        "Non autorisé",
	http.StatusNotFound:            "Ressource non trouvée",
	http.StatusInternalServerError: "Erreur interne du serveur",
}

const unknownMessage = "Erreur inconnue"

// StatusMessage resolves an HTTP status to its display text.
func StatusMessage(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return unknownMessage
}

// NetworkError means the request failed before any response arrived.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: erreur réseau: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-success HTTP answer. Status is 0 when the body could not be parsed.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// NewAPIError builds an APIError whose message comes from the status table.
func NewAPIError(status int) *APIError {
	return &APIError{Status: status, Message: StatusMessage(status)}
}

// ValidationError is a local validation failure attached to a form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StateError means the operation does not fit the current local state.
type StateError struct {
	Op      string
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		apiErr   *APIError
		netErr   *NetworkError
		valErr   *ValidationError
		stateErr *StateError
	)
	switch {
	case errors.As(err, &valErr):
		return valErr.Message
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.As(err, &netErr):
		return "Impossible de joindre le serveur"
	case errors.As(err, &stateErr):
		return stateErr.Message
	case errors.Is(err, ErrNotLoggedIn), errors.Is(err, ErrNoToken):
		return err.Error()
	}
	return unknownMessage
}
