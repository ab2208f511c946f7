package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{400, "Requête invalide"},
		{401, "Non autorisé"},
		{404, "Ressource non trouvée"},
		{500, "Erreur interne du serveur"},
		{418, "Erreur inconnue"},
		{503, "Erreur inconnue"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusMessage(tt.status), "status %d", tt.status)
	}
}

func TestUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("delete work: %w", NewAPIError(404))
	assert.Equal(t, "Ressource non trouvée", UserMessage(wrapped))

	assert.Equal(t, "Impossible de joindre le serveur",
		UserMessage(&NetworkError{Op: "GET /works", Err: errors.New("connection refused")}))

	assert.Equal(t, "titre requis", UserMessage(&ValidationError{Field: "title", Message: "titre requis"}))
	assert.Equal(t, "gone", UserMessage(&StateError{Op: "delete", Message: "gone"}))
	assert.Equal(t, "Erreur inconnue", UserMessage(errors.New("boom")))
	assert.Empty(t, UserMessage(nil))
}

func TestIsStatus(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewAPIError(401))
	assert.True(t, IsStatus(err, 401))
	assert.False(t, IsStatus(err, 404))
	assert.False(t, IsStatus(errors.New("x"), 401))
}

func TestAPIErrorString(t *testing.T) {
	assert.Equal(t, "404: Ressource non trouvée", NewAPIError(404).Error())
	assert.Equal(t, MsgMalformedJSON, (&APIError{Message: MsgMalformedJSON}).Error())
}
