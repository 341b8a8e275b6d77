package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse représente une réponse d'erreur
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// SuccessResponse représente une réponse de succès générique
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondJSON envoie une réponse JSON
func RespondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}

	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Les en-têtes sont déjà partis, on ne peut que journaliser
			log.Printf("❌ Erreur lors de l'encodage JSON: %v", err)
		}
	}
}

// RespondError envoie une réponse d'erreur JSON
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondJSON(w, statusCode, ErrorResponse{
		Success: false,
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// RespondValidation envoie une 400 avec le détail champ par champ
func RespondValidation(w http.ResponseWriter, errs ValidationErrors) {
	message := "Données invalides"
	if len(errs) > 0 {
		message = errs[0].Error()
	}
	RespondJSON(w, http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   http.StatusText(http.StatusBadRequest),
		Message: message,
		Errors:  errs,
	})
}

// RespondSuccess envoie une réponse de succès JSON
func RespondSuccess(w http.ResponseWriter, message string, data interface{}) {
	RespondJSON(w, http.StatusOK, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondCreated envoie une 201 avec la ressource créée
func RespondCreated(w http.ResponseWriter, message string, data interface{}) {
	RespondJSON(w, http.StatusCreated, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RespondAccepted envoie une 202 pour un traitement lancé en arrière-plan
func RespondAccepted(w http.ResponseWriter, message string, data interface{}) {
	RespondJSON(w, http.StatusAccepted, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}
