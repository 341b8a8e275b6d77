package models

import "errors"

// Erreurs métier partagées par les repositories, services et handlers
var (
	ErrNotFound           = errors.New("ressource introuvable")
	ErrDuplicate          = errors.New("ressource déjà existante")
	ErrInUse              = errors.New("ressource encore référencée")
	ErrInvalidReference   = errors.New("référence invalide")
	ErrInvalidCredentials = errors.New("email ou mot de passe incorrect")
	ErrAccountDisabled    = errors.New("compte désactivé")
	ErrSelfDelete         = errors.New("impossible de supprimer son propre compte")
	ErrOfferUnavailable   = errors.New("offre non utilisable actuellement")
	ErrOfferExhausted     = errors.New("offre épuisée")
	ErrSmartLinkNoTarget  = errors.New("plateforme absente de ce smartlink")
	ErrSyncInProgress     = errors.New("synchronisation déjà en cours")
	ErrSyncDisabled       = errors.New("synchronisation Salesforce non configurée")
)
