package constants

// Messages d'erreur HTTP courants
const (
	ErrServerError        = "Erreur serveur"
	ErrInvalidJSONBody    = "Body JSON invalide"
	ErrBodyTooLarge       = "Body trop volumineux"
	ErrNotAuthenticated   = "Non authentifié"
	ErrInvalidCredentials = "Email ou mot de passe incorrect"
	ErrAccountDisabled    = "Compte désactivé"
	ErrUserNotFound       = "Utilisateur introuvable"
	ErrInvalidUserID      = "ID utilisateur invalide"
	ErrSelfDelete         = "Impossible de supprimer votre propre compte"
	ErrEmailTaken         = "Cet email est déjà utilisé"
	ErrInvalidProviderID  = "ID prestataire invalide"
	ErrProviderNotFound   = "Prestataire introuvable"
	ErrProviderInUse      = "Des offres référencent encore ce prestataire"
	ErrInvalidOfferID     = "ID offre invalide"
	ErrOfferNotFound      = "Offre introuvable"
	ErrOfferCodeTaken     = "Ce code promo est déjà utilisé"
	ErrInvalidArtistID    = "ID artiste invalide"
	ErrArtistNotFound     = "Artiste introuvable"
	ErrArtistInUse        = "Des smartlinks référencent encore cet artiste"
	ErrInvalidSmartLinkID = "ID smartlink invalide"
	ErrSmartLinkNotFound  = "Smartlink introuvable"
	ErrSlugTaken          = "Ce slug est déjà utilisé"
	ErrTooManyEvents      = "500 événements maximum par requête"
	ErrNoEvents           = "Aucun événement fourni"
	ErrSalesforceDisabled = "Salesforce n'est pas configuré"
	ErrDeviceNotFound     = "Appareil introuvable"
	ErrInvalidPeriod      = "La date de début doit précéder la date de fin"
)

// En-têtes HTTP
const (
	HeaderContentType     = "Content-Type"
	HeaderApplicationJSON = "application/json"
)

// MaxBodyBytes limite la taille des corps JSON acceptés
const MaxBodyBytes = 1 << 20
