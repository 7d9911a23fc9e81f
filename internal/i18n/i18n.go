package i18n

import "strings"

// translations maps language -> code -> message. English is the default;
// French is kept for parity with the rest of the stack.
var translations = map[string]map[string]string{
	"en": {
		"login":                         "Sign in",
		"required":                      "Required",
		"invoice_created":               "Invoice created successfully.",
		"invoice_updated":               "Invoice updated successfully.",
		"invoice_deleted":               "Invoice deleted successfully.",
		"user_created":                  "User created successfully.",
		"user_updated":                  "User updated successfully.",
		"user_deleted":                  "User deleted successfully.",
		"cannot_delete_own_account":     "You cannot delete your own account.",
		"invoice_number_retry_exceeded": "Could not allocate an invoice number, please retry.",
		"validation_failed":             "Please correct the highlighted fields.",
		"forbidden":                     "You are not allowed to do that.",
		"internal_error":                "Something went wrong, please try again.",
		"invalid_credentials":           "Invalid email or password.",
	},
	"fr": {
		"login":                         "Connexion",
		"required":                      "Requis",
		"invoice_created":               "Facture créée avec succès.",
		"invoice_updated":               "Facture mise à jour avec succès.",
		"invoice_deleted":               "Facture supprimée avec succès.",
		"user_created":                  "Utilisateur créé avec succès.",
		"user_updated":                  "Utilisateur mis à jour avec succès.",
		"user_deleted":                  "Utilisateur supprimé avec succès.",
		"cannot_delete_own_account":     "Vous ne pouvez pas supprimer votre propre compte.",
		"invoice_number_retry_exceeded": "Impossible d'attribuer un numéro de facture, veuillez réessayer.",
		"validation_failed":             "Veuillez corriger les champs en erreur.",
		"forbidden":                     "Vous n'êtes pas autorisé à faire cela.",
		"internal_error":                "Une erreur est survenue, veuillez réessayer.",
		"invalid_credentials":           "Email ou mot de passe invalide.",
	},
}

// T returns the translation for code in lang.
// Unknown languages fall back to English; unknown codes fall back to the code itself.
func T(lang, code string) string {
	if m, ok := translations[lang]; ok {
		if msg, ok := m[code]; ok {
			return msg
		}
	}
	if msg, ok := translations["en"][code]; ok {
		return msg
	}
	return code
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	s := strings.ToLower(acceptLanguage)
	for _, lang := range []string{"en", "fr"} {
		if strings.HasPrefix(s, lang) || strings.Contains(s, ","+lang) || strings.Contains(s, " "+lang) {
			return lang
		}
	}
	return "en"
}
