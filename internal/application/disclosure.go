package application

// DisplayIdentity is the externally visible form of a pharmacist's identity.
type DisplayIdentity struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

const (
	maskedNamePlaceholder = "◯◯◯"
	maskedNameSuffix      = "◯◯"
	maskedPhone           = "***-****-****"
	maskedEmail           = "*****@*****.***"
)

// Mask derives the identity a pharmacy may see. When disclosed is false the
// names are reduced to their first character, and phone/email are replaced
// with fixed redaction patterns.
//
// Disclosure must be recomputed from current engagement and fee state on
// every read; the result is never stored.
func Mask(identity PharmacistIdentity, disclosed bool) DisplayIdentity {
	if disclosed {
		return DisplayIdentity{
			FirstName: identity.FirstName,
			LastName:  identity.LastName,
			Phone:     identity.Phone,
			Email:     identity.Email,
		}
	}

	return DisplayIdentity{
		FirstName: maskName(identity.FirstName),
		LastName:  maskName(identity.LastName),
		Phone:     maskedPhone,
		Email:     maskedEmail,
	}
}

func maskName(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return maskedNamePlaceholder
	}
	return string(runes[0]) + maskedNameSuffix
}
