package tokenvault

import "fmt"

// storageKeyFormat places the app ID first and the unformatted item key last.
const storageKeyFormat = "%s:%s"

// CredentialKind classifies a stored token.
type CredentialKind uint8

const (
	// AccessToken is the short-lived bearer token.
	AccessToken CredentialKind = iota + 1
	// RefreshToken exchanges for a new access token.
	RefreshToken
)

// String returns the kind tag used in storage keys.
func (k CredentialKind) String() string {
	switch k {
	case AccessToken:
		return "accessToken"
	case RefreshToken:
		return "refreshToken"
	default:
		return fmt.Sprintf("CredentialKind(%d)", uint8(k))
	}
}

// KeychainItem identifies one stored credential.
type KeychainItem struct {
	Kind   CredentialKind
	UserID string
}

// UnformattedKey returns "<kind>_<userID>".
func (i KeychainItem) UnformattedKey() string {
	return i.Kind.String() + "_" + i.UserID
}

// StorageKey derives the store key for item under appID.
func StorageKey(appID string, item KeychainItem) string {
	return fmt.Sprintf(storageKeyFormat, appID, item.UnformattedKey())
}
