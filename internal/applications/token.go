package applications

import "quickapply-backend/internal/shared/util"

const (
	trackTokenBytes = 24
	// TrackTokenLength is the encoded length of a track token.
	TrackTokenLength = 32
)

// NewTrackToken returns 192 random bits as unpadded base64url.
func NewTrackToken() (string, error) {
	return util.RandomURLToken(trackTokenBytes)
}

// WellFormedToken reports whether s could have been issued by NewTrackToken.
func WellFormedToken(s string) bool {
	if len(s) != TrackTokenLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
