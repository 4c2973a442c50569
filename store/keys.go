package store

// KeyPrefix namespaces every key written by the onboarding service.
const KeyPrefix = "solar_onboarding:"

func sessionKey(sessionID, suffix string) string {
	return KeyPrefix + "session:" + sessionID + ":" + suffix
}

// ProgressKey is where a session's snapshot is stored.
func ProgressKey(sessionID string) string {
	return sessionKey(sessionID, "progress")
}

// ProgressMetaKey holds the minimal step markers written when a full save fails.
func ProgressMetaKey(sessionID string) string {
	return sessionKey(sessionID, "progress_meta")
}

func ImageKey(sessionID, field string) string {
	return sessionKey(sessionID, "image:"+field)
}

func ImageMetaKey(sessionID, field string) string {
	return sessionKey(sessionID, "image_meta:"+field)
}

// ImageIndexKey lists the image fields cached for a session.
func ImageIndexKey(sessionID string) string {
	return sessionKey(sessionID, "images")
}
