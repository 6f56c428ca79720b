// Package service defines the closed set of generation service keys.
// Every cost table entry, plan permission, and call site goes through this
// enumeration so unknown keys cannot slip in as strings.
package service

// Key identifies one AI-backed generation capability.
type Key string

const (
	KeyNews      Key = "news_generator"
	KeySpeech    Key = "text_to_speech"
	KeyCopy      Key = "copy_writer"
	KeyPrompt    Key = "prompt_crafter"
	KeyImage     Key = "image_generator"
	KeyLanding   Key = "landing_page"
	KeyResume    Key = "resume_builder"
	KeyStructure Key = "design_structure"
)

// All returns every known service key in stable order.
// The order is the order permissions appear in plan editors.
func All() []Key {
	return []Key{
		KeyNews,
		KeySpeech,
		KeyCopy,
		KeyPrompt,
		KeyImage,
		KeyLanding,
		KeyResume,
		KeyStructure,
	}
}

// labels maps keys to display names used when stored data carries none.
var labels = map[Key]string{
	KeyNews:      "News Articles",
	KeySpeech:    "Text to Speech",
	KeyCopy:      "Copywriting",
	KeyPrompt:    "Prompt Crafting",
	KeyImage:     "Image Generation",
	KeyLanding:   "Landing Pages",
	KeyResume:    "Resume Builder",
	KeyStructure: "Design Structures",
}

// Label returns the display name for a key, or the raw key if unknown.
func Label(k Key) string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// IsValid reports whether k is part of the closed enumeration.
func IsValid(k Key) bool {
	_, ok := labels[k]
	return ok
}

// GuestAllowlist returns the service keys reachable without authentication.
// This is a static constant, deliberately decoupled from the plan catalog:
// misconfiguring the free plan must not change guest behavior.
func GuestAllowlist() []Key {
	return []Key{KeyNews, KeyCopy, KeyPrompt}
}

// IsGuestAllowed reports whether a guest may request the given service.
func IsGuestAllowed(k Key) bool {
	for _, a := range GuestAllowlist() {
		if a == k {
			return true
		}
	}
	return false
}
