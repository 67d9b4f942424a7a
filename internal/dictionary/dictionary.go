package dictionary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erivative/lingogate/internal/answers"
)

// Entry is one offline dictionary record for a common phrase
type Entry struct {
	Darja         string `json:"darja"`
	Pronunciation string `json:"pronunciation"`
	French        string `json:"french"`
	English       string `json:"english"`
	Note          string `json:"note"`
}

// entries covers the high-frequency phrases served when the translation
// backend is unreachable. Keys are normalized the same way as answer keys.
var entries = map[string]Entry{
	"hello": {
		Darja:         "واش راك / سلام",
		Pronunciation: "Wash rak / Salam",
		French:        "Bonjour / Salut",
		English:       "Hello",
		Note:          "Wash rak is typically Algerian",
	},
	"good morning": {
		Darja:         "صباح الخير",
		Pronunciation: "Sbah el khir",
		French:        "Bonjour",
		English:       "Good morning",
		Note:          "Standard greeting",
	},
	"good night": {
		Darja:         "تصبح على خير",
		Pronunciation: "Tesbah ala khair",
		French:        "Bonne nuit",
		English:       "Good night",
		Note:          "Said when parting at night",
	},
	"goodbye": {
		Darja:         "مع السلامة / بسلامة",
		Pronunciation: "Ma'a salama / B'salama",
		French:        "Au revoir",
		English:       "Goodbye",
		Note:          "B'salama is the Algerian short form",
	},
	"how are you": {
		Darja:         "واش راك / كيفاه راك",
		Pronunciation: "Wash rak / Kifah rak",
		French:        "Comment ça va",
		English:       "How are you",
		Note:          "Wash rak is most common in Algeria",
	},
	"thank you": {
		Darja:         "شكرا / بارك الله فيك",
		Pronunciation: "Choukran / Barak Allah fik",
		French:        "Merci",
		English:       "Thank you",
		Note:          "Barak Allah fik is more heartfelt",
	},
	"please": {
		Darja:         "عفوا / برك الله فيك",
		Pronunciation: "'Afak / Baraka Allah fik",
		French:        "S'il te plaît",
		English:       "Please",
		Note:          "Literally means \"for your sake\"",
	},
	"sorry": {
		Darja:         "سمحني / معذرة",
		Pronunciation: "Smehli / Ma'zerta",
		French:        "Pardon / Désolé",
		English:       "Sorry / Excuse me",
		Note:          "Smehli literally means \"forgive me\"",
	},
	"yes": {
		Darja:         "نعم / واه / إييه",
		Pronunciation: "Na'am / Wah / Eyeh",
		French:        "Oui",
		English:       "Yes",
		Note:          "Wah and Eyeh are casual affirmations",
	},
	"no": {
		Darja:         "لا / أواه",
		Pronunciation: "La / Owah",
		French:        "Non",
		English:       "No",
		Note:          "Owah is Algerian pronunciation",
	},
	"food": {
		Darja:         "الماكل / الطعام",
		Pronunciation: "El-makul / At-ta'am",
		French:        "Nourriture",
		English:       "Food",
		Note:          "El-makul is specifically Algerian dialect",
	},
	"water": {
		Darja:         "الماء / الما",
		Pronunciation: "El-ma' / El-ma",
		French:        "Eau",
		English:       "Water",
		Note:          "El-ma is the Algerian pronunciation",
	},
	"bread": {
		Darja:         "الخبز / الرغيف",
		Pronunciation: "El-khobz / Er-raghif",
		French:        "Pain",
		English:       "Bread",
		Note:          "Essential part of every Algerian meal",
	},
	"coffee": {
		Darja:         "القهوة",
		Pronunciation: "El-qahwa",
		French:        "Café",
		English:       "Coffee",
		Note:          "Algerian coffee culture is strong",
	},
	"tea": {
		Darja:         "الأتاي / الشاي",
		Pronunciation: "El-atay / Esh-shay",
		French:        "Thé",
		English:       "Tea",
		Note:          "Mint tea is traditional",
	},
	"mother": {
		Darja:         "مّي / الوالدة",
		Pronunciation: "Mmi / El-walida",
		French:        "Mère",
		English:       "Mother",
		Note:          "Mmi is the most intimate term",
	},
	"father": {
		Darja:         "بابا / الوالد",
		Pronunciation: "Baba / El-walid",
		French:        "Père",
		English:       "Father",
		Note:          "Baba is affectionate Algerian term",
	},
	"brother": {
		Darja:         "خوي",
		Pronunciation: "Khouya",
		French:        "Frère",
		English:       "Brother",
		Note:          "Also used to address close male friends",
	},
	"sister": {
		Darja:         "ختي",
		Pronunciation: "Khti",
		French:        "Sœur",
		English:       "Sister",
		Note:          "Also used to address close female friends",
	},
	"friend": {
		Darja:         "الصاحب / الصاحبي",
		Pronunciation: "Es-sahib / Es-sahbi",
		French:        "Ami",
		English:       "Friend",
		Note:          "Es-sahbi literally means \"my companion\"",
	},
	"i love you": {
		Darja:         "نحبك",
		Pronunciation: "Nhebbek",
		French:        "Je t'aime",
		English:       "I love you",
		Note:          "Used for romantic or familial love",
	},
	"very good": {
		Darja:         "مليح / بزاف مليح",
		Pronunciation: "Mlih / Bzzaf mlih",
		French:        "Très bien",
		English:       "Very good",
		Note:          "Mlih is the most common Algerian term",
	},
	"i don't understand": {
		Darja:         "ما فهمتش",
		Pronunciation: "Ma fhemtsh",
		French:        "Je ne comprends pas",
		English:       "I don't understand",
		Note:          "The \"sh\" ending is the Algerian negation",
	},
	"where is": {
		Darja:         "وين رايح / وين هو",
		Pronunciation: "Win rayeh / Win huwa",
		French:        "Où est",
		English:       "Where is",
		Note:          "Win is Algerian for \"where\"",
	},
	"how much": {
		Darja:         "شحال / بشحال",
		Pronunciation: "Shhal / Beshhal",
		French:        "Combien",
		English:       "How much",
		Note:          "Essential for markets",
	},
}

// Lookup finds the best offline match for text. Exact match on the
// normalized key wins; otherwise the first key containing the text, or
// contained in it, is used. Returns false when nothing matches.
func Lookup(text string) (Entry, bool) {
	normalized := answers.Normalize(text)
	if normalized == "" {
		return Entry{}, false
	}

	if entry, ok := entries[normalized]; ok {
		return entry, true
	}

	// Deterministic partial matching: iterate keys in sorted order so the
	// same input always resolves to the same entry.
	for _, key := range Words() {
		if strings.Contains(normalized, key) || strings.Contains(key, normalized) {
			return entries[key], true
		}
	}

	return Entry{}, false
}

// Format renders an entry in the same shape as a backend translation
func Format(text string, entry Entry) string {
	return fmt.Sprintf(
		"Original: %s\nDarja: %s\nPronunciation: %s\nFrench: %s\nEnglish: %s\nNote: %s\n\nServed from the offline dictionary.",
		text, entry.Darja, entry.Pronunciation, entry.French, entry.English, entry.Note)
}

// Words returns every dictionary key in sorted order
func Words() []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
