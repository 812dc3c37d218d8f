package pipeline

import (
	"fmt"

	"enrollment/internal/document/models"
)

// Rejection texts by language code. English is the fallback.
var rejectionTexts = map[string]map[models.RejectionReason]string{
	"en": {
		models.ReasonUnreadable:   "We could not read this document. Please upload a clearer photo or scan of your %s.",
		models.ReasonWrongKind:    "This does not look like a %s. Please upload the correct document.",
		models.ReasonNameMismatch: "The name on this document (%s) does not match the name on your Aadhaar (%s). Please upload a document in your own name.",
	},
	"hi": {
		models.ReasonUnreadable:   "हम यह दस्तावेज़ नहीं पढ़ सके। कृपया अपने %s की साफ़ फ़ोटो या स्कैन अपलोड करें।",
		models.ReasonWrongKind:    "यह %s नहीं लगता। कृपया सही दस्तावेज़ अपलोड करें।",
		models.ReasonNameMismatch: "इस दस्तावेज़ पर नाम (%s) आपके आधार के नाम (%s) से मेल नहीं खाता।",
	},
	"mr": {
		models.ReasonUnreadable:   "हा दस्तऐवज वाचता आला नाही. कृपया आपल्या %s चा स्पष्ट फोटो किंवा स्कॅन अपलोड करा.",
		models.ReasonWrongKind:    "हा %s दिसत नाही. कृपया योग्य दस्तऐवज अपलोड करा.",
		models.ReasonNameMismatch: "या दस्तऐवजावरील नाव (%s) आपल्या आधारवरील नावाशी (%s) जुळत नाही.",
	},
}

func rejectionText(language string, reason models.RejectionReason, args ...any) string {
	texts, ok := rejectionTexts[language]
	if !ok {
		texts = rejectionTexts["en"]
	}
	return fmt.Sprintf(texts[reason], args...)
}
